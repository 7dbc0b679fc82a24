package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/ledger"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/streak"
)

type State int

const (
	StateToday State = iota
	StateRoutines
	StateCalendar
	StateStats
	StateAddHabit
)

// tabCount is the number of navigable tabs; StateAddHabit is modal.
const tabCount = 4

var tabNames = []string{"Today", "Routines", "Calendar", "Stats"}

// HabitForm backs the add-habit form fields.
type HabitForm struct {
	Name       string
	Icon       string
	Recurrence string
	Day        string
}

type Model struct {
	ctx       *cli.Context
	state     State
	prevState State
	keys      KeyMap
	help      help.Model

	today    time.Time
	date     time.Time
	cursor   int
	habits   []models.Habit
	routines []models.Routine
	ledger   *ledger.Ledger
	calc     streak.Calculator
	window   int

	form     *huh.Form
	formData *HabitForm

	width     int
	height    int
	err       error
	formError string
	quitting  bool
}

// NewModel loads the active habits, routines and ledger for today.
func NewModel(ctx *cli.Context) (Model, error) {
	today, err := ctx.Today()
	if err != nil {
		return Model{}, err
	}
	settings, err := ctx.Settings()
	if err != nil {
		return Model{}, err
	}
	calc, err := ctx.Calculator()
	if err != nil {
		return Model{}, err
	}

	m := Model{
		ctx:    ctx,
		state:  StateToday,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		today:  today,
		date:   today,
		calc:   calc,
		window: settings.RateWindowDays,
	}
	if err := m.reload(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) reload() error {
	habits, err := storage.ActiveHabits(m.ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	routines, err := m.ctx.Store.GetAllRoutines()
	if err != nil {
		return fmt.Errorf("failed to load routines: %w", err)
	}
	l, err := storage.LoadLedger(m.ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to load completions: %w", err)
	}
	m.habits = habits
	m.routines = routines
	m.ledger = l
	return nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) ShortHelp() []key.Binding {
	return m.keys.ShortHelp()
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

// Date is the day the model is showing.
func (m Model) Date() time.Time {
	return m.date
}

func (m Model) State() State {
	return m.state
}

func (m Model) Err() error {
	return m.err
}
