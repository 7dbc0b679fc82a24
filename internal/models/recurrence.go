package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/constants"
)

// Recurrence is a habit's schedule. The concrete types below are the only
// implementations; each carries exactly the fields its variant needs.
type Recurrence interface {
	Type() constants.RecurrenceType
	String() string
	isRecurrence()
}

// Daily is applicable every date.
type Daily struct{}

// Weekly is applicable on one day of the week.
type Weekly struct {
	Day time.Weekday
}

// Biweekly is applicable on one day of the week, every other week counted
// from Reference.
type Biweekly struct {
	Day       time.Weekday
	Reference time.Time
}

// Monthly is currently applicable every date; no day-of-month selector is
// modeled yet.
type Monthly struct{}

// Unknown preserves a persisted tag this build does not understand. It is
// never applicable.
type Unknown struct {
	Tag string
}

func (Daily) Type() constants.RecurrenceType    { return constants.RecurrenceDaily }
func (Weekly) Type() constants.RecurrenceType   { return constants.RecurrenceWeekly }
func (Biweekly) Type() constants.RecurrenceType { return constants.RecurrenceBiweekly }
func (Monthly) Type() constants.RecurrenceType  { return constants.RecurrenceMonthly }
func (u Unknown) Type() constants.RecurrenceType {
	return constants.RecurrenceType(u.Tag)
}

func (Daily) String() string { return "daily" }
func (w Weekly) String() string {
	return fmt.Sprintf("weekly on %s", w.Day.String()[:3])
}
func (b Biweekly) String() string {
	return fmt.Sprintf("every other %s from %s", b.Day.String()[:3], calendar.Format(b.Reference))
}
func (Monthly) String() string   { return "monthly" }
func (u Unknown) String() string { return fmt.Sprintf("unknown (%s)", u.Tag) }

func (Daily) isRecurrence()    {}
func (Weekly) isRecurrence()   {}
func (Biweekly) isRecurrence() {}
func (Monthly) isRecurrence()  {}
func (Unknown) isRecurrence()  {}

// NewWeekly builds a Weekly rule, rejecting days outside 0..6.
func NewWeekly(day int) (Weekly, error) {
	if err := validateWeekday(day); err != nil {
		return Weekly{}, err
	}
	return Weekly{Day: time.Weekday(day)}, nil
}

// NewBiweekly builds a Biweekly rule. The reference date is truncated to
// midnight.
func NewBiweekly(day int, reference time.Time) (Biweekly, error) {
	if err := validateWeekday(day); err != nil {
		return Biweekly{}, err
	}
	if reference.IsZero() {
		return Biweekly{}, fmt.Errorf("biweekly recurrence requires a reference date")
	}
	return Biweekly{Day: time.Weekday(day), Reference: calendar.Midnight(reference)}, nil
}

func validateWeekday(day int) error {
	if day < 0 || day > 6 {
		return fmt.Errorf("invalid day of week %d (expected 0=Sunday..6=Saturday)", day)
	}
	return nil
}

// RecurrenceSpec is the flat, storage-facing encoding of a Recurrence.
type RecurrenceSpec struct {
	Type          constants.RecurrenceType `json:"type" yaml:"type"`
	DayOfWeek     *int                     `json:"day_of_week,omitempty" yaml:"day_of_week,omitempty"`
	ReferenceDate string                   `json:"reference_date,omitempty" yaml:"reference_date,omitempty"`
}

// EncodeRecurrence flattens r. A nil rule encodes as daily.
func EncodeRecurrence(r Recurrence) RecurrenceSpec {
	switch rule := r.(type) {
	case Weekly:
		day := int(rule.Day)
		return RecurrenceSpec{Type: constants.RecurrenceWeekly, DayOfWeek: &day}
	case Biweekly:
		day := int(rule.Day)
		return RecurrenceSpec{
			Type:          constants.RecurrenceBiweekly,
			DayOfWeek:     &day,
			ReferenceDate: calendar.Format(rule.Reference),
		}
	case nil:
		return RecurrenceSpec{Type: constants.RecurrenceDaily}
	default:
		return RecurrenceSpec{Type: r.Type()}
	}
}

// DecodeRecurrence rebuilds a Recurrence from its flat form. Unrecognized
// tags decode to Unknown rather than failing so old rows stay readable.
func DecodeRecurrence(spec RecurrenceSpec) (Recurrence, error) {
	switch spec.Type {
	case constants.RecurrenceDaily, "":
		return Daily{}, nil
	case constants.RecurrenceMonthly:
		return Monthly{}, nil
	case constants.RecurrenceWeekly:
		if spec.DayOfWeek == nil {
			return nil, fmt.Errorf("weekly recurrence requires day_of_week")
		}
		return NewWeekly(*spec.DayOfWeek)
	case constants.RecurrenceBiweekly:
		if spec.DayOfWeek == nil {
			return nil, fmt.Errorf("biweekly recurrence requires day_of_week")
		}
		ref, err := calendar.Parse(spec.ReferenceDate)
		if err != nil {
			return nil, fmt.Errorf("biweekly reference_date: %w", err)
		}
		return NewBiweekly(*spec.DayOfWeek, ref)
	default:
		return Unknown{Tag: string(spec.Type)}, nil
	}
}
