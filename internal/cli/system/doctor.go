package system

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/atoms/internal/backup"
	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/storage/sqlite"
	"github.com/julianstephens/atoms/internal/syncer"
	"github.com/julianstephens/atoms/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(*cli.Context) error
	// warn marks checks whose failure is reported but does not fail doctor.
	warn bool
}

var checks = []check{
	{name: "Schema version", run: checkSchemaVersion},
	{name: "Migrations complete", run: checkMigrationsComplete},
	{name: "Backups present", run: checkBackupsPresent, warn: true},
	{name: "Settings", run: checkSettings},
	{name: "Data validation", run: checkValidation},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Completion integrity", run: checkCompletions},
	{name: "Sync queue", run: checkSyncQueue, warn: true},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	reachable := true
	if err := checkStoreReachable(ctx); err != nil {
		fmt.Printf("❌ Store reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
		reachable = false
	} else {
		fmt.Printf("✓ Store reachable: OK\n")
	}

	for _, c := range checks {
		if !reachable {
			fmt.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warn:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

type dbStore interface {
	DB() *sql.DB
}

type versionedStore interface {
	SchemaVersion() (current, latest int, err error)
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	if s, ok := ctx.Store.(dbStore); ok {
		db := s.DB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	s, ok := ctx.Store.(versionedStore)
	if !ok {
		return nil
	}
	current, latest, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	s, ok := ctx.Store.(versionedStore)
	if !ok {
		return nil
	}
	current, latest, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'atoms migrate')", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'atoms backup create'")
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return validation.Settings(settings)
}

func checkValidation(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(true, true)
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	routines, err := ctx.Store.GetAllRoutines()
	if err != nil {
		return fmt.Errorf("failed to get routines: %w", err)
	}

	ids := make(map[string]bool, len(habits))
	for _, h := range habits {
		if ids[h.ID] {
			return fmt.Errorf("duplicate habit ID found: %s", h.ID)
		}
		ids[h.ID] = true
	}

	result := validation.New().Validate(habits, routines, nil)
	if result.HasConflicts() {
		return fmt.Errorf("%d conflict(s) found (run 'atoms validate' for details)", len(result.Conflicts))
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	clock, err := calendar.NewClock(settings.Timezone)
	if err != nil {
		return err
	}

	now := clock.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkCompletions(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(true, true)
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	known := make(map[string]bool, len(habits))
	for _, h := range habits {
		known[h.ID] = true
	}

	records, err := ctx.Store.GetAllCompletions()
	if err != nil {
		return fmt.Errorf("failed to get completions: %w", err)
	}

	orphaned, badDates := 0, 0
	for _, rec := range records {
		if !known[rec.HabitID] {
			orphaned++
		}
		if !calendar.ValidateDate(rec.Day) {
			badDates++
		}
	}
	if orphaned > 0 {
		return fmt.Errorf("found %d orphaned completions (referencing non-existent habits)", orphaned)
	}
	if badDates > 0 {
		return fmt.Errorf("found %d completions with invalid date format", badDates)
	}
	return nil
}

func checkSyncQueue(ctx *cli.Context) error {
	queue, ok := ctx.Store.(syncer.Queue)
	if !ok {
		return nil
	}
	_, failed, err := queue.CountChanges()
	if err != nil {
		return fmt.Errorf("failed to read sync queue: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d change(s) failed to sync - run 'atoms sync retry'", failed)
	}
	return nil
}
