// Package migration applies the numbered SQL files embedded for each SQL
// backend and records the applied schema version.
package migration

import (
	"cmp"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

// ErrSchemaTooNew means the database was migrated by a newer atoms build.
var ErrSchemaTooNew = errors.New("schema is newer than this atoms build")

// Step is one NNN_name.sql file.
type Step struct {
	Version int
	Name    string
	SQL     string
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type Runner struct {
	db    *sql.DB
	files fs.FS
	bind  string
}

// NewRunner reads steps from the root of files. The version column is bound
// with "?" unless WithPlaceholder says otherwise.
func NewRunner(db *sql.DB, files fs.FS) *Runner {
	return &Runner{db: db, files: files, bind: "?"}
}

// WithPlaceholder sets the bind parameter syntax, "$1" for PostgreSQL.
func (r *Runner) WithPlaceholder(p string) *Runner {
	r.bind = p
	return r
}

func (r *Runner) ensureTable() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}
	return nil
}

// writeVersion replaces the single schema_version row.
func (r *Runner) writeVersion(x execer, v int) error {
	if _, err := x.Exec(`DELETE FROM schema_version`); err != nil {
		return fmt.Errorf("failed to clear schema version: %w", err)
	}
	if _, err := x.Exec(`INSERT INTO schema_version (version) VALUES (`+r.bind+`)`, v); err != nil {
		return fmt.Errorf("failed to record schema version %d: %w", v, err)
	}
	return nil
}

// Current returns the applied version, 0 for an empty database.
func (r *Runner) Current() (int, error) {
	if err := r.ensureTable(); err != nil {
		return 0, err
	}
	var v int
	err := r.db.QueryRow(`SELECT version FROM schema_version`).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// SetCurrent overwrites the recorded version without running any step.
func (r *Runner) SetCurrent(v int) error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	return r.writeVersion(r.db, v)
}

func parseStepName(name string) (int, string, error) {
	num, label, ok := strings.Cut(strings.TrimSuffix(name, ".sql"), "_")
	if !ok || label == "" {
		return 0, "", fmt.Errorf("migration %s: name must look like 001_label.sql", name)
	}
	v, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", fmt.Errorf("migration %s: %q is not a version number", name, num)
	}
	if v < 1 {
		return 0, "", fmt.Errorf("migration %s: versions start at 1", name)
	}
	return v, label, nil
}

// Steps returns every migration file in version order.
func (r *Runner) Steps() ([]Step, error) {
	names, err := fs.Glob(r.files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	steps := make([]Step, 0, len(names))
	seen := make(map[int]string, len(names))
	for _, name := range names {
		v, label, err := parseStepName(path.Base(name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[v]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, name, v)
		}
		seen[v] = name

		body, err := fs.ReadFile(r.files, name)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
		steps = append(steps, Step{Version: v, Name: label, SQL: string(body)})
	}
	slices.SortFunc(steps, func(a, b Step) int { return cmp.Compare(a.Version, b.Version) })
	return steps, nil
}

// Status returns the applied version and the highest version on disk.
func (r *Runner) Status() (current, latest int, err error) {
	if current, err = r.Current(); err != nil {
		return 0, 0, err
	}
	steps, err := r.Steps()
	if err != nil {
		return 0, 0, err
	}
	if n := len(steps); n > 0 {
		latest = steps[n-1].Version
	}
	return current, latest, nil
}

func tooNew(current, latest int) error {
	return fmt.Errorf("%w: database is at version %d, this build knows up to %d; upgrade atoms", ErrSchemaTooNew, current, latest)
}

// Check fails with ErrSchemaTooNew when the database is ahead of the
// embedded steps.
func (r *Runner) Check() error {
	current, latest, err := r.Status()
	if err != nil {
		return err
	}
	if current > latest {
		return tooNew(current, latest)
	}
	return nil
}

// Apply runs every step above the current version, each in its own
// transaction together with its version bump. report receives progress
// lines and may be nil. It returns the number of steps applied.
func (r *Runner) Apply(report func(string)) (int, error) {
	if report == nil {
		report = func(string) {}
	}

	current, err := r.Current()
	if err != nil {
		return 0, err
	}
	steps, err := r.Steps()
	if err != nil {
		return 0, err
	}
	if len(steps) == 0 {
		return 0, nil
	}
	if latest := steps[len(steps)-1].Version; current > latest {
		return 0, tooNew(current, latest)
	}

	pending := slices.DeleteFunc(steps, func(s Step) bool { return s.Version <= current })
	if len(pending) == 0 {
		report(fmt.Sprintf("schema at version %d, nothing to apply", current))
		return 0, nil
	}

	report(fmt.Sprintf("migrating schema from version %d to %d", current, pending[len(pending)-1].Version))
	for i, step := range pending {
		if err := r.applyStep(step); err != nil {
			return i, err
		}
		report(fmt.Sprintf("applied %03d_%s", step.Version, step.Name))
	}
	return len(pending), nil
}

func (r *Runner) applyStep(step Step) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: %w", step.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(step.SQL); err != nil {
		return fmt.Errorf("migration %03d_%s failed: %w", step.Version, step.Name, err)
	}
	if err := r.writeVersion(tx, step.Version); err != nil {
		return fmt.Errorf("migration %d: %w", step.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: commit: %w", step.Version, err)
	}
	return nil
}
