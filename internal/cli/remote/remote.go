package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/keyring"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/storage/postgres"
)

type RemoteCmd struct {
	SetDsn   RemoteSetDSNCmd   `cmd:"" name:"set-dsn" help:"Store the remote PostgreSQL connection string in the OS keyring."`
	ClearDsn RemoteClearDSNCmd `cmd:"" name:"clear-dsn" help:"Remove the remote connection string from the OS keyring."`
	Status   RemoteStatusCmd   `cmd:"" help:"Show where the remote connection string comes from."`
	Init     RemoteInitCmd     `cmd:"" help:"Create the remote schema and push all local data."`
}

// RemoteSetDSNCmd stores the remote connection string in the OS keyring
type RemoteSetDSNCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *RemoteSetDSNCmd) Run(ctx *cli.Context) error {
	if !postgres.IsConnString(cmd.ConnectionString) && !strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		fmt.Println("⚠️  Warning: Connection string contains embedded credentials.")
		fmt.Println("   It will be stored as-is in the encrypted OS keyring.")
		fmt.Println("   If you prefer to keep passwords separate, consider using .pgpass instead.")
	}

	if err := keyring.SetRemoteDSN(cmd.ConnectionString); err != nil {
		return err
	}

	fmt.Println("✓ Remote connection string stored in OS keyring")
	fmt.Println("  Run 'atoms remote init' to create the remote schema")
	return nil
}

// RemoteClearDSNCmd removes the remote connection string from the OS keyring
type RemoteClearDSNCmd struct{}

func (cmd *RemoteClearDSNCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteRemoteDSN(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no remote connection string found in keyring")
		}
		return err
	}
	fmt.Println("✓ Remote connection string deleted from OS keyring")
	return nil
}

// RemoteStatusCmd reports the resolved DSN (masked) and keyring availability
type RemoteStatusCmd struct{}

func (cmd *RemoteStatusCmd) Run(ctx *cli.Context) error {
	if keyring.IsAvailable() {
		fmt.Println("✓ OS keyring is available")
	} else {
		fmt.Println("❌ OS keyring is not available on this system")
	}

	dsn, source, err := keyring.ResolveRemoteDSN()
	switch {
	case err == nil:
		fmt.Printf("✓ Remote connection string (%s): %s\n", source, maskPassword(dsn))
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Println("ℹ No remote connection string configured")
	default:
		fmt.Printf("❌ Failed to resolve remote connection string: %v\n", err)
	}

	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	if settings.SyncEnabled {
		fmt.Println("✓ Sync is enabled")
	} else {
		fmt.Println("ℹ Sync is disabled (atoms settings --set sync_enabled=true)")
	}
	return nil
}

// RemoteInitCmd creates the remote schema and uploads every local habit,
// routine and completion. Completions merge by timestamp, so rerunning it
// never overwrites newer remote entries.
type RemoteInitCmd struct{}

func (cmd *RemoteInitCmd) Run(ctx *cli.Context) error {
	remote, err := cli.RemoteStore()
	if err != nil {
		return err
	}
	if err := remote.Init(); err != nil {
		return fmt.Errorf("failed to initialize remote store: %w", err)
	}
	defer remote.Close()
	fmt.Println("Initialized remote schema")

	summary, err := push(ctx.Store, remote)
	if err != nil {
		return err
	}
	fmt.Printf("Pushed %d habits, %d routines, %d completions\n", summary.habits, summary.routines, summary.completions)
	return nil
}

type pushSummary struct {
	habits, routines, completions int
}

type merger interface {
	MergeCompletion(models.CompletionRecord) error
}

func push(local, remote storage.Provider) (pushSummary, error) {
	var sum pushSummary

	habits, err := local.GetAllHabits(true, true)
	if err != nil {
		return sum, fmt.Errorf("failed to load habits: %w", err)
	}
	for _, h := range habits {
		if err := remote.UpdateHabit(h); err != nil {
			return sum, fmt.Errorf("failed to push habit %s: %w", h.ID, err)
		}
		sum.habits++
	}

	routines, err := local.GetAllRoutines()
	if err != nil {
		return sum, fmt.Errorf("failed to load routines: %w", err)
	}
	for _, r := range routines {
		if err := remote.UpdateRoutine(r); err != nil {
			return sum, fmt.Errorf("failed to push routine %s: %w", r.ID, err)
		}
		sum.routines++
	}

	records, err := local.GetAllCompletions()
	if err != nil {
		return sum, fmt.Errorf("failed to load completions: %w", err)
	}
	m, canMerge := remote.(merger)
	for _, rec := range records {
		if canMerge && !rec.UpdatedAt.IsZero() {
			err = m.MergeCompletion(rec)
		} else {
			err = remote.SetCompletion(rec.HabitID, rec.Day, rec.Completed)
		}
		if err != nil {
			return sum, fmt.Errorf("failed to push completion %s/%s: %w", rec.HabitID, rec.Day, err)
		}
		sum.completions++
	}
	return sum, nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if postgres.IsConnString(connStr) {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		masked := make([]string, 0, len(parts))
		for _, part := range parts {
			if strings.HasPrefix(part, "password=") {
				masked = append(masked, "password=****")
			} else {
				masked = append(masked, part)
			}
		}
		return strings.Join(masked, " ")
	}

	return connStr
}
