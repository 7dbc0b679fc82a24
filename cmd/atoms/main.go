package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/cli/backups"
	"github.com/julianstephens/atoms/internal/cli/exports"
	"github.com/julianstephens/atoms/internal/cli/habits"
	"github.com/julianstephens/atoms/internal/cli/remote"
	"github.com/julianstephens/atoms/internal/cli/routines"
	"github.com/julianstephens/atoms/internal/cli/settings"
	"github.com/julianstephens/atoms/internal/cli/system"
	"github.com/julianstephens/atoms/internal/cli/views"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/errors"
	"github.com/julianstephens/atoms/internal/logger"
	"github.com/julianstephens/atoms/internal/storage/postgres"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Store path (.db for SQLite, .json for a JSON file) or PostgreSQL connection string. Passwords must not be embedded; use the keyring, PGPASSWORD or .pgpass." type:"string" default:"${config}"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init     system.InitCmd     `cmd:"" help:"Initialize atoms storage."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd      `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Validate system.ValidateCmd `cmd:"" help:"Validate habits, routines and settings."`

	Habit   habits.HabitCmd     `cmd:"" help:"Manage habits."`
	Mark    habits.MarkCmd      `cmd:"" help:"Mark a habit done (or undone) for a day."`
	Today   views.TodayCmd      `cmd:"" help:"Show habits scheduled for a day."`
	Week    views.WeekCmd       `cmd:"" help:"Show the week containing a day."`
	Heatmap views.HeatmapCmd    `cmd:"" help:"Show a completion heatmap."`
	Stats   views.StatsCmd      `cmd:"" help:"Show streaks and completion rates."`
	Routine routines.RoutineCmd `cmd:"" help:"Manage routines."`

	Export exports.ExportCmd `cmd:"" help:"Export all data as YAML."`
	Import exports.ImportCmd `cmd:"" help:"Import data from a YAML export."`

	Sync   remote.SyncCmd   `cmd:"" help:"Push queued changes to the remote store."`
	Remote remote.RemoteCmd `cmd:"" help:"Configure the remote PostgreSQL store."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Atomic habit tracker: recurring habits, streaks and heatmaps"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": constants.Version,
			"config":  constants.DefaultConfigPath,
		},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir(CLI.Config)}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := cli.OpenStore(CLI.Config)
	if err != nil {
		if stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
			err = errors.WithHint(err, "store the password with 'atoms remote set-dsn', PGPASSWORD or a .pgpass file")
		}
		errors.Fatal(err)
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store:      store,
		OpenRemote: cli.OpenRemoteStore,
	}

	// init handles its own loading
	if ctx.Selected() != nil && ctx.Selected().Name != "init" {
		if err := store.Load(); err != nil {
			store.Close()
			errors.Fatal(err)
		}
	}

	logger.Debug("running command", "command", ctx.Command(), "store", store.GetConfigPath())
	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		errors.Fatal(err)
	}
}

// configDir is where logs and the sync lock live: beside a local store, or
// the default config directory for a PostgreSQL store.
func configDir(config string) string {
	if postgres.IsConnString(config) {
		config = constants.DefaultConfigPath
	}
	path, err := cli.ExpandPath(config)
	if err != nil {
		return "."
	}
	return filepath.Dir(path)
}
