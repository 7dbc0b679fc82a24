package remote

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/constants"
)

type SyncCmd struct {
	RunCmd SyncRunCmd    `cmd:"" name:"run" default:"1" help:"Push pending changes to the remote store."`
	Status SyncStatusCmd `cmd:"" help:"Show the pending-change queue."`
	Retry  SyncRetryCmd  `cmd:"" help:"Requeue changes that exhausted their attempts."`
}

type SyncRunCmd struct {
	Timeout time.Duration `help:"Give up after this long (0 uses the default)."`
}

func (c *SyncRunCmd) Run(ctx *cli.Context) error {
	s, done, err := ctx.Syncer(true)
	if err != nil {
		return err
	}
	defer done()
	if s == nil {
		return fmt.Errorf("sync requires the SQLite store")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = constants.SyncRunTimeout
	}
	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, timeout)
	defer cancelTimeout()

	res, err := s.Drain(runCtx)
	if err != nil {
		return fmt.Errorf("sync failed after pushing %d change(s): %w", res.Pushed, err)
	}

	fmt.Printf("Pushed %d change(s)", res.Pushed)
	if res.Retried > 0 {
		fmt.Printf(", %d will be retried", res.Retried)
	}
	if res.Failed > 0 {
		fmt.Printf(", %d failed permanently (see 'atoms sync status')", res.Failed)
	}
	fmt.Println()
	return nil
}

type SyncStatusCmd struct {
	Verbose bool `short:"v" help:"List every queued change."`
}

func (c *SyncStatusCmd) Run(ctx *cli.Context) error {
	s, done, err := ctx.Syncer(false)
	if err != nil {
		return err
	}
	defer done()
	if s == nil {
		fmt.Println("This store has no sync queue.")
		return nil
	}

	st, err := s.Status()
	if err != nil {
		return err
	}
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	enabled := "disabled"
	if settings.SyncEnabled {
		enabled = "enabled"
	}
	fmt.Printf("Sync:     %s\n", enabled)
	fmt.Printf("Pending:  %d/%d\n", st.Pending+st.Failed, st.Capacity)
	fmt.Printf("Failed:   %d\n", st.Failed)
	if st.Running {
		fmt.Println("A sync is currently running.")
	}

	if !c.Verbose && st.Failed == 0 {
		return nil
	}
	fmt.Println()
	for _, ch := range st.Changes {
		if !c.Verbose && ch.Status != constants.ChangeFailed {
			continue
		}
		fmt.Printf("#%-5d %-15s %-10s attempts=%d", ch.ID, ch.Kind, ch.Status, ch.Attempts)
		if ch.Day != "" {
			fmt.Printf(" day=%s", ch.Day)
		}
		fmt.Printf(" habit=%s\n", ch.HabitID)
		if ch.LastError != "" {
			fmt.Printf("       last error: %s\n", ch.LastError)
		}
	}
	return nil
}

type SyncRetryCmd struct{}

func (c *SyncRetryCmd) Run(ctx *cli.Context) error {
	s, done, err := ctx.Syncer(false)
	if err != nil {
		return err
	}
	defer done()
	if s == nil {
		return fmt.Errorf("sync requires the SQLite store")
	}

	n, err := s.Retry()
	if err != nil {
		return err
	}
	fmt.Printf("Requeued %d failed change(s).\n", n)
	return nil
}
