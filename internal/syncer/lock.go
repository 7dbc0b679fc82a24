package syncer

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/atoms/internal/logger"
)

var findProcessFunc = ps.FindProcess

// acquireLock creates path holding our PID. A lockfile whose PID is not a
// live process is stale and taken over.
func acquireLock(path string) (func(), error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(os.Getpid()))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write sync lock: %w", errors.Join(werr, cerr))
			}
			return func() { os.Remove(path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create sync lock: %w", err)
		}

		if lockHeld(path) {
			return nil, ErrSyncInProgress
		}
		logger.Warn("removing stale sync lock", "path", path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale sync lock: %w", err)
		}
	}
	return nil, ErrSyncInProgress
}

// lockHeld reports whether path names a live process.
func lockHeld(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return false
	}
	process, err := findProcessFunc(pid)
	return err == nil && process != nil
}
