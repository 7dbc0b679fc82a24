package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/atoms/internal/keyring"
	"github.com/julianstephens/atoms/internal/logger"
	"github.com/julianstephens/atoms/internal/storage"
	"github.com/julianstephens/atoms/internal/storage/jsonfile"
	"github.com/julianstephens/atoms/internal/storage/postgres"
	"github.com/julianstephens/atoms/internal/storage/sqlite"
)

// OpenStore picks a backend from the --config value: a postgres:// URL, a
// .json file, or a sqlite database path.
func OpenStore(config string) (storage.Provider, error) {
	if postgres.IsConnString(config) {
		if _, err := postgres.ValidateConnString(config); err != nil {
			return nil, err
		}
		return postgres.New(config), nil
	}

	path, err := ExpandPath(config)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return jsonfile.New(path), nil
	}
	return sqlite.NewStore(path), nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ErrNoRemoteDSN is returned when neither the environment nor the keyring
// holds a remote connection string.
var ErrNoRemoteDSN = errors.New("no remote connection string configured, run 'atoms remote set-dsn' first")

// RemoteStore resolves the remote DSN and returns the postgres store it
// names without connecting. Credentials embedded in a keyring or environment
// DSN are accepted.
func RemoteStore() (*postgres.Store, error) {
	dsn, source, err := keyring.ResolveRemoteDSN()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoRemoteDSN
		}
		return nil, err
	}
	if _, err := postgres.ValidateConnString(dsn); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
		return nil, fmt.Errorf("invalid remote connection string from %s: %w", source, err)
	}
	logger.Debug("resolved remote store", "source", source)
	return postgres.New(dsn), nil
}

// OpenRemoteStore connects to the remote store and checks its schema.
func OpenRemoteStore() (storage.Provider, error) {
	remote, err := RemoteStore()
	if err != nil {
		return nil, err
	}
	if err := remote.Load(); err != nil {
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}
	return remote, nil
}
