package keyring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/atoms/internal/constants"
)

var (
	// ErrNotFound is returned when no remote DSN is stored
	ErrNotFound = errors.New("remote connection string not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Source names where a resolved DSN came from.
type Source string

const (
	SourceEnv     Source = "environment"
	SourceKeyring Source = "keyring"
)

// GetRemoteDSN retrieves the remote PostgreSQL connection string from the OS keyring.
func GetRemoteDSN() (string, error) {
	dsn, err := keyring.Get(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return dsn, nil
}

// SetRemoteDSN stores the remote connection string in the OS keyring.
func SetRemoteDSN(dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, constants.DefaultKeyringUser, dsn); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}
	return nil
}

// DeleteRemoteDSN removes the remote connection string from the OS keyring.
func DeleteRemoteDSN() error {
	err := keyring.Delete(constants.AppName, constants.DefaultKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	return nil
}

// ResolveRemoteDSN returns the remote DSN from ATOMS_REMOTE_DSN if set,
// otherwise from the keyring.
func ResolveRemoteDSN() (string, Source, error) {
	if dsn := strings.TrimSpace(os.Getenv(constants.RemoteDSNEnvVar)); dsn != "" {
		return dsn, SourceEnv, nil
	}
	dsn, err := GetRemoteDSN()
	if err != nil {
		return "", "", err
	}
	return dsn, SourceKeyring, nil
}

// IsAvailable reports whether the OS keyring answers a read. Best effort.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
