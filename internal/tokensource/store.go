package tokensource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

// ErrNoKey is returned when a store holds no API key.
var ErrNoKey = errors.New("no API key stored")

// Store reads and writes the API key. Writing an empty key removes it.
type Store interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, key string) error
}

// EnvStore reads the key from an environment variable. It cannot be written.
type EnvStore struct {
	Var string
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

func (s EnvStore) Read(ctx context.Context) (string, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	key, _ := lookup(s.Var)
	if key = strings.TrimSpace(key); key == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrNoKey, s.Var)
	}
	return key, nil
}

func (s EnvStore) Write(ctx context.Context, key string) error {
	return fmt.Errorf("environment variable %s cannot be written, set it in the shell instead", s.Var)
}

// FileStore keeps the key in a file readable only by the owner.
type FileStore struct {
	Path string
}

func (s FileStore) Read(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s does not exist", ErrNoKey, s.Path)
	}
	if err != nil {
		return "", fmt.Errorf("read key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoKey, s.Path)
	}
	return key, nil
}

func (s FileStore) Write(ctx context.Context, key string) error {
	if key == "" {
		if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove key file: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	// Write to a temporary file first so readers never see a partial key.
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".api_key-*")
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("restrict key file: %w", err)
	}
	if _, err := tmp.WriteString(key + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace key file: %w", err)
	}
	return nil
}

// KeyringStore keeps the key in the OS keyring (Keychain, Secret Service, Credential Manager).
type KeyringStore struct {
	Service string
	User    string
}

func (s KeyringStore) Read(ctx context.Context) (string, error) {
	key, err := keyring.Get(s.Service, s.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: no keyring entry for %s", ErrNoKey, s.Service)
	}
	if err != nil {
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return key, nil
}

func (s KeyringStore) Write(ctx context.Context, key string) error {
	if key == "" {
		if err := keyring.Delete(s.Service, s.User); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("delete keyring entry: %w", err)
		}
		return nil
	}
	if err := keyring.Set(s.Service, s.User, key); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}
