package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/claude3-provider/internal/app"
	"github.com/florianilch/claude3-provider/internal/tokensource"
)

// authCommand returns the 'auth' subcommand for managing the Anthropic API key.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Anthropic API key",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Save an Anthropic API key to the configured storage",
				Action: authLoginAction,
			},
			{
				Name:   "logout",
				Usage:  "Remove the API key from the configured storage",
				Action: authLogoutAction,
			},
			{
				Name:   "status",
				Usage:  "Show whether an API key is available",
				Action: authStatusAction,
			},
		},
	}
}

// writableStore returns the configured store, rejecting the read-only env storage.
func writableStore(cmd *cli.Command) (tokensource.Store, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Auth.Storage == app.TokenStorageTypeEnv {
		return nil, errors.New("env storage is read-only, configure file or keyring storage (--auth-storage)")
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}
	return store, nil
}

func authLoginAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableStore(cmd)
	if err != nil {
		return err
	}

	fmt.Println("=== Anthropic API Key ===")
	fmt.Println()
	fmt.Println("Create a key at https://console.anthropic.com/settings/keys")

	key, err := readSecureInput(ctx, "\nEnter API key: ")
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	if err := store.Write(ctx, key); err != nil {
		return fmt.Errorf("failed to write API key: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Login Successful ===")
	fmt.Println("API key saved to configured storage")

	return nil
}

func authLogoutAction(ctx context.Context, cmd *cli.Command) error {
	store, err := writableStore(cmd)
	if err != nil {
		return err
	}

	// Empty write removes the key from any store.
	if err := store.Write(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear API key: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Logout Successful ===")
	fmt.Println("API key removed from configured storage")

	return nil
}

func authStatusAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to create token store: %w", err)
	}

	key, err := store.Read(ctx)
	if err != nil {
		return fmt.Errorf("%s storage: %w", cfg.Auth.Storage, err)
	}
	fmt.Printf("%s storage: API key %s\n", cfg.Auth.Storage, maskKey(key))
	return nil
}

// maskKey keeps the first and last four characters of key.
func maskKey(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
