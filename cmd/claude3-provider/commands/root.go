package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/claude3-provider/internal/app"
	"github.com/florianilch/claude3-provider/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	cmd := &cli.Command{
		Name:    "claude3-provider",
		Usage:   "OpenAI-compatible chat completions for Claude 3 on Anthropic and AWS Bedrock",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML config file (env: " + app.ConfigFileEnv + ")",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
			},
			&cli.StringFlag{
				Name:  "auth-storage",
				Usage: "API key storage (env|file|keyring)",
			},
		},
		Commands: []*cli.Command{
			proxyStartCommand(),
			authCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func proxyStartCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Starts the proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen address (host:port)",
			},
			&cli.StringFlag{
				Name:  "tool-calling",
				Usage: "tool calling mode (native|xml)",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "model catalog served on /v1/models (anthropic|bedrock)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Anthropic API base URL",
			},
			&cli.StringFlag{
				Name:  "bedrock-region",
				Usage: "AWS region for Bedrock models, defaults to the AWS configuration",
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "OpenTelemetry log exporter (none|stdout|otlp-grpc|otlp-http)",
			},
			&cli.StringFlag{
				Name:  "log-endpoint",
				Usage: "OTLP collector endpoint (host:port)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log request and response payloads",
			},
		},
		Action: proxyStartAction,
	}
}

func proxyStartAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	obsCfg, err := cfg.Log.Observability()
	if err != nil {
		return err
	}

	// Set up observability before creating app
	shutdownLogs, err := observability.Instrument(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}

	application, err := app.New(cfg, app.WithShutdownFunc(app.ShutdownFunc(shutdownLogs)))
	if err != nil {
		_ = shutdownLogs(context.Background())
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting", "version", cmd.Root().Version)

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}
