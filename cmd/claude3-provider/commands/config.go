package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/florianilch/claude3-provider/internal/app"
)

// flagKeys maps CLI flags to the config keys they override.
var flagKeys = map[string]string{
	"debug":          "debug",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-exporter":   "log.exporter",
	"log-endpoint":   "log.endpoint",
	"listen":         "server.listen",
	"tool-calling":   "upstream.tool_calling",
	"catalog":        "upstream.catalog",
	"base-url":       "upstream.base_url",
	"bedrock-region": "upstream.bedrock_region",
	"auth-storage":   "auth.storage",
}

// loadConfig loads the layered configuration. Only flags set on the command line
// override file and environment values.
func loadConfig(path string, cmd *cli.Command, environ func() []string) (app.Config, error) {
	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if cmd.IsSet(flag) {
			overrides[key] = cmd.Value(flag)
		}
	}
	return app.LoadConfig(path, overrides, environ)
}
