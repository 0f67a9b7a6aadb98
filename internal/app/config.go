package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/florianilch/claude3-provider/internal/observability"
	"github.com/florianilch/claude3-provider/internal/openaiadapter/anthropicclaude"
	"github.com/florianilch/claude3-provider/internal/tokensource"
)

// EnvPrefix prefixes environment overrides. Double underscores separate sections:
// CLAUDE3_UPSTREAM__TOOL_CALLING=xml sets upstream.tool_calling.
const EnvPrefix = "CLAUDE3_"

// ConfigFileEnv names the config file when --config is not given.
const ConfigFileEnv = EnvPrefix + "CONFIG"

// TokenStorageType selects where the API key is kept.
type TokenStorageType string

const (
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Config is the application configuration.
type Config struct {
	// Debug logs inbound, mapped and upstream payloads of every request.
	Debug    bool           `koanf:"debug"`
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Listen          string        `koanf:"listen" validate:"required,listen_addr"`
	MaxRequestBytes int64         `koanf:"max_request_bytes" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type UpstreamConfig struct {
	ToolCalling string `koanf:"tool_calling" validate:"oneof=native xml"`
	BaseURL     string `koanf:"base_url" validate:"required,url"`
	// Catalog selects the model listing served on /v1/models.
	Catalog            string       `koanf:"catalog" validate:"oneof=anthropic bedrock"`
	BedrockModelPrefix string       `koanf:"bedrock_model_prefix"`
	BedrockRegion      string       `koanf:"bedrock_region"`
	Native             NativeConfig `koanf:"native"`
}

type NativeConfig struct {
	SystemAsUserTurn bool   `koanf:"system_as_user_turn"`
	SystemPrompt     string `koanf:"system_prompt"`
}

type AuthConfig struct {
	Storage        TokenStorageType `koanf:"storage" validate:"oneof=env file keyring"`
	EnvVar         string           `koanf:"env_var" validate:"required_if=Storage env"`
	File           string           `koanf:"file" validate:"required_if=Storage file"`
	KeyringService string           `koanf:"keyring_service" validate:"required_if=Storage keyring"`
	ReloadInterval time.Duration    `koanf:"reload_interval" validate:"gte=0"`
}

type LogConfig struct {
	Level    string `koanf:"level" validate:"oneof=debug info warn error"`
	Format   string `koanf:"format" validate:"oneof=text json"`
	Exporter string `koanf:"exporter" validate:"oneof=none stdout otlp-grpc otlp-http"`
	Endpoint string `koanf:"endpoint"`
	Insecure bool   `koanf:"insecure"`
}

// keyringUser is the account name of the keyring entry.
const keyringUser = "api-key"

// defaults are the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"debug":                               false,
		"server.listen":                       "127.0.0.1:4000",
		"server.max_request_bytes":            int64(10 << 20),
		"server.write_timeout":                "10m",
		"server.shutdown_timeout":             "5s",
		"upstream.tool_calling":               string(anthropicclaude.ModeNative),
		"upstream.base_url":                   "https://api.anthropic.com",
		"upstream.catalog":                    "anthropic",
		"upstream.bedrock_model_prefix":       anthropicclaude.DefaultBedrockModelPrefix,
		"upstream.bedrock_region":             "",
		"upstream.native.system_as_user_turn": true,
		"upstream.native.system_prompt":       anthropicclaude.DefaultNativeSystemPrompt,
		"auth.storage":                        string(TokenStorageTypeEnv),
		"auth.env_var":                        "ANTHROPIC_API_KEY",
		"auth.file":                           "~/.config/claude3-provider/api_key",
		"auth.keyring_service":                "claude3-provider",
		"auth.reload_interval":                "5m",
		"log.level":                           "info",
		"log.format":                          "text",
		"log.exporter":                        observability.ExporterNone,
		"log.endpoint":                        "",
		"log.insecure":                        false,
	}
}

// LoadConfig layers defaults, the TOML file at path, CLAUDE3_* variables from environ and
// overrides (dotted keys, typically the CLI flags that were set), then validates.
// An empty path falls back to CLAUDE3_CONFIG; without either no file is read.
func LoadConfig(path string, overrides map[string]any, environ func() []string) (Config, error) {
	if environ == nil {
		environ = os.Environ
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = lookupEnv(environ, ConfigFileEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(expandHome(path)), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
		EnvironFunc:   environ,
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Auth.File = expandHome(cfg.Auth.File)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps CLAUDE3_UPSTREAM__TOOL_CALLING to upstream.tool_calling.
func envKey(k, v string) (string, any) {
	if k == ConfigFileEnv {
		return "", nil
	}
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.ReplaceAll(key, "__", "."), v
}

func lookupEnv(environ func() []string, name string) string {
	for _, kv := range environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k == name {
			return v
		}
	}
	return ""
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("listen_addr", validListenAddr); err != nil {
		return err
	}
	err := validate.Struct(c)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("invalid %s: %q fails %q", configKey(fe), fmt.Sprint(fe.Value()), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}

// validListenAddr accepts host:port with a port in 0-65535. Port 0 picks a free port.
func validListenAddr(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	_, err = strconv.ParseUint(port, 10, 16)
	return err == nil
}

// configKey renders a validation error's field as its dotted config key.
func configKey(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")[1:]
	for i, p := range parts {
		parts[i] = toSnake(p)
	}
	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NewTokenStore returns the configured API key store.
func (c AuthConfig) NewTokenStore() (tokensource.Store, error) {
	switch c.Storage {
	case TokenStorageTypeEnv:
		return tokensource.EnvStore{Var: c.EnvVar}, nil
	case TokenStorageTypeFile:
		return tokensource.FileStore{Path: c.File}, nil
	case TokenStorageTypeKeyring:
		return tokensource.KeyringStore{Service: c.KeyringService, User: keyringUser}, nil
	default:
		return nil, fmt.Errorf("unknown token storage %q", c.Storage)
	}
}

// Strategy returns the configured tool calling strategy.
func (c UpstreamConfig) Strategy() (anthropicclaude.ToolCallingStrategy, error) {
	mode, err := anthropicclaude.ParseMode(c.ToolCalling)
	if err != nil {
		return nil, err
	}
	if mode == anthropicclaude.ModeXML {
		return anthropicclaude.XMLPromptedToolCalling{}, nil
	}
	return anthropicclaude.NativeToolCalling{
		SystemAsUserTurn: c.Native.SystemAsUserTurn,
		BaseSystemPrompt: c.Native.SystemPrompt,
	}, nil
}

// Observability returns the logging pipeline configuration.
func (c LogConfig) Observability() (observability.Config, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return observability.Config{}, fmt.Errorf("invalid log level: %w", err)
	}
	return observability.Config{
		Level:       level,
		Format:      c.Format,
		Exporter:    c.Exporter,
		Endpoint:    c.Endpoint,
		Insecure:    c.Insecure,
		ServiceName: "claude3-provider",
	}, nil
}
