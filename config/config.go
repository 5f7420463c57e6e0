package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix prefixes every environment override.
const DefaultEnvPrefix = "SUPPORTMESH"

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config is the complete supportmesh configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" env:"SERVER"`
	UI         UIConfig         `yaml:"ui" env:"UI"`
	Model      ModelConfig      `yaml:"model" env:"MODEL"`
	CodeAssist CodeAssistConfig `yaml:"codeassist" env:"CODEASSIST"`
	Team       TeamConfig       `yaml:"team" env:"TEAM"`
	Store      StoreConfig      `yaml:"store" env:"STORE"`
	Log        LogConfig        `yaml:"log" env:"LOG"`
	Metrics    MetricsConfig    `yaml:"metrics" env:"METRICS"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS"`
}

// UIConfig configures the web chat UI.
type UIConfig struct {
	Enabled    bool          `yaml:"enabled" env:"ENABLED"`
	Addr       string        `yaml:"addr" env:"ADDR"`
	BackendURL string        `yaml:"backend_url" env:"BACKEND_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// ModelConfig selects the chat model behind the support team.
type ModelConfig struct {
	Provider    string  `yaml:"provider" env:"PROVIDER"`
	Name        string  `yaml:"name" env:"NAME"`
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens   int64   `yaml:"max_tokens" env:"MAX_TOKENS"`
	APIKey      string  `yaml:"api_key" env:"API_KEY"`
	BaseURL     string  `yaml:"base_url" env:"BASE_URL"`
}

// CodeAssistConfig configures the code expert.
type CodeAssistConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Model   string `yaml:"model" env:"MODEL"`
	// LintCommand is the linter binary; empty disables linting.
	LintCommand string        `yaml:"lint_command" env:"LINT_COMMAND"`
	LintArgs    []string      `yaml:"lint_args" env:"LINT_ARGS"`
	LintTimeout time.Duration `yaml:"lint_timeout" env:"LINT_TIMEOUT"`
}

// TeamConfig tunes the support group chat.
type TeamConfig struct {
	MaxMessages          int    `yaml:"max_messages" env:"MAX_MESSAGES"`
	Sentinel             string `yaml:"sentinel" env:"SENTINEL"`
	Selector             string `yaml:"selector" env:"SELECTOR"`
	AllowRepeatedSpeaker bool   `yaml:"allow_repeated_speaker" env:"ALLOW_REPEATED_SPEAKER"`
	MaxSelectorAttempts  int    `yaml:"max_selector_attempts" env:"MAX_SELECTOR_ATTEMPTS"`
	// MaxTurns caps speaker turns; 0 means unlimited.
	MaxTurns int `yaml:"max_turns" env:"MAX_TURNS"`
}

// StoreConfig selects the product, order and complaint backend.
type StoreConfig struct {
	Backend string       `yaml:"backend" env:"BACKEND"`
	Seed    bool         `yaml:"seed" env:"SEED"`
	Redis   RedisConfig  `yaml:"redis" env:"REDIS"`
	SQLite  SQLiteConfig `yaml:"sqlite" env:"SQLITE"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr      string `yaml:"addr" env:"ADDR"`
	Password  string `yaml:"password" env:"PASSWORD"`
	DB        int    `yaml:"db" env:"DB"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	DSN string `yaml:"dsn" env:"DSN"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Path      string `yaml:"path" env:"PATH"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		UI: UIConfig{
			Addr:       ":8501",
			BackendURL: "http://localhost:8000/chat/",
			Timeout:    5 * time.Minute,
		},
		Model: ModelConfig{
			Provider: "openai",
			Name:     "gpt-4o",
		},
		CodeAssist: CodeAssistConfig{
			Enabled:     true,
			Model:       "gpt-4o-mini",
			LintCommand: "pylint",
			LintArgs:    []string{"--output-format=text"},
			LintTimeout: 30 * time.Second,
		},
		Team: TeamConfig{
			MaxMessages:          10,
			Sentinel:             "TERMINATE",
			Selector:             "model",
			AllowRepeatedSpeaker: true,
			MaxSelectorAttempts:  3,
		},
		Store: StoreConfig{
			Backend: StoreMemory,
			Seed:    true,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "supportmesh:",
			},
			SQLite: SQLiteConfig{DSN: "supportmesh.db"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "supportmesh",
		},
	}
}

// LoadOptions tunes Load.
type LoadOptions struct {
	EnvPrefix string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or the file does not exist) and environment overrides. The
// result is validated.
func Load(path string, optFns ...func(o *LoadOptions)) (*Config, error) {
	opts := LoadOptions{
		EnvPrefix: DefaultEnvPrefix,
		LookupEnv: os.LookupEnv,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), opts.EnvPrefix, opts.LookupEnv); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func setFieldsFromEnv(v reflect.Value, prefix string, lookup func(string) (string, bool)) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}

		key := prefix + "_" + tag

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, key, lookup); err != nil {
				return err
			}
			continue
		}

		value, ok := lookup(key)
		if !ok || value == "" {
			continue
		}

		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Model.Provider) {
	case "openai", "anthropic", "mock":
	default:
		errs = append(errs, fmt.Sprintf("unknown model.provider %q", c.Model.Provider))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, "model.temperature must be between 0 and 2")
	}
	if c.Model.MaxTokens < 0 {
		errs = append(errs, "model.max_tokens must not be negative")
	}

	switch strings.ToLower(c.Team.Selector) {
	case "model", "intent", "round_robin":
	default:
		errs = append(errs, fmt.Sprintf("unknown team.selector %q", c.Team.Selector))
	}
	if c.Team.MaxMessages <= 0 {
		errs = append(errs, "team.max_messages must be positive")
	}
	if c.Team.MaxSelectorAttempts <= 0 {
		errs = append(errs, "team.max_selector_attempts must be positive")
	}
	if c.Team.MaxTurns < 0 {
		errs = append(errs, "team.max_turns must not be negative")
	}
	if strings.TrimSpace(c.Team.Sentinel) == "" {
		errs = append(errs, "team.sentinel must not be empty")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, "store.redis.addr is required")
		}
	case StoreSQLite:
		if c.Store.SQLite.DSN == "" {
			errs = append(errs, "store.sqlite.dsn is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown store.backend %q", c.Store.Backend))
	}

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.UI.Enabled && c.UI.BackendURL == "" {
		errs = append(errs, "ui.backend_url is required when the UI is enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, "metrics.path must start with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}
