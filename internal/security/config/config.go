package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	goversion "github.com/hashicorp/go-version"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// envPrefix is stripped from every environment variable before mapping.
const envPrefix = "CDSEC_"

// AppConfig holds the daemon configuration.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log       LogConfig       `koanf:"log"`
	HTTP      HTTPConfig      `koanf:"http"`
	BlockList BlockListConfig `koanf:"blocklist"`
	Host      HostConfig      `koanf:"host"`
	Plugin    PluginConfig    `koanf:"plugin"`
	Update    UpdateConfig    `koanf:"update"`
	Settings  SettingsConfig  `koanf:"settings"`
	Journal   JournalConfig   `koanf:"journal"`
}

type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type HTTPConfig struct {
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`
}

// BlockListConfig points at the published CSV export of the block list.
type BlockListConfig struct {
	URL string `koanf:"url" validate:"required,url"`
	// Timeout bounds the CSV fetch. Zero leaves the HTTP client unbounded.
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// HostConfig locates the host site's user directory API.
type HostConfig struct {
	URL   string `koanf:"url" validate:"required,url"`
	Token string `koanf:"token"`
}

// PluginConfig identifies this installation to the update endpoint.
type PluginConfig struct {
	Slug    string `koanf:"slug" validate:"required"`
	Version string `koanf:"version" validate:"required,semver"`
}

type UpdateConfig struct {
	URL string `koanf:"url" validate:"required,url"`
	// Schedule is a standard cron expression or descriptor ("@every 12h").
	Schedule string `koanf:"schedule" validate:"required,cron"`
}

type SettingsConfig struct {
	// DB is the path of the bbolt file holding persisted settings.
	DB string `koanf:"db" validate:"required"`
}

type JournalConfig struct {
	// Size is how many recent decisions are kept for the admin API.
	Size int `koanf:"size" validate:"required,gte=1"`
}

// DEFAULT_APP_CONFIG defines the defaults every environment variable overrides.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:  "prod",
	Log:  LogConfig{Level: "info"},
	HTTP: HTTPConfig{Port: 8080},
	BlockList: BlockListConfig{
		URL: "https://docs.google.com/spreadsheets/d/1iO9mqsqWqkESMdvcoYIWtCjT6BM_w30V04dWwaXqJlI/pub?output=csv",
	},
	Host: HostConfig{URL: "http://localhost/wp-json/cd-security/v1"},
	Plugin: PluginConfig{
		Slug:    "cd-security",
		Version: "1.0",
	},
	Update: UpdateConfig{
		URL:      "https://srv702-files.hstgr.io/f97f20b073621030/files/public_html/CD%20Security/plugin-update.php",
		Schedule: "@every 12h",
	},
	Settings: SettingsConfig{DB: "/var/lib/cd-security/settings.db"},
	Journal:  JournalConfig{Size: 256},
}

// envKeys maps the lowercased, prefix-stripped variable name to its koanf path.
// Unknown variables are ignored.
var envKeys = map[string]string{
	"env":               "env",
	"log_level":         "log.level",
	"http_port":         "http.port",
	"blocklist_url":     "blocklist.url",
	"blocklist_timeout": "blocklist.timeout",
	"host_url":          "host.url",
	"host_token":        "host.token",
	"plugin_slug":       "plugin.slug",
	"plugin_version":    "plugin.version",
	"update_url":        "update.url",
	"update_schedule":   "update.schedule",
	"settings_db":       "settings.db",
	"journal_size":      "journal.size",
}

// envLoader loads CDSEC_ variables; replaceable in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envKeys[strings.ToLower(strings.TrimPrefix(key, envPrefix))]
			if !ok {
				return "", nil
			}
			return path, strings.TrimSpace(value)
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// validCron accepts anything robfig/cron's standard parser accepts.
func validCron(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validSemver accepts dotted version strings such as "1.0" or "2.3.1-beta".
func validSemver(fl validator.FieldLevel) bool {
	_, err := goversion.NewVersion(fl.Field().String())
	return err == nil
}

var registerValidation = func(v *validator.Validate) error {
	if err := v.RegisterValidation("cron", validCron); err != nil {
		return err
	}
	return v.RegisterValidation("semver", validSemver)
}

// Load applies defaults, then CDSEC_ environment overrides, and validates
// the result.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
