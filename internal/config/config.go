// Package config loads the storefront configuration from config.yaml in the
// config directory, an optional .env file, and STOREFRONT_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envFileName    = ".env"
	envPrefix      = "STOREFRONT"
)

// Config keys.
const (
	KeyAPIURL         = "api_url"
	KeyDataDir        = "data_dir"
	KeyTimeout        = "timeout"
	KeyRefreshTimeout = "refresh_timeout"
	KeyRateLimit      = "rate_limit"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyLocale         = "locale"
	KeyCurrency       = "currency"
	KeyNotifications  = "notifications"
	KeySyncStrategy   = "sync_strategy"
)

// Defaults.
const (
	DefaultAPIURL         = "http://localhost:8080"
	DefaultTimeout        = 30 * time.Second
	DefaultRefreshTimeout = 30 * time.Second
	DefaultLogLevel       = "warn"
	DefaultLogFormat      = "console"
	DefaultLocale         = "id-ID"
	DefaultCurrency       = "IDR"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the effective storefront configuration.
type Config struct {
	APIURL         string        `mapstructure:"api_url" yaml:"api_url" validate:"required,url"`
	DataDir        string        `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"-" validate:"gt=0"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout" yaml:"-" validate:"gt=0"`
	RateLimit      float64       `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat      string        `mapstructure:"log_format" yaml:"log_format" validate:"oneof=console json"`
	Locale         string        `mapstructure:"locale" yaml:"locale" validate:"required,bcp47_language_tag"`
	Currency       string        `mapstructure:"currency" yaml:"currency" validate:"required,iso4217"`
	Notifications  bool          `mapstructure:"notifications" yaml:"notifications"`
	SyncStrategy   string        `mapstructure:"sync_strategy" yaml:"sync_strategy" validate:"oneof=immediate on_close"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		Timeout:        DefaultTimeout,
		RefreshTimeout: DefaultRefreshTimeout,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		Locale:         DefaultLocale,
		Currency:       DefaultCurrency,
		Notifications:  true,
		SyncStrategy:   types.SyncImmediate,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails %q (got %v)", ErrInvalid, fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Storage returns the client-local storage settings for dataDir.
func (c Config) Storage(dataDir string) types.StorageConfig {
	return types.StorageConfig{
		Backend:      types.BackendSQLite,
		DataDir:      dataDir,
		SyncStrategy: c.SyncStrategy,
	}
}

// Load reads the configuration for configDir. It creates the directory and
// a default config.yaml on first run; a .env file in configDir or the
// working directory seeds environment variables that are not already set.
func Load(configDir string) (*Config, error) {
	if err := EnsureDefault(configDir); err != nil {
		return nil, err
	}
	if err := loadEnvFiles(filepath.Join(configDir, envFileName), envFileName); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyAPIURL, d.APIURL)
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyRefreshTimeout, d.RefreshTimeout)
	v.SetDefault(KeyRateLimit, d.RateLimit)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyLocale, d.Locale)
	v.SetDefault(KeyCurrency, d.Currency)
	v.SetDefault(KeyNotifications, d.Notifications)
	v.SetDefault(KeySyncStrategy, d.SyncStrategy)
}

// loadEnvFiles loads each existing file with godotenv. Missing files are
// skipped.
func loadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// EnsureDefault creates configDir and writes a default config.yaml when none
// exists. An existing file is left untouched.
func EnsureDefault(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return Default().WriteFile(path)
}

// WriteFile writes c as YAML to path.
func (c Config) WriteFile(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	header := []byte("# storefront configuration\n# Every key can be overridden with a STOREFRONT_<KEY> environment variable.\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}

// YAML encodes c. Durations are written in their string form, which is what
// viper decodes them from.
func (c Config) YAML() ([]byte, error) {
	type file struct {
		Config         `yaml:",inline"`
		Timeout        string `yaml:"timeout"`
		RefreshTimeout string `yaml:"refresh_timeout"`
	}
	data, err := yaml.Marshal(file{Config: c, Timeout: c.Timeout.String(), RefreshTimeout: c.RefreshTimeout.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
