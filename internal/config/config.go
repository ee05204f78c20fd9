// Package config loads verus-etags settings from .verus-etags.toml, the
// environment and command-line flags.
package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"verus-etags/internal/errors"
	"verus-etags/internal/slogutil"
	"verus-etags/internal/tags"
)

const (
	// FileName is the configuration file looked up in the working directory.
	FileName = ".verus-etags.toml"
	// EnvPrefix prefixes environment overrides, e.g. VERUS_ETAGS_OUTPUT.
	EnvPrefix = "VERUS_ETAGS"
)

// Config represents the complete verus-etags configuration
type Config struct {
	Output         string   `json:"output" mapstructure:"output" toml:"output"`
	Append         bool     `json:"append" mapstructure:"append" toml:"append"`
	Recurse        bool     `json:"recurse" mapstructure:"recurse" toml:"recurse"`
	FollowSymlinks bool     `json:"followSymlinks" mapstructure:"follow_symlinks" toml:"follow_symlinks"`
	Sort           int      `json:"sort" mapstructure:"sort" toml:"sort"`
	Workers        int      `json:"workers" mapstructure:"workers" toml:"workers"`
	Extensions     []string `json:"extensions" mapstructure:"extensions" toml:"extensions"`
	Ignore         []string `json:"ignore" mapstructure:"ignore" toml:"ignore"`
	Macros         []string `json:"macros" mapstructure:"macros" toml:"macros"`

	Cache   CacheConfig   `json:"cache" mapstructure:"cache" toml:"cache"`
	Scip    ScipConfig    `json:"scip" mapstructure:"scip" toml:"scip"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging" toml:"logging"`
}

// CacheConfig contains tag cache configuration
type CacheConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" toml:"enabled"`
	Path    string `json:"path" mapstructure:"path" toml:"path"`
}

// ScipConfig contains SCIP export configuration. An empty Output disables
// the export.
type ScipConfig struct {
	Output string `json:"output" mapstructure:"output" toml:"output"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level" toml:"level"`
	File  string `json:"file" mapstructure:"file" toml:"file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Output:         "TAGS",
		Recurse:        true,
		FollowSymlinks: true,
		Sort:           int(tags.Sorted),
		Extensions:     []string{".rs"},
		Ignore:         []string{},
		Macros:         append([]string(nil), tags.DefaultMacros...),
		Cache: CacheConfig{
			Path: filepath.Join(".verus-etags", "cache.db"),
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// New returns a viper instance carrying the defaults, environment binding
// and the configuration file to read. file overrides the lookup of
// FileName in dir.
func New(dir, file string) *viper.Viper {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("output", d.Output)
	v.SetDefault("append", d.Append)
	v.SetDefault("recurse", d.Recurse)
	v.SetDefault("follow_symlinks", d.FollowSymlinks)
	v.SetDefault("sort", d.Sort)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("ignore", d.Ignore)
	v.SetDefault("macros", d.Macros)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("scip.output", d.Scip.Output)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigFile(filepath.Join(dir, FileName))
	}
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file (a missing file is not an error unless
// it was named explicitly), applies overrides and validates the result.
func Load(v *viper.Viper, explicit bool) (*Config, error) {
	if err := v.ReadInConfig(); err != nil && (explicit || !isNotFound(err)) {
		return nil, errors.ForPath(errors.ConfigInvalid, v.ConfigFileUsed(), "failed to read configuration", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ForPath(errors.ConfigInvalid, v.ConfigFileUsed(), "failed to decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// Save writes the configuration as TOML to path.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.ForPath(errors.ConfigInvalid, path, "failed to create directory", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.ForPath(errors.ConfigInvalid, path, "failed to create configuration file", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		_ = f.Close()
		return errors.ForPath(errors.ConfigInvalid, path, "failed to encode configuration", err)
	}
	if err := f.Close(); err != nil {
		return errors.ForPath(errors.ConfigInvalid, path, "failed to write configuration file", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var fe *FieldError
	switch {
	case c.Output == "":
		fe = &FieldError{Field: "output", Message: "must not be empty"}
	case c.Sort < 0 || c.Sort > 2:
		fe = &FieldError{Field: "sort", Message: "must be 0, 1 or 2"}
	case c.Workers < 0:
		fe = &FieldError{Field: "workers", Message: "must not be negative"}
	case len(c.Extensions) == 0:
		fe = &FieldError{Field: "extensions", Message: "must list at least one extension"}
	case c.Cache.Enabled && c.Cache.Path == "":
		fe = &FieldError{Field: "cache.path", Message: "required when the cache is enabled"}
	}
	if fe == nil && c.Logging.Level != "" {
		if _, ok := slogutil.LevelFromString(c.Logging.Level); !ok {
			fe = &FieldError{Field: "logging.level", Message: "unknown level " + c.Logging.Level}
		}
	}
	if fe != nil {
		return errors.New(errors.ConfigInvalid, "invalid configuration", fe)
	}
	return nil
}

// FieldError represents a configuration error
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
