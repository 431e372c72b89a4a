// Package config resolves homestead settings from flags, the environment
// and an optional config file.
//
// Precedence, highest first: command-line flag, HOMESTEAD_* environment
// variable, config file, default. The config file is homestead.yaml (or
// .toml / .json) in the working directory unless --config names one.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. HOMESTEAD_DB.
const EnvPrefix = "HOMESTEAD"

// Keys.
const (
	KeyCatalog = "catalog"
	KeyDB      = "db"
	KeyStep    = "step"
	KeyFrames  = "frames"
	KeyVerbose = "verbose"
	KeyFormat  = "format"
	KeySession = "session"
)

// Defaults.
const (
	DefaultDB     = "homestead.db"
	DefaultStep   = 1.0 / 60
	DefaultFrames = 600
	DefaultFormat = "text"
)

// Formats are the accepted values of the format key.
var Formats = []string{"text", "json"}

// Config is the resolved configuration.
type Config struct {
	Catalog string  `mapstructure:"catalog"`
	DB      string  `mapstructure:"db"`
	Step    float64 `mapstructure:"step"`
	Frames  int     `mapstructure:"frames"`
	Verbose bool    `mapstructure:"verbose"`
	Format  string  `mapstructure:"format"`

	// Session resumes a stored session; empty starts a new one.
	Session string `mapstructure:"session"`
}

// New returns a viper instance with homestead's defaults and environment
// binding. Each command tree gets its own so tests don't share state.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Every key needs a default: Unmarshal only sees keys viper knows of.
	v.SetDefault(KeyCatalog, "")
	v.SetDefault(KeySession, "")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyDB, DefaultDB)
	v.SetDefault(KeyStep, DefaultStep)
	v.SetDefault(KeyFrames, DefaultFrames)
	v.SetDefault(KeyFormat, DefaultFormat)
	return v
}

// BindFlags binds each named flag in fs to the key of the same name.
// Flags fs does not define are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys ...string) error {
	for _, k := range keys {
		f := fs.Lookup(k)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(k, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", k, err)
		}
	}
	return nil
}

// Load reads the config file, if any, and resolves the configuration.
// path names an explicit file, which must exist; when empty, a homestead.*
// file in the working directory is used if present.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("homestead")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if !validFormat(c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, Formats)
	}
	if c.Step < 0 {
		return fmt.Errorf("invalid step %v: must be >= 0", c.Step)
	}
	if c.Frames < 0 {
		return fmt.Errorf("invalid frames %d: must be >= 0", c.Frames)
	}
	return nil
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}
