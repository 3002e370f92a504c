// Package config loads the settings of gitstamp.
//
// Settings come from a gitstamp.yaml file, overridden by GITSTAMP_* environment variables.
// The file is looked up in the current directory, then in $HOME/.gitstamp and /etc/gitstamp,
// unless GITSTAMP_CONFIG points to it.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/oneconcern/gitstamp/pkg/dlogger"
	"github.com/oneconcern/gitstamp/pkg/errors"
	"github.com/oneconcern/gitstamp/pkg/model"
)

const (
	// EnvPrefix of the environment variables overriding settings
	EnvPrefix = "GITSTAMP"

	// EnvConfig is the environment variable holding an explicit config file
	EnvConfig = "GITSTAMP_CONFIG"

	// Name of the config file, without extension
	Name = "gitstamp"

	// DefaultAuthorName signs ledger commits when no author is configured
	DefaultAuthorName = "gitstamp"

	// DefaultAuthorEmail signs ledger commits when no author is configured
	DefaultAuthorEmail = "gitstamp@localhost"
)

// Config of gitstamp
type Config struct {
	// bug in viper? Need to keep names of fields the same as the serialized names..
	Authority Authority `json:"authority" yaml:"authority" mapstructure:"authority"`
	Ledger    Ledger    `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	LogLevel  string    `json:"loglevel" yaml:"loglevel" mapstructure:"loglevel"`
}

// Authority describes how to reach and trust the timestamp authority
type Authority struct {
	URL         string `json:"url" yaml:"url" mapstructure:"url"`
	Certificate string `json:"certificate" yaml:"certificate" mapstructure:"certificate"` // PEM trust anchor
	Insecure    bool   `json:"insecure,omitempty" yaml:"insecure,omitempty" mapstructure:"insecure"`
}

// Ledger settings
type Ledger struct {
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	Author Author `json:"author" yaml:"author" mapstructure:"author"`
}

// Author signs ledger commits
type Author struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Email string `json:"email" yaml:"email" mapstructure:"email"`
}

// Setup declares defaults, config file locations and environment overrides on a viper instance.
//
// The config file is read from fs.
func Setup(v *viper.Viper, fs afero.Fs) {
	v.SetFs(fs)

	v.SetDefault("authority.url", "")
	v.SetDefault("authority.certificate", "")
	v.SetDefault("authority.insecure", false)
	v.SetDefault("ledger.prefix", model.DefaultLedgerPrefix)
	v.SetDefault("ledger.author.name", DefaultAuthorName)
	v.SetDefault("ledger.author.email", DefaultAuthorEmail)
	v.SetDefault("loglevel", dlogger.LogLevelWarn)

	if file := os.Getenv(EnvConfig); file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", "."+Name))
		v.AddConfigPath(filepath.Join("/etc", Name))
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Read the config file, if any, and returns the file used.
//
// A missing config file is not an error: settings then come from defaults and environment.
func Read(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", ErrConfig.Wrap(err)
	}
	return v.ConfigFileUsed(), nil
}

// New config from the settings of a viper instance
func New(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, ErrConfig.Wrap(err)
	}
	return &c, nil
}

// Validate settings. Settings to reach the authority are only required to append.
func (c *Config) Validate(appending bool) error {
	if err := model.ValidatePrefix(c.Ledger.Prefix); err != nil {
		return ErrConfig.Wrapf("ledger.prefix %q: %v", c.Ledger.Prefix, err)
	}
	if _, err := dlogger.GetLogger(c.LogLevel); err != nil {
		return ErrConfig.Wrapf("loglevel %q: %v", c.LogLevel, err)
	}
	if !appending {
		return nil
	}
	if c.Authority.URL == "" {
		return ErrConfig.Wrapf("authority.url is required")
	}
	if c.Authority.Certificate == "" {
		return ErrConfig.Wrapf("authority.certificate is required")
	}
	return nil
}
