package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/oneconcern/gitstamp/pkg/tsp"
)

// Anchor reads and checks the PEM trust anchor designated by authority.certificate.
//
// It returns nil when no certificate is configured.
func (c *Config) Anchor(fs afero.Fs) ([]byte, error) {
	if c.Authority.Certificate == "" {
		return nil, nil
	}
	path := os.ExpandEnv(c.Authority.Certificate)
	anchor, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, ErrConfig.Wrapf("authority.certificate: %v", err)
	}
	if _, err = tsp.ParseAnchor(anchor); err != nil {
		return nil, ErrConfig.Wrapf("authority.certificate %s: %v", path, err)
	}
	return anchor, nil
}

// DefaultPath is the location of the config file in the home directory of the user
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ErrConfig.Wrapf("could not get home directory for user: %v", err)
	}
	return filepath.Join(home, "."+Name, Name+".yaml"), nil
}

// Write a config file as YAML, creating its directory when needed
func Write(fs afero.Fs, path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ErrConfig.Wrapf("serialize config to yaml: %v", err)
	}
	if err = fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}
