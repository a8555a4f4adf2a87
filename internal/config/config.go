// Package config loads and, on first run, creates the helper's TOML
// configuration file.
package config

import (
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// AppDirName is the directory name used under the platform config root.
	AppDirName = "INV4-Git"
	// ConfigFileName is the TOML file holding the recognized keys.
	ConfigFileName = "config.toml"
	// DefaultChainEndpoint is written into a freshly created config file.
	DefaultChainEndpoint = "ws://127.0.0.1:9944"
)

// Config is the single recognized configuration document.
type Config struct {
	// ChainEndpoint is the websocket URL of the ledger RPC.
	ChainEndpoint string `mapstructure:"chain_endpoint" toml:"chain_endpoint"`
}

// Dir returns the directory containing the config file, creating it
// if necessary.
func Dir() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil || root == "" {
		home, herr := homedir.Dir()
		if herr != nil {
			return "", errors.Wrap(err, "resolve config directory")
		}
		root = filepath.Join(home, ".config")
	}
	dir := filepath.Join(root, AppDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.Wrap(err, "create config directory")
	}
	return dir, nil
}

// Load reads the config file, creating it with defaults if absent.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, ConfigFileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path); err != nil {
			return nil, errors.Wrap(err, "write default config")
		}
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	v.SetDefault("chain_endpoint", DefaultChainEndpoint)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.ChainEndpoint == "" {
		cfg.ChainEndpoint = DefaultChainEndpoint
	}
	return cfg, nil
}

func writeDefault(path string) error {
	v := viper.New()
	v.SetConfigType("toml")
	v.Set("chain_endpoint", DefaultChainEndpoint)
	return v.WriteConfigAs(path)
}
