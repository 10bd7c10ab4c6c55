// Package config is the launcher's small key-value settings file, kept
// inside the game directory.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Java            string `mapstructure:"java"`
	Username        string `mapstructure:"username"`
	Xmx             int    `mapstructure:"xmx"`
	Xms             int    `mapstructure:"xms"`
	IndexTTLMinutes int    `mapstructure:"index_ttl_minutes"`
	LastVersion     string `mapstructure:"last_version"`
}

// Store reads and persists the config file. A missing file yields the
// defaults; every key can also be overridden through the environment
// (CRAFTLAUNCH_USERNAME and so on).
type Store struct {
	v    *viper.Viper
	path string
}

func Open(path string) (*Store, error) {
	v := viper.New()
	v.SetDefault("java", "")
	v.SetDefault("username", "steve")
	v.SetDefault("xmx", 4)
	v.SetDefault("xms", 2)
	v.SetDefault("index_ttl_minutes", 60)
	v.SetDefault("last_version", "")

	v.SetEnvPrefix("craftlaunch")
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	return &Store{v: v, path: path}, nil
}

func (s *Store) Config() (Config, error) {
	var c Config
	if err := s.v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) SetUsername(name string) { s.v.Set("username", name) }

func (s *Store) SetLastVersion(id string) { s.v.Set("last_version", id) }

// Set assigns one key from its string form, validating the key name and
// parsing numeric values.
func (s *Store) Set(key string, value string) error {
	switch key {
	case "java", "username", "last_version":
		s.v.Set(key, value)
	case "xmx", "xms", "index_ttl_minutes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config key %s wants a number, got %q", key, value)
		}
		s.v.Set(key, n)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func (s *Store) Save() error {
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", s.path, err)
	}
	return nil
}
