// Package config is the dot-path settings store backing provider tokens
// and base URLs, kept as a YAML file in the metadata directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"

	"github.com/upfetch/upfetch/internal/model"
)

// FileName is the settings file kept under the metadata root.
const FileName = "settings.yaml"

// Store reads and writes dot-path keys such as providers.github.token.
type Store struct {
	path  string
	viper *viper.Viper
}

// Load opens the settings file, creating an empty store when it does not
// exist yet.
func Load(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read settings file %s: %w", path, err)
		}
	}
	return &Store{path: path, viper: v}, nil
}

// Get returns the value at a dot path, or "" when unset.
func (s *Store) Get(key string) string {
	return s.viper.GetString(key)
}

// Set writes a dot-path key and persists the file.
func (s *Store) Set(key, value string) error {
	s.viper.Set(key, value)
	return s.save()
}

// Keys lists every set key in sorted order.
func (s *Store) Keys() []string {
	keys := s.viper.AllKeys()
	sort.Strings(keys)
	return keys
}

// Credentials returns the token and base URL configured for a provider,
// either of which may be empty.
func (s *Store) Credentials(p model.Provider) (token, baseURL string) {
	prefix := "providers." + p.String()
	return s.Get(prefix + ".token"), s.Get(prefix + ".base_url")
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := s.viper.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
