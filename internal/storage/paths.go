package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the fixed directory table rooted at the metadata directory.
// Every component receives this struct instead of consulting a global.
type Paths struct {
	Root      string
	Binaries  string
	Archives  string
	AppImages string
	Symlinks  string
	Icons     string

	PathsFile    string
	PackagesFile string
	LockFile     string
}

// NewPaths lays the table out under root.
func NewPaths(root string) Paths {
	return Paths{
		Root:         root,
		Binaries:     filepath.Join(root, "binaries"),
		Archives:     filepath.Join(root, "archives"),
		AppImages:    filepath.Join(root, "appimages"),
		Symlinks:     filepath.Join(root, "symlinks"),
		Icons:        filepath.Join(root, "icons"),
		PathsFile:    filepath.Join(root, "paths.sh"),
		PackagesFile: filepath.Join(root, "packages.json"),
		LockFile:     filepath.Join(root, "upfetch.lock"),
	}
}

// DefaultRoot is the metadata directory used when --dir is not given.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "upfetch"), nil
}

// EnsureDirs creates every directory the layout owns.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.Root, p.Binaries, p.Archives, p.AppImages, p.Symlinks, p.Icons} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CacheDir creates a fresh per-invocation download directory. The caller
// removes it on exit.
func (p Paths) CacheDir() (string, error) {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return "", fmt.Errorf("create metadata root: %w", err)
	}
	dir, err := os.MkdirTemp(p.Root, "cache-")
	if err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	return dir, nil
}
