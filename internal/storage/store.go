package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/upfetch/upfetch/internal/model"
)

var (
	// ErrPackageNotFound means no stored record matches the requested name.
	ErrPackageNotFound = errors.New("package not found")
	// ErrAlreadyInstalled means a record with the same identity exists.
	ErrAlreadyInstalled = errors.New("package already installed")
)

// Store persists the package records as a single JSON document, rewritten
// wholesale on every mutation. The process lock serializes writers.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads all records. A missing file is an empty store.
func (s *Store) Load() ([]*model.Package, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read package store: %w", err)
	}

	var pkgs []*model.Package
	if err := json.Unmarshal(data, &pkgs); err != nil {
		return nil, fmt.Errorf("parse package store %s: %w", s.path, err)
	}
	return pkgs, nil
}

// Save rewrites the whole store atomically via write-then-rename.
func (s *Store) Save(pkgs []*model.Package) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	if pkgs == nil {
		pkgs = []*model.Package{}
	}
	data, err := json.MarshalIndent(pkgs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal package store: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temporary store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename store file: %w", err)
	}
	return nil
}

// Add appends a record, rejecting duplicates by identity.
func (s *Store) Add(pkg *model.Package) error {
	pkgs, err := s.Load()
	if err != nil {
		return err
	}
	for _, existing := range pkgs {
		if existing.SameIdentity(pkg) {
			return fmt.Errorf("%w: %s", ErrAlreadyInstalled, pkg.DisplayName())
		}
	}
	return s.Save(append(pkgs, pkg))
}

// Update replaces the record with the same identity.
func (s *Store) Update(pkg *model.Package) error {
	pkgs, err := s.Load()
	if err != nil {
		return err
	}
	for i, existing := range pkgs {
		if existing.SameIdentity(pkg) {
			pkgs[i] = pkg
			return s.Save(pkgs)
		}
	}
	return fmt.Errorf("%w: %s", ErrPackageNotFound, pkg.Name)
}

// Remove deletes the record with the given name.
func (s *Store) Remove(name string) error {
	pkgs, err := s.Load()
	if err != nil {
		return err
	}
	kept := pkgs[:0]
	removed := false
	for _, existing := range pkgs {
		if !removed && existing.Name == name {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}
	return s.Save(kept)
}

// FindByName returns the stored record with the given name.
func (s *Store) FindByName(name string) (*model.Package, error) {
	pkgs, err := s.Load()
	if err != nil {
		return nil, err
	}
	for _, pkg := range pkgs {
		if pkg.Name == name {
			return pkg, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
}
