package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/upfetch/upfetch/internal/model"
)

func testPackage(name string) *model.Package {
	return model.NewPackage(name, "acme/"+name, model.FiletypeBinary, model.ChannelStable, model.ProviderGitHub)
}

func TestStoreLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "packages.json"))
	pkgs, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(pkgs) != 0 {
		t.Errorf("missing file should load as empty store, got %d records", len(pkgs))
	}
}

func TestStoreAddAndFind(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "packages.json"))

	if err := s.Add(testPackage("ripgrep")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(testPackage("fd")); err != nil {
		t.Fatalf("Add second: %v", err)
	}

	pkg, err := s.FindByName("ripgrep")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if pkg.Source != "acme/ripgrep" {
		t.Errorf("source = %q", pkg.Source)
	}

	if _, err := s.FindByName("absent"); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("FindByName(absent) = %v, want ErrPackageNotFound", err)
	}
}

func TestStoreAddDuplicate(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "packages.json"))
	if err := s.Add(testPackage("ripgrep")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(testPackage("ripgrep")); !errors.Is(err, ErrAlreadyInstalled) {
		t.Errorf("duplicate Add = %v, want ErrAlreadyInstalled", err)
	}
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "packages.json"))
	pkg := testPackage("ripgrep")
	if err := s.Add(pkg); err != nil {
		t.Fatalf("Add: %v", err)
	}

	pkg.Version = model.Version{Major: 14}
	pkg.Pinned = true
	if err := s.Update(pkg); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.FindByName("ripgrep")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if got.Version.Major != 14 || !got.Pinned {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := s.Update(testPackage("absent")); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("Update(absent) = %v, want ErrPackageNotFound", err)
	}
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "packages.json"))
	if err := s.Add(testPackage("ripgrep")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Remove("ripgrep"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove("ripgrep"); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("second Remove = %v, want ErrPackageNotFound", err)
	}

	pkgs, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(pkgs) != 0 {
		t.Errorf("store should be empty, has %d records", len(pkgs))
	}
}

func TestStoreSaveLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages.json")
	s := NewStore(path)
	if err := s.Save([]*model.Package{testPackage("ripgrep")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after Save")
	}
}
