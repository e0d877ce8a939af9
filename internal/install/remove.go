package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/upfetch/upfetch/internal/model"
	"github.com/upfetch/upfetch/internal/storage"
)

// ErrNotInstalled means the record has no install path, or the path is
// already gone from disk.
var ErrNotInstalled = errors.New("package is not installed")

// DesktopCleaner removes desktop-environment artifacts during a purge.
type DesktopCleaner interface {
	RemoveEntry(name string) error
}

// Remover undoes an install: alias, PATH line, installed files, and
// optionally desktop artifacts.
type Remover struct {
	paths    storage.Paths
	pathFile *storage.PathFile
	desktop  DesktopCleaner
	logger   *log.Logger
}

// NewRemover creates a remover. desktop may be nil when purge support is
// not needed.
func NewRemover(paths storage.Paths, desktop DesktopCleaner, logger *log.Logger) *Remover {
	if logger == nil {
		logger = log.Default()
	}
	return &Remover{
		paths:    paths,
		pathFile: storage.NewPathFile(paths.PathsFile),
		desktop:  desktop,
		logger:   logger,
	}
}

// Remove deletes the installed artifact and its integration. purge also
// removes desktop entries and icons.
func (r *Remover) Remove(pkg *model.Package, purge bool) error {
	if !pkg.Installed() {
		return fmt.Errorf("%w: %s", ErrNotInstalled, pkg.Name)
	}
	if _, err := os.Stat(pkg.InstallPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: install path %s is missing", ErrNotInstalled, pkg.InstallPath)
		}
		return fmt.Errorf("inspect install path: %w", err)
	}

	alias := filepath.Join(r.paths.Symlinks, pkg.Name)
	if err := os.Remove(alias); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove alias %s: %w", alias, err)
	}

	if pkg.Filetype == model.FiletypeArchive {
		pathDir := pkg.InstallPath
		if pkg.ExecPath != "" {
			pathDir = filepath.Dir(pkg.ExecPath)
		}
		if err := r.pathFile.Remove(pathDir); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(pkg.InstallPath); err != nil {
		return fmt.Errorf("remove %s: %w", pkg.InstallPath, err)
	}

	if purge {
		if pkg.IconPath != "" {
			if err := os.Remove(pkg.IconPath); err != nil && !os.IsNotExist(err) {
				r.logger.Warn("could not remove icon", "path", pkg.IconPath, "err", err)
			}
		}
		if r.desktop != nil {
			if err := r.desktop.RemoveEntry(pkg.Name); err != nil {
				r.logger.Warn("could not remove desktop entry", "package", pkg.Name, "err", err)
			}
		}
	}

	pkg.ClearInstall()
	return nil
}
