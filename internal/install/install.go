package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/upfetch/upfetch/internal/archive"
	"github.com/upfetch/upfetch/internal/model"
	"github.com/upfetch/upfetch/internal/storage"
)

// ErrNotInstallable means the package record carries a filetype no
// handler can place, such as an unresolved auto.
var ErrNotInstallable = errors.New("filetype cannot be installed")

// Installer places artifacts and records the resulting paths on the
// package.
type Installer struct {
	paths     storage.Paths
	pathFile  *storage.PathFile
	extractor *archive.Extractor
	logger    *log.Logger
}

func NewInstaller(paths storage.Paths, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.Default()
	}
	return &Installer{
		paths:     paths,
		pathFile:  storage.NewPathFile(paths.PathsFile),
		extractor: archive.NewExtractor(),
		logger:    logger,
	}
}

// Install places the downloaded artifact according to the package's
// filetype, then fills in InstallPath and ExecPath on the record.
func (ins *Installer) Install(pkg *model.Package, artifactPath string) error {
	if err := ins.paths.EnsureDirs(); err != nil {
		return err
	}

	switch pkg.Filetype {
	case model.FiletypeAppImage:
		return ins.installAppImage(pkg, artifactPath)
	case model.FiletypeArchive:
		return ins.installArchive(pkg, artifactPath)
	case model.FiletypeCompressed:
		return ins.installCompressed(pkg, artifactPath)
	case model.FiletypeBinary, model.FiletypeWinExe:
		return ins.installBinary(pkg, artifactPath)
	default:
		return fmt.Errorf("%w: %s", ErrNotInstallable, pkg.Filetype)
	}
}

func (ins *Installer) installAppImage(pkg *model.Package, artifactPath string) error {
	dest := filepath.Join(ins.paths.AppImages, filepath.Base(artifactPath))
	if err := move(artifactPath, dest); err != nil {
		return err
	}
	if err := os.Chmod(dest, 0o755); err != nil {
		return fmt.Errorf("mark %s executable: %w", dest, err)
	}
	if err := ins.makeAlias(pkg.Name, dest); err != nil {
		return err
	}
	pkg.InstallPath = dest
	pkg.ExecPath = dest
	return nil
}

func (ins *Installer) installBinary(pkg *model.Package, artifactPath string) error {
	dest := filepath.Join(ins.paths.Binaries, pkg.Name)
	if err := move(artifactPath, dest); err != nil {
		return err
	}
	if err := os.Chmod(dest, 0o755); err != nil {
		return fmt.Errorf("mark %s executable: %w", dest, err)
	}
	if err := ins.makeAlias(pkg.Name, dest); err != nil {
		return err
	}
	pkg.InstallPath = dest
	pkg.ExecPath = dest
	return nil
}

func (ins *Installer) installCompressed(pkg *model.Package, artifactPath string) error {
	extracted, err := ins.extractor.Decompress(artifactPath, filepath.Dir(artifactPath))
	if err != nil {
		return err
	}

	inner, err := singleFile(extracted)
	if err != nil {
		return fmt.Errorf("expanded %s: %w", filepath.Base(artifactPath), err)
	}
	if err := ins.installBinary(pkg, inner); err != nil {
		return err
	}
	os.RemoveAll(extracted)
	return nil
}

func (ins *Installer) installArchive(pkg *model.Package, artifactPath string) error {
	extracted, err := ins.extractor.Decompress(artifactPath, ins.paths.Archives)
	if err != nil {
		return err
	}

	// An archive wrapping a lone file is really a binary in disguise.
	if inner, err := singleFile(extracted); err == nil {
		if err := ins.installBinary(pkg, inner); err != nil {
			os.RemoveAll(extracted)
			return err
		}
		os.RemoveAll(extracted)
		return nil
	}

	execPath, found := findExecutable(extracted, pkg.Name)
	pathDir := extracted
	if found {
		if err := os.Chmod(execPath, 0o755); err != nil {
			return fmt.Errorf("mark %s executable: %w", execPath, err)
		}
		if err := ins.makeAlias(pkg.Name, execPath); err != nil {
			return err
		}
		pathDir = filepath.Dir(execPath)
	} else {
		ins.logger.Warn("no executable found in archive, adding its directory to PATH",
			"package", pkg.Name, "dir", extracted)
	}

	if err := ins.pathFile.Add(pathDir); err != nil {
		return err
	}

	pkg.InstallPath = extracted
	pkg.ExecPath = execPath
	return nil
}

// makeAlias points symlinks/<name> at target, replacing any previous
// alias. Falls back to a hard link on filesystems without symlink
// support.
func (ins *Installer) makeAlias(name, target string) error {
	alias := filepath.Join(ins.paths.Symlinks, name)
	if err := os.Remove(alias); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace alias %s: %w", alias, err)
	}
	if err := os.Symlink(target, alias); err != nil {
		if linkErr := os.Link(target, alias); linkErr != nil {
			return fmt.Errorf("create alias %s: %w", alias, err)
		}
	}
	return nil
}

// singleFile returns the lone regular file inside dir, or an error when
// dir holds anything else.
func singleFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read directory: %w", err)
	}
	if len(entries) != 1 || entries[0].IsDir() {
		return "", fmt.Errorf("expected exactly one file, found %d entries", len(entries))
	}
	return filepath.Join(dir, entries[0].Name()), nil
}
