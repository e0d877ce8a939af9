package upgrade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/upfetch/upfetch/internal/archive"
	"github.com/upfetch/upfetch/internal/checksum"
	"github.com/upfetch/upfetch/internal/install"
	"github.com/upfetch/upfetch/internal/model"
	"github.com/upfetch/upfetch/internal/platform"
	"github.com/upfetch/upfetch/internal/progress"
	"github.com/upfetch/upfetch/internal/provider"
	"github.com/upfetch/upfetch/internal/resolve"
	"github.com/upfetch/upfetch/internal/storage"
)

// Status is the terminal state of one package's upgrade attempt.
type Status string

const (
	StatusPinned   Status = "pinned"
	StatusUpToDate Status = "up-to-date"
	StatusUpgraded Status = "upgraded"
)

// Summary aggregates a bulk operation.
type Summary struct {
	Upgraded int
	UpToDate int
	Pinned   int
	Failed   int
}

func (s Summary) String() string {
	return fmt.Sprintf("Completed: %d upgraded, %d up-to-date, %d pinned, %d failed",
		s.Upgraded, s.UpToDate, s.Pinned, s.Failed)
}

// DesktopIntegrator regenerates launcher artifacts after an upgrade.
type DesktopIntegrator interface {
	AddIcon(name, installPath string, filetype model.Filetype) (string, error)
	CreateEntry(name, installPath, execPath, iconPath string, filetype model.Filetype) (string, error)
}

// Orchestrator drives install and upgrade for stored packages.
type Orchestrator struct {
	manager   *provider.Manager
	resolver  *resolve.Resolver
	verifier  *checksum.Verifier
	installer *install.Installer
	store     *storage.Store
	paths     storage.Paths
	pathFile  *storage.PathFile
	desktop   DesktopIntegrator
	sink      progress.Sink
	cacheDir  string
	logger    *log.Logger
}

// NewOrchestrator wires the engine together. desktop may be nil to
// disable desktop integration; cacheDir receives downloads and is the
// caller's to clean up.
func NewOrchestrator(host *platform.Host, manager *provider.Manager, store *storage.Store,
	paths storage.Paths, desktop DesktopIntegrator, sink progress.Sink, cacheDir string,
	logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if sink == nil {
		sink = progress.Discard{}
	}
	return &Orchestrator{
		manager:   manager,
		resolver:  resolve.New(host),
		verifier:  checksum.NewVerifier(manager, cacheDir),
		installer: install.NewInstaller(paths, logger),
		store:     store,
		paths:     paths,
		pathFile:  storage.NewPathFile(paths.PathsFile),
		desktop:   desktop,
		sink:      sink,
		cacheDir:  cacheDir,
		logger:    logger,
	}
}

// Install performs a first-time install: fetch, resolve, download,
// verify, place, record. tag selects a specific release; empty means the
// channel's latest. withDesktop additionally creates icon and launcher
// entries, best-effort.
func (o *Orchestrator) Install(ctx context.Context, pkg *model.Package, tag string, withDesktop bool) error {
	existing, err := o.store.Load()
	if err != nil {
		return err
	}
	for _, rec := range existing {
		if rec.SameIdentity(pkg) {
			return fmt.Errorf("%w: %s", storage.ErrAlreadyInstalled, pkg.DisplayName())
		}
	}

	o.sink.Status(fmt.Sprintf("Fetching release for %s", pkg.DisplayName()))
	var rel *model.Release
	if tag != "" {
		rel, err = o.manager.ReleaseByTag(ctx, pkg, tag)
	} else {
		rel, err = o.manager.LatestRelease(ctx, pkg)
	}
	if err != nil {
		return err
	}

	if err := o.fetchAndPlace(ctx, pkg, rel); err != nil {
		return err
	}

	if withDesktop {
		o.integrateDesktop(pkg)
	}

	pkg.Version = rel.Version
	pkg.LastUpgraded = time.Now().UTC()
	if err := o.store.Add(pkg); err != nil {
		return err
	}
	o.sink.Status(fmt.Sprintf("Installed %s %s", pkg.Name, pkg.Version))
	return nil
}

// Check reports whether a newer release is available without touching
// the install.
func (o *Orchestrator) Check(ctx context.Context, pkg *model.Package) (*model.Release, bool, error) {
	if pkg.Pinned {
		return nil, false, nil
	}
	rel, err := o.manager.CheckForUpdates(ctx, pkg)
	if errors.Is(err, provider.ErrNotModified) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rel, o.newer(rel, pkg), nil
}

// Upgrade runs the state machine for one package. force skips the
// newness comparison but never overrides a pin.
func (o *Orchestrator) Upgrade(ctx context.Context, pkg *model.Package, force bool) (Status, error) {
	if pkg.Pinned {
		return StatusPinned, nil
	}

	var rel *model.Release
	var err error
	if force {
		rel, err = o.manager.LatestRelease(ctx, pkg)
		if err != nil {
			return "", err
		}
	} else {
		rel, err = o.manager.CheckForUpdates(ctx, pkg)
		if errors.Is(err, provider.ErrNotModified) {
			return StatusUpToDate, nil
		}
		if err != nil {
			return "", err
		}
		if !o.newer(rel, pkg) {
			return StatusUpToDate, nil
		}
	}

	if !pkg.Installed() {
		return "", fmt.Errorf("%w: %s", install.ErrNotInstalled, pkg.Name)
	}

	prev := snapshotOf(pkg)
	backup := pkg.InstallPath + ".old"

	// Stale leftover from an interrupted run.
	if err := os.RemoveAll(backup); err != nil {
		return "", fmt.Errorf("clear stale backup %s: %w", backup, err)
	}
	if err := os.Rename(pkg.InstallPath, backup); err != nil {
		return "", fmt.Errorf("back up current install: %w", err)
	}

	if err := o.dropIntegration(pkg.Name, prev); err != nil {
		if rbErr := o.rollback(pkg, prev, backup); rbErr != nil {
			return "", rbErr
		}
		return "", err
	}

	o.sink.Status(fmt.Sprintf("Upgrading %s to %s", pkg.Name, rel.Version))
	if err := o.fetchAndPlace(ctx, pkg, rel); err != nil {
		if rbErr := o.rollback(pkg, prev, backup); rbErr != nil {
			// A failed rollback leaves inconsistent state and must be
			// surfaced instead of the original cause.
			return "", rbErr
		}
		return "", err
	}

	// Desktop integration is regenerated best-effort; the new version
	// stays installed even when this fails.
	if pkg.IconPath != "" {
		o.integrateDesktop(pkg)
	}

	if err := os.RemoveAll(backup); err != nil {
		o.logger.Warn("could not delete backup", "path", backup, "err", err)
	}

	pkg.Version = rel.Version
	pkg.LastUpgraded = time.Now().UTC()
	if err := o.store.Update(pkg); err != nil {
		return "", err
	}
	o.sink.Status(fmt.Sprintf("Upgraded %s to %s", pkg.Name, pkg.Version))
	return StatusUpgraded, nil
}

// UpgradeAll upgrades the named packages, or every stored package when
// names is empty. Packages are processed strictly one at a time;
// per-item failures are counted, never propagated.
func (o *Orchestrator) UpgradeAll(ctx context.Context, names []string, force bool) (Summary, error) {
	pkgs, err := o.selectPackages(names)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for i, pkg := range pkgs {
		o.sink.Items(i+1, len(pkgs))
		status, err := o.Upgrade(ctx, pkg, force)
		switch {
		case err != nil:
			o.logger.Error("upgrade failed", "package", pkg.Name, "err", err)
			sum.Failed++
		case status == StatusUpgraded:
			sum.Upgraded++
		case status == StatusPinned:
			sum.Pinned++
		default:
			sum.UpToDate++
		}
	}
	o.sink.Status(sum.String())
	return sum, nil
}

func (o *Orchestrator) selectPackages(names []string) ([]*model.Package, error) {
	pkgs, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return pkgs, nil
	}

	byName := make(map[string]*model.Package, len(pkgs))
	for _, pkg := range pkgs {
		byName[pkg.Name] = pkg
	}
	selected := make([]*model.Package, 0, len(names))
	for _, name := range names {
		pkg, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", storage.ErrPackageNotFound, name)
		}
		selected = append(selected, pkg)
	}
	return selected, nil
}

// fetchAndPlace runs resolve, download, verify and install-dispatch for
// one release, mutating the package's paths on success.
func (o *Orchestrator) fetchAndPlace(ctx context.Context, pkg *model.Package, rel *model.Release) error {
	if pkg.Filetype == model.FiletypeAuto {
		resolved, err := o.resolver.ResolveAutoFiletype(rel)
		if err != nil {
			return err
		}
		pkg.Filetype = resolved
	}

	asset, err := o.resolver.Resolve(rel, pkg)
	if err != nil {
		return err
	}

	o.sink.Status(fmt.Sprintf("Downloading %s", asset.Name))
	artifactPath, err := o.manager.DownloadAsset(ctx, asset, o.cacheDir)
	if err != nil {
		return err
	}

	switch err := o.verifier.Verify(ctx, artifactPath, rel); {
	case err == nil:
		o.sink.Status("Checksum verified")
	case errors.Is(err, checksum.ErrUnavailable):
		o.sink.Status("No checksum published, skipping verification")
	default:
		return err
	}

	if err := o.installer.Install(pkg, artifactPath); err != nil {
		o.cleanPartialInstall(pkg, asset)
		return err
	}
	return nil
}

// cleanPartialInstall removes extraction remnants a failed archive
// install may have left in the archives root.
func (o *Orchestrator) cleanPartialInstall(pkg *model.Package, asset model.Asset) {
	if pkg.Filetype != model.FiletypeArchive {
		return
	}
	remnant := filepath.Join(o.paths.Archives, archive.Stem(asset.Name))
	if err := os.RemoveAll(remnant); err != nil {
		o.logger.Warn("could not clean partial extraction", "path", remnant, "err", err)
	}
}

func (o *Orchestrator) integrateDesktop(pkg *model.Package) {
	if o.desktop == nil {
		return
	}
	iconPath, err := o.desktop.AddIcon(pkg.Name, pkg.InstallPath, pkg.Filetype)
	if err != nil {
		o.logger.Warn("could not install icon", "package", pkg.Name, "err", err)
		iconPath = ""
	}
	if _, err := o.desktop.CreateEntry(pkg.Name, pkg.InstallPath, pkg.ExecPath, iconPath, pkg.Filetype); err != nil {
		o.logger.Warn("could not create desktop entry", "package", pkg.Name, "err", err)
		return
	}
	pkg.IconPath = iconPath
}

// newer compares a candidate release to the installed state. Nightly
// builds carry no meaningful version, so publish time decides.
func (o *Orchestrator) newer(rel *model.Release, pkg *model.Package) bool {
	if pkg.Channel == model.ChannelNightly {
		return rel.PublishedAt.After(pkg.LastUpgraded)
	}
	return rel.Version.NewerThan(pkg.Version)
}

// snapshot captures the pre-upgrade install state for rollback.
type snapshot struct {
	installPath string
	execPath    string
	filetype    model.Filetype
}

func snapshotOf(pkg *model.Package) snapshot {
	return snapshot{installPath: pkg.InstallPath, execPath: pkg.ExecPath, filetype: pkg.Filetype}
}

// pathDir is the directory the PATH file references for this install.
func (s snapshot) pathDir() string {
	if s.execPath != "" {
		return filepath.Dir(s.execPath)
	}
	return s.installPath
}

// dropIntegration removes the alias symlink and PATH line, deliberately
// leaving desktop and icon files in place.
func (o *Orchestrator) dropIntegration(name string, prev snapshot) error {
	alias := filepath.Join(o.paths.Symlinks, name)
	if err := os.Remove(alias); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove alias %s: %w", alias, err)
	}
	if prev.filetype == model.FiletypeArchive {
		return o.pathFile.Remove(prev.pathDir())
	}
	return nil
}

// rollback restores the pre-upgrade state: partial new install removed,
// backup renamed back, runtime integration recreated.
func (o *Orchestrator) rollback(pkg *model.Package, prev snapshot, backup string) error {
	if pkg.Installed() && pkg.InstallPath != prev.installPath {
		os.RemoveAll(pkg.InstallPath)
	}
	pkg.InstallPath = prev.installPath
	pkg.ExecPath = prev.execPath

	if err := os.Rename(backup, prev.installPath); err != nil {
		return fmt.Errorf("rollback failed restoring backup: %w", err)
	}
	if err := o.restoreIntegration(pkg.Name, prev); err != nil {
		return fmt.Errorf("rollback failed restoring integration: %w", err)
	}
	return nil
}

func (o *Orchestrator) restoreIntegration(name string, prev snapshot) error {
	if prev.execPath != "" {
		alias := filepath.Join(o.paths.Symlinks, name)
		if err := os.Remove(alias); err != nil && !os.IsNotExist(err) {
			return err
		}
		if err := os.Symlink(prev.execPath, alias); err != nil {
			return fmt.Errorf("recreate alias %s: %w", alias, err)
		}
	}
	if prev.filetype == model.FiletypeArchive {
		return o.pathFile.Add(prev.pathDir())
	}
	return nil
}
