// Package cli implements the upfetch command-line interface: install,
// remove, upgrade, list, pin and config management over the package
// engine. Mutating commands take the cross-process lock before touching
// the managed layout.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/upfetch/upfetch/internal/archive"
	"github.com/upfetch/upfetch/internal/config"
	"github.com/upfetch/upfetch/internal/desktop"
	"github.com/upfetch/upfetch/internal/platform"
	"github.com/upfetch/upfetch/internal/progress"
	"github.com/upfetch/upfetch/internal/provider"
	"github.com/upfetch/upfetch/internal/storage"
	"github.com/upfetch/upfetch/internal/upgrade"
)

// app holds the state every command needs.
type app struct {
	paths    storage.Paths
	store    *storage.Store
	settings *config.Store
	logger   *log.Logger
	out      io.Writer
}

func newApp(dir string, verbose bool) (*app, error) {
	root := dir
	if root == "" {
		var err error
		root, err = storage.DefaultRoot()
		if err != nil {
			return nil, err
		}
	}

	paths := storage.NewPaths(root)
	settings, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, err
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})

	return &app{
		paths:    paths,
		store:    storage.NewStore(paths.PackagesFile),
		settings: settings,
		logger:   logger,
		out:      os.Stdout,
	}, nil
}

// withLock runs fn while holding the cross-process lock.
func (a *app) withLock(operation string, fn func() error) error {
	lock, err := storage.AcquireLock(a.paths.LockFile, operation)
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

// newOrchestrator wires the engine for one invocation. The returned
// cleanup removes the per-invocation download cache.
func (a *app) newOrchestrator(ctx context.Context) (*upgrade.Orchestrator, func(), error) {
	host, err := platform.Detect(ctx)
	if err != nil {
		return nil, nil, err
	}

	sink := progress.NewLogSink(a.logger)
	manager := provider.NewManager(provider.NewClient(), a.settings.Credentials)
	manager.Progress = sink.Bytes

	cacheDir, err := a.paths.CacheDir()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { os.RemoveAll(cacheDir) }

	// Assign through the concrete type so a missing desktop service stays
	// a nil interface inside the orchestrator.
	var integrator upgrade.DesktopIntegrator
	if svc := a.desktopService(); svc != nil {
		integrator = svc
	}

	orch := upgrade.NewOrchestrator(host, manager, a.store, a.paths,
		integrator, sink, cacheDir, a.logger)
	return orch, cleanup, nil
}

func (a *app) desktopService() *desktop.Service {
	appsDir, err := desktop.DefaultApplicationsDir()
	if err != nil {
		a.logger.Debug("desktop integration unavailable", "err", err)
		return nil
	}
	return desktop.NewService(appsDir, a.paths.Icons)
}

// defaultName derives a package name from a source locator: the last
// path segment of a repo slug, or the artifact stem of a URL.
func defaultName(source string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return archive.Stem(provider.FileNameFromURL(source))
	}
	s := strings.TrimSuffix(strings.TrimSpace(source), "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
