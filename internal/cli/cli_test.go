package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/upfetch/upfetch/internal/model"
	"github.com/upfetch/upfetch/internal/storage"
)

func testApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	paths := storage.NewPaths(t.TempDir())
	if err := paths.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	out := &bytes.Buffer{}
	return &app{
		paths:  paths,
		store:  storage.NewStore(paths.PackagesFile),
		logger: log.New(io.Discard),
		out:    out,
	}, out
}

// seedBinary places an installed binary package on disk and in the store.
func seedBinary(t *testing.T, a *app, name string) *model.Package {
	t.Helper()
	dest := filepath.Join(a.paths.Binaries, name)
	if err := os.WriteFile(dest, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	pkg := model.NewPackage(name, "acme/"+name, model.FiletypeBinary, model.ChannelStable, model.ProviderGitHub)
	pkg.InstallPath = dest
	pkg.ExecPath = dest
	if err := a.store.Add(pkg); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return pkg
}

func TestRemoveManyContinuesPastFailures(t *testing.T) {
	a, out := testApp(t)
	seedBinary(t, a, "alpha")
	seedBinary(t, a, "beta")

	if err := a.removeMany([]string{"alpha", "ghost", "beta"}, false); err != nil {
		t.Fatalf("removeMany: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Removed alpha") || !strings.Contains(got, "Removed beta") {
		t.Errorf("output missing per-item lines: %q", got)
	}
	if !strings.Contains(got, "Completed: 2 removed, 1 failed") {
		t.Errorf("output missing aggregate line: %q", got)
	}

	for _, name := range []string{"alpha", "beta"} {
		if _, err := a.store.FindByName(name); err == nil {
			t.Errorf("%s should be gone from the store", name)
		}
		if _, err := os.Stat(filepath.Join(a.paths.Binaries, name)); !os.IsNotExist(err) {
			t.Errorf("%s binary should be deleted", name)
		}
	}
}

func TestDefaultName(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"sharkdp/bat", "bat"},
		{"group/sub/project", "project"},
		{"sharkdp/bat/", "bat"},
		{"https://example.com/dl/tool-1.2.0-linux-x86_64.tar.gz", "tool-1.2.0-linux-x86_64"},
		{"https://example.com/releases/app.AppImage", "app"},
		{"ripgrep", "ripgrep"},
	}
	for _, tc := range cases {
		if got := defaultName(tc.source); got != tc.want {
			t.Errorf("defaultName(%q) = %q, want %q", tc.source, got, tc.want)
		}
	}
}
