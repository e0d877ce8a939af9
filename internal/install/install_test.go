package install

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/upfetch/upfetch/internal/model"
	"github.com/upfetch/upfetch/internal/storage"
)

func testLayout(t *testing.T) storage.Paths {
	t.Helper()
	paths := storage.NewPaths(t.TempDir())
	if err := paths.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	return paths
}

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o755, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("write content: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
}

func writeGz(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
}

func TestInstallBinary(t *testing.T) {
	paths := testLayout(t)
	ins := NewInstaller(paths, nil)

	cache := t.TempDir()
	artifact := writeArtifact(t, cache, "tool-linux-x86_64", "#!/bin/sh\n")

	pkg := model.NewPackage("tool", "acme/tool", model.FiletypeBinary, model.ChannelStable, model.ProviderGitHub)
	if err := ins.Install(pkg, artifact); err != nil {
		t.Fatalf("Install: %v", err)
	}

	dest := filepath.Join(paths.Binaries, "tool")
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat installed binary: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Errorf("installed binary is not executable: %v", info.Mode())
	}
	if pkg.InstallPath != dest || pkg.ExecPath != dest {
		t.Errorf("paths = %q/%q, want both %q", pkg.InstallPath, pkg.ExecPath, dest)
	}

	alias := filepath.Join(paths.Symlinks, "tool")
	target, err := os.Readlink(alias)
	if err != nil {
		t.Fatalf("read alias: %v", err)
	}
	if target != dest {
		t.Errorf("alias points at %q, want %q", target, dest)
	}

	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Errorf("artifact should have moved out of the cache")
	}
}

func TestInstallAppImage(t *testing.T) {
	paths := testLayout(t)
	ins := NewInstaller(paths, nil)

	cache := t.TempDir()
	artifact := writeArtifact(t, cache, "Tool-1.0.AppImage", "elf bytes")

	pkg := model.NewPackage("tool", "acme/tool", model.FiletypeAppImage, model.ChannelStable, model.ProviderGitHub)
	if err := ins.Install(pkg, artifact); err != nil {
		t.Fatalf("Install: %v", err)
	}

	dest := filepath.Join(paths.AppImages, "Tool-1.0.AppImage")
	if pkg.InstallPath != dest {
		t.Errorf("install path = %q, want %q (original filename kept)", pkg.InstallPath, dest)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("stat appimage: %v", err)
	}
}

func TestInstallArchive(t *testing.T) {
	paths := testLayout(t)
	ins := NewInstaller(paths, nil)

	cache := t.TempDir()
	archivePath := filepath.Join(cache, "tool-2.0-linux.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"bin/tool":  "#!/bin/sh\n",
		"README.md": "docs",
	})

	pkg := model.NewPackage("tool", "acme/tool", model.FiletypeArchive, model.ChannelStable, model.ProviderGitHub)
	if err := ins.Install(pkg, archivePath); err != nil {
		t.Fatalf("Install: %v", err)
	}

	wantDir := filepath.Join(paths.Archives, "tool-2.0-linux")
	if pkg.InstallPath != wantDir {
		t.Errorf("install path = %q, want %q", pkg.InstallPath, wantDir)
	}
	wantExec := filepath.Join(wantDir, "bin", "tool")
	if pkg.ExecPath != wantExec {
		t.Errorf("exec path = %q, want %q", pkg.ExecPath, wantExec)
	}

	alias := filepath.Join(paths.Symlinks, "tool")
	if target, err := os.Readlink(alias); err != nil || target != wantExec {
		t.Errorf("alias = %q (%v), want %q", target, err, wantExec)
	}

	data, err := os.ReadFile(paths.PathsFile)
	if err != nil {
		t.Fatalf("read PATH file: %v", err)
	}
	if !strings.Contains(string(data), filepath.Join(wantDir, "bin")) {
		t.Errorf("PATH file should reference the bin directory: %q", string(data))
	}
}

func TestInstallArchiveSingleFileFallsThroughToBinary(t *testing.T) {
	paths := testLayout(t)
	ins := NewInstaller(paths, nil)

	cache := t.TempDir()
	archivePath := filepath.Join(cache, "tool-2.0.tar.gz")
	writeTarGz(t, archivePath, map[string]string{"tool": "#!/bin/sh\n"})

	pkg := model.NewPackage("tool", "acme/tool", model.FiletypeArchive, model.ChannelStable, model.ProviderGitHub)
	if err := ins.Install(pkg, archivePath); err != nil {
		t.Fatalf("Install: %v", err)
	}

	dest := filepath.Join(paths.Binaries, "tool")
	if pkg.InstallPath != dest {
		t.Errorf("install path = %q, want binary placement %q", pkg.InstallPath, dest)
	}
	if _, err := os.Stat(filepath.Join(paths.Archives, "tool-2.0")); !os.IsNotExist(err) {
		t.Errorf("extraction directory should be cleaned up after fall-through")
	}
}

func TestInstallCompressed(t *testing.T) {
	paths := testLayout(t)
	ins := NewInstaller(paths, nil)

	cache := t.TempDir()
	gzPath := filepath.Join(cache, "tool-1.5.gz")
	writeGz(t, gzPath, "#!/bin/sh\n")

	pkg := model.NewPackage("tool", "acme/tool", model.FiletypeCompressed, model.ChannelStable, model.ProviderGitHub)
	if err := ins.Install(pkg, gzPath); err != nil {
		t.Fatalf("Install: %v", err)
	}

	dest := filepath.Join(paths.Binaries, "tool")
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read installed binary: %v", err)
	}
	if string(got) != "#!/bin/sh\n" {
		t.Errorf("installed content = %q", got)
	}
}

func TestInstallArchiveWithoutExecutable(t *testing.T) {
	paths := testLayout(t)
	ins := NewInstaller(paths, nil)

	cache := t.TempDir()
	archivePath := filepath.Join(cache, "data-1.0.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"colors.txt": "red\n",
		"shapes.txt": "round\n",
	})

	pkg := model.NewPackage("othername", "acme/data", model.FiletypeArchive, model.ChannelStable, model.ProviderGitHub)
	if err := ins.Install(pkg, archivePath); err != nil {
		t.Fatalf("Install should succeed without an executable: %v", err)
	}
	if pkg.ExecPath != "" {
		t.Errorf("exec path = %q, want empty", pkg.ExecPath)
	}

	data, err := os.ReadFile(paths.PathsFile)
	if err != nil {
		t.Fatalf("read PATH file: %v", err)
	}
	if !strings.Contains(string(data), pkg.InstallPath) {
		t.Errorf("PATH file should reference the install directory itself")
	}
}

func TestInstallRejectsAuto(t *testing.T) {
	ins := NewInstaller(testLayout(t), nil)
	pkg := model.NewPackage("tool", "acme/tool", model.FiletypeAuto, model.ChannelStable, model.ProviderGitHub)
	err := ins.Install(pkg, "/nonexistent")
	if !errors.Is(err, ErrNotInstallable) {
		t.Fatalf("err = %v, want ErrNotInstallable", err)
	}
}

func TestRemove(t *testing.T) {
	paths := testLayout(t)
	ins := NewInstaller(paths, nil)
	rem := NewRemover(paths, nil, nil)

	cache := t.TempDir()
	archivePath := filepath.Join(cache, "tool-2.0-linux.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"bin/tool":  "#!/bin/sh\n",
		"README.md": "docs",
	})

	pkg := model.NewPackage("tool", "acme/tool", model.FiletypeArchive, model.ChannelStable, model.ProviderGitHub)
	if err := ins.Install(pkg, archivePath); err != nil {
		t.Fatalf("Install: %v", err)
	}
	installPath := pkg.InstallPath

	if err := rem.Remove(pkg, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := os.Stat(installPath); !os.IsNotExist(err) {
		t.Errorf("install directory still present")
	}
	if _, err := os.Lstat(filepath.Join(paths.Symlinks, "tool")); !os.IsNotExist(err) {
		t.Errorf("alias still present")
	}
	data, _ := os.ReadFile(paths.PathsFile)
	if strings.Contains(string(data), "tool-2.0-linux") {
		t.Errorf("PATH line still present: %q", string(data))
	}
	if pkg.Installed() {
		t.Errorf("record should be cleared")
	}

	if err := rem.Remove(pkg, false); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("second Remove = %v, want ErrNotInstalled", err)
	}
}

func TestRemoveMissingInstallPath(t *testing.T) {
	paths := testLayout(t)
	rem := NewRemover(paths, nil, nil)

	pkg := model.NewPackage("tool", "acme/tool", model.FiletypeBinary, model.ChannelStable, model.ProviderGitHub)
	pkg.InstallPath = filepath.Join(paths.Binaries, "tool")

	if err := rem.Remove(pkg, false); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("err = %v, want ErrNotInstalled for missing path", err)
	}
}

func TestCopyEntryPreservesTree(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "bin", "tool"), []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("bin/tool", filepath.Join(src, "alias")); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "copy")
	if err := copyEntry(src, dst); err != nil {
		t.Fatalf("copyEntry: %v", err)
	}

	info, err := os.Stat(filepath.Join(dst, "bin", "tool"))
	if err != nil {
		t.Fatalf("stat copied file: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
	target, err := os.Readlink(filepath.Join(dst, "alias"))
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != "bin/tool" {
		t.Errorf("symlink target = %q", target)
	}
}
