// Package desktop writes freedesktop launcher entries and installs icons
// for packages that want desktop integration. Deliberately narrow: icons
// are found by filename scan, not extracted from AppImage internals.
package desktop

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/upfetch/upfetch/internal/model"
)

var iconExtensions = []string{".png", ".svg", ".xpm", ".ico"}

// Service implements the add_icon / create_entry collaborator surface.
type Service struct {
	appsDir  string
	iconsDir string
}

func NewService(appsDir, iconsDir string) *Service {
	return &Service{appsDir: appsDir, iconsDir: iconsDir}
}

// DefaultApplicationsDir is the XDG launcher directory.
func DefaultApplicationsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "applications"), nil
}

// AddIcon finds an icon file inside the install tree and copies it into
// the icons directory, returning the installed icon path.
func (s *Service) AddIcon(name, installPath string, filetype model.Filetype) (string, error) {
	source, err := findIcon(installPath, name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.iconsDir, 0o755); err != nil {
		return "", fmt.Errorf("create icons directory: %w", err)
	}
	dest := filepath.Join(s.iconsDir, name+filepath.Ext(source))
	if err := copyFile(source, dest); err != nil {
		return "", fmt.Errorf("install icon: %w", err)
	}
	return dest, nil
}

// CreateEntry writes <name>.desktop pointing at the executable, returning
// the entry path.
func (s *Service) CreateEntry(name, installPath, execPath, iconPath string, filetype model.Filetype) (string, error) {
	exec := execPath
	if exec == "" {
		exec = installPath
	}

	var sb strings.Builder
	sb.WriteString("[Desktop Entry]\n")
	sb.WriteString("Type=Application\n")
	fmt.Fprintf(&sb, "Name=%s\n", name)
	fmt.Fprintf(&sb, "Exec=%s\n", exec)
	if iconPath != "" {
		fmt.Fprintf(&sb, "Icon=%s\n", iconPath)
	}
	sb.WriteString("Terminal=false\n")

	if err := os.MkdirAll(s.appsDir, 0o755); err != nil {
		return "", fmt.Errorf("create applications directory: %w", err)
	}
	path := filepath.Join(s.appsDir, name+".desktop")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write desktop entry: %w", err)
	}
	return path, nil
}

// RemoveEntry deletes the launcher entry. A missing entry is not an
// error.
func (s *Service) RemoveEntry(name string) error {
	path := filepath.Join(s.appsDir, name+".desktop")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	return nil
}

// findIcon walks the install tree for an icon file, preferring one whose
// name contains the package name.
func findIcon(installPath, name string) (string, error) {
	info, err := os.Stat(installPath)
	if err != nil {
		return "", fmt.Errorf("inspect install path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("no icon available for %s", name)
	}

	var named, first string
	lowerName := strings.ToLower(name)
	err = filepath.WalkDir(installPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		for _, iconExt := range iconExtensions {
			if ext != iconExt {
				continue
			}
			if first == "" {
				first = path
			}
			if strings.Contains(strings.ToLower(d.Name()), lowerName) && named == "" {
				named = path
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan for icons: %w", err)
	}

	switch {
	case named != "":
		return named, nil
	case first != "":
		return first, nil
	default:
		return "", fmt.Errorf("no icon found under %s", installPath)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
