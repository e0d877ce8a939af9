package install

import (
	"os"
	"path/filepath"
	"strings"
)

// findExecutable locates the binary inside an extracted archive. Probe
// order: bin/<name>, <dir>/<name>, <dir>/<basename(dir)>, then a
// case-insensitive prefix scan over the directory's regular files.
func findExecutable(dir, name string) (string, bool) {
	candidates := []string{
		filepath.Join(dir, "bin", name),
		filepath.Join(dir, name),
		filepath.Join(dir, filepath.Base(dir)),
	}
	for _, candidate := range candidates {
		if isRegularFile(candidate) {
			return candidate, true
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	prefix := strings.ToLower(name)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(entry.Name()), prefix) {
			path := filepath.Join(dir, entry.Name())
			if isRegularFile(path) {
				return path, true
			}
		}
	}
	return "", false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
