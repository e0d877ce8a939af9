package storage

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// PathFile maintains paths.sh, the shell fragment users source to put
// archive install directories on PATH. One export line per directory. An
// in-process mutex guards concurrent edits; cross-process edits are
// already serialized by the lock.
type PathFile struct {
	mu   sync.Mutex
	path string
}

func NewPathFile(path string) *PathFile {
	return &PathFile{path: path}
}

// Add appends an export line for dir if one is not already present.
func (f *PathFile) Add(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines, err := f.readLines()
	if err != nil {
		return err
	}

	line := exportLine(dir)
	for _, existing := range lines {
		if existing == line {
			return nil
		}
	}
	return f.writeLines(append(lines, line))
}

// Remove deletes the export line for dir. Missing lines are not an error.
func (f *PathFile) Remove(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines, err := f.readLines()
	if err != nil {
		return err
	}

	line := exportLine(dir)
	kept := lines[:0]
	for _, existing := range lines {
		if existing != line {
			kept = append(kept, existing)
		}
	}
	return f.writeLines(kept)
}

func (f *PathFile) readLines() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read PATH file: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (f *PathFile) writeLines(lines []string) error {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write temporary PATH file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename PATH file: %w", err)
	}
	return nil
}

// exportLine renders the shell line for a directory, escaping the two
// characters that would break out of the double-quoted string.
func exportLine(dir string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`).Replace(dir)
	return fmt.Sprintf(`export PATH="%s:$PATH"`, escaped)
}
