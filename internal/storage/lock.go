package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// staleLockThreshold is the age past which a lock is reclaimed even when
// its recorded pid still appears alive.
const staleLockThreshold = 24 * time.Hour

// ErrLockContention means another invocation holds the lock and it is not
// stale.
var ErrLockContention = errors.New("another instance is already running")

// Lock is the cross-process mutual exclusion guarding every mutating
// invocation.
type Lock struct {
	path string
}

// lockInfo is the parsed content of an existing lock file.
type lockInfo struct {
	pid       int
	operation string
	startedAt time.Time
}

// AcquireLock creates the lock file exclusively, recording pid, operation
// and start time. An existing lock is judged for staleness (dead pid, or
// older than 24h) and reclaimed with exactly one retry.
func AcquireLock(path, operation string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	if err := tryCreate(path, operation); err == nil {
		return &Lock{path: path}, nil
	} else if !os.IsExist(err) {
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	info, parseErr := readLockInfo(path)
	if parseErr == nil && !isStale(info) {
		return nil, fmt.Errorf("%w: pid %d performing %q since %s",
			ErrLockContention, info.pid, info.operation, info.startedAt.Format(time.RFC3339))
	}

	// Stale (or unreadable) lock: reclaim and retry exactly once.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale lock: %w", err)
	}
	if err := tryCreate(path, operation); err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: lock reappeared after stale reclaim", ErrLockContention)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	return &Lock{path: path}, nil
}

func tryCreate(path, operation string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	data := fmt.Sprintf("pid=%d\noperation=%s\nstarted_at_unix=%d\n",
		os.Getpid(), operation, time.Now().Unix())
	if _, err := file.WriteString(data); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("write lock data: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close lock file: %w", err)
	}
	return nil
}

// Release deletes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

func readLockInfo(path string) (lockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lockInfo{}, err
	}

	info := lockInfo{pid: -1}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "pid":
			if n, err := strconv.Atoi(value); err == nil {
				info.pid = n
			}
		case "operation":
			info.operation = value
		case "started_at_unix":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				info.startedAt = time.Unix(n, 0).UTC()
			}
		}
	}
	if info.pid < 0 {
		return info, fmt.Errorf("lock file %s has no pid line", path)
	}
	return info, nil
}

// isStale reports whether a lock can be reclaimed: its holder is dead, or
// it has been held past the threshold.
func isStale(info lockInfo) bool {
	alive, err := process.PidExists(int32(info.pid))
	if err == nil && !alive {
		return true
	}
	return !info.startedAt.IsZero() && time.Since(info.startedAt) > staleLockThreshold
}
