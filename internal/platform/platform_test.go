package platform

import (
	"context"
	"runtime"
	"testing"

	"github.com/upfetch/upfetch/internal/model"
)

func TestDetect(t *testing.T) {
	t.Run("returns host for current platform", func(t *testing.T) {
		h, err := Detect(context.Background())
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if h.OS == "" {
			t.Error("OS should be set")
		}
		if h.Arch == "" {
			t.Error("Arch should be set")
		}
	})

	t.Run("maps GOOS and GOARCH", func(t *testing.T) {
		h, err := Detect(context.Background())
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if runtime.GOOS == "linux" && h.OS != model.OSLinux {
			t.Errorf("OS = %s, want linux", h.OS)
		}
		if runtime.GOARCH == "amd64" && h.Arch != model.ArchX86_64 {
			t.Errorf("Arch = %s, want x86_64", h.Arch)
		}
	})
}

func TestFiletypePriority(t *testing.T) {
	t.Run("linux prefers appimage first", func(t *testing.T) {
		h := &Host{OS: model.OSLinux, Arch: model.ArchX86_64}
		prio := h.FiletypePriority()
		if prio[0] != model.FiletypeAppImage {
			t.Errorf("first priority = %s, want appimage", prio[0])
		}
		if prio[len(prio)-1] != model.FiletypeBinary {
			t.Errorf("last priority = %s, want binary", prio[len(prio)-1])
		}
	})

	t.Run("windows includes winexe", func(t *testing.T) {
		h := &Host{OS: model.OSWindows, Arch: model.ArchX86_64}
		found := false
		for _, ft := range h.FiletypePriority() {
			if ft == model.FiletypeWinExe {
				found = true
			}
		}
		if !found {
			t.Error("windows priority should include winexe")
		}
	})
}
