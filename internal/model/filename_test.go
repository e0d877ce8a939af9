package model

import (
	"testing"
	"time"
)

func TestInferOS(t *testing.T) {
	tests := []struct {
		filename string
		want     OSKind
	}{
		{"tool-linux-x86_64.tar.gz", OSLinux},
		{"tool-x86_64-unknown-linux-musl.tar.gz", OSLinux},
		{"tool.AppImage", OSLinux},
		{"tool-darwin-arm64.zip", OSMacOS},
		{"Tool-1.2.dmg", OSMacOS},
		{"tool-windows-amd64.zip", OSWindows},
		{"tool-win64.exe", OSWindows},
		{"setup.msi", OSWindows},
		{"tool-freebsd-amd64", OSFreeBSD},
		{"app.apk", OSAndroid},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := InferOS(tt.filename)
			if got == nil {
				t.Fatalf("InferOS(%q) = nil, want %s", tt.filename, tt.want)
			}
			if *got != tt.want {
				t.Errorf("InferOS(%q) = %s, want %s", tt.filename, *got, tt.want)
			}
		})
	}

	t.Run("no token means no hint", func(t *testing.T) {
		if got := InferOS("tool-1.2.3.tar.gz"); got != nil {
			t.Errorf("expected nil, got %s", *got)
		}
	})

	t.Run("win does not fire inside darwin", func(t *testing.T) {
		got := InferOS("tool-darwin-amd64.tar.gz")
		if got == nil || *got != OSMacOS {
			t.Errorf("expected macos, got %v", got)
		}
	})
}

func TestInferArch(t *testing.T) {
	tests := []struct {
		filename string
		want     CPUArch
	}{
		{"tool-linux-x86_64.tar.gz", ArchX86_64},
		{"tool-linux-amd64.tar.gz", ArchX86_64},
		{"tool-win-x64.zip", ArchX86_64},
		{"tool-linux-aarch64.tar.gz", ArchAarch64},
		{"tool-darwin-arm64.zip", ArchAarch64},
		{"tool-linux-armv7.tar.gz", ArchArm},
		{"tool-linux-arm.tar.gz", ArchArm},
		{"tool-i386.deb", ArchX86},
		{"tool-win32.zip", ArchX86},
		// Ambiguous bare x86 defaults to 64-bit.
		{"tool-x86.tar.gz", ArchX86_64},
		{"tool-x86-32bit.tar.gz", ArchX86},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := InferArch(tt.filename)
			if got == nil {
				t.Fatalf("InferArch(%q) = nil, want %s", tt.filename, tt.want)
			}
			if *got != tt.want {
				t.Errorf("InferArch(%q) = %s, want %s", tt.filename, *got, tt.want)
			}
		})
	}

	t.Run("no token means no hint", func(t *testing.T) {
		if got := InferArch("tool-1.2.3.tar.gz"); got != nil {
			t.Errorf("expected nil, got %s", *got)
		}
	})
}

func TestInferFiletype(t *testing.T) {
	tests := []struct {
		filename string
		want     Filetype
	}{
		{"tool.AppImage", FiletypeAppImage},
		{"tool.tar.gz", FiletypeArchive},
		{"tool.tgz", FiletypeArchive},
		{"tool.tar.bz2", FiletypeArchive},
		{"tool.tar.xz", FiletypeArchive},
		{"tool.tar.zst", FiletypeArchive},
		{"tool.zip", FiletypeArchive},
		{"tool.7z", FiletypeArchive},
		{"tool.gz", FiletypeCompressed},
		{"tool.bz2", FiletypeCompressed},
		{"tool.xz", FiletypeCompressed},
		{"checksums.txt.sha256", FiletypeChecksum},
		{"tool.tar.gz.sig", FiletypeChecksum},
		{"tool.asc", FiletypeChecksum},
		{"tool.sum", FiletypeChecksum},
		{"tool.exe", FiletypeWinExe},
		{"Tool.dmg", FiletypeMacApp},
		{"tool", FiletypeBinary},
		{"tool-linux-amd64", FiletypeBinary},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := InferFiletype(tt.filename); got != tt.want {
				t.Errorf("InferFiletype(%q) = %s, want %s", tt.filename, got, tt.want)
			}
		})
	}
}

func TestNewAsset(t *testing.T) {
	a := NewAsset("https://example.com/tool-v1.2.3-linux-x86_64.tar.gz", 1,
		"tool-v1.2.3-linux-x86_64.tar.gz", 1024, time.Now())

	if a.Filetype != FiletypeArchive {
		t.Errorf("filetype = %s, want archive", a.Filetype)
	}
	if a.TargetOS == nil || *a.TargetOS != OSLinux {
		t.Errorf("target OS = %v, want linux", a.TargetOS)
	}
	if a.TargetArch == nil || *a.TargetArch != ArchX86_64 {
		t.Errorf("target arch = %v, want x86_64", a.TargetArch)
	}
}

func TestPackageIdentity(t *testing.T) {
	base := NewPackage("tool", "owner/tool", FiletypeAuto, ChannelStable, ProviderGitHub)

	t.Run("same identity", func(t *testing.T) {
		other := NewPackage("tool", "owner/tool", FiletypeBinary, ChannelStable, ProviderGitHub)
		if !base.SameIdentity(other) {
			t.Error("filetype should not participate in identity")
		}
	})

	t.Run("differs by channel", func(t *testing.T) {
		other := NewPackage("tool", "owner/tool", FiletypeAuto, ChannelNightly, ProviderGitHub)
		if base.SameIdentity(other) {
			t.Error("channel should participate in identity")
		}
	})

	t.Run("differs by base URL", func(t *testing.T) {
		other := NewPackage("tool", "owner/tool", FiletypeAuto, ChannelStable, ProviderGitHub)
		other.BaseURL = "https://ghe.example.com"
		if base.SameIdentity(other) {
			t.Error("base URL should participate in identity")
		}
	})
}
