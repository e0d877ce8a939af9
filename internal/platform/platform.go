// Package platform detects the host operating system, architecture and
// Linux distribution, and decides the filetype priority used when a
// package's filetype is set to auto.
//
// Distribution details come from gopsutil with graceful fallback: when
// detection fails the host still carries OS and architecture, which is all
// asset resolution needs.
package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/upfetch/upfetch/internal/model"
)

// Host describes the machine packages are installed onto.
type Host struct {
	OS   model.OSKind
	Arch model.CPUArch

	// Linux only; empty when distro detection failed.
	Distro        string
	DistroVersion string
}

// Detect inspects the running system.
func Detect(ctx context.Context) (*Host, error) {
	os, err := osFromGOOS(runtime.GOOS)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	arch, err := archFromGOARCH(runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	h := &Host{OS: os, Arch: arch}

	if os == model.OSLinux {
		platform, _, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			// Distro detection is best-effort; OS/arch is enough to resolve assets.
			return h, nil
		}
		h.Distro = platform
		h.DistroVersion = version
	}

	return h, nil
}

func osFromGOOS(goos string) (model.OSKind, error) {
	switch goos {
	case "linux":
		return model.OSLinux, nil
	case "darwin":
		return model.OSMacOS, nil
	case "windows":
		return model.OSWindows, nil
	case "freebsd":
		return model.OSFreeBSD, nil
	case "openbsd":
		return model.OSOpenBSD, nil
	case "netbsd":
		return model.OSNetBSD, nil
	default:
		return "", fmt.Errorf("unsupported operating system %q", goos)
	}
}

func archFromGOARCH(goarch string) (model.CPUArch, error) {
	switch goarch {
	case "amd64":
		return model.ArchX86_64, nil
	case "arm64":
		return model.ArchAarch64, nil
	case "arm":
		return model.ArchArm, nil
	case "386":
		return model.ArchX86, nil
	default:
		return "", fmt.Errorf("unsupported architecture %q", goarch)
	}
}

// FiletypePriority returns the order in which concrete filetypes are tried
// when resolving a package declared as auto. The first type present among a
// release's assets wins.
func (h *Host) FiletypePriority() []model.Filetype {
	switch h.OS {
	case model.OSLinux:
		return []model.Filetype{
			model.FiletypeAppImage,
			model.FiletypeArchive,
			model.FiletypeCompressed,
			model.FiletypeBinary,
		}
	case model.OSMacOS:
		return []model.Filetype{
			model.FiletypeArchive,
			model.FiletypeCompressed,
			model.FiletypeMacApp,
			model.FiletypeBinary,
		}
	case model.OSWindows:
		return []model.Filetype{
			model.FiletypeArchive,
			model.FiletypeCompressed,
			model.FiletypeWinExe,
			model.FiletypeBinary,
		}
	default:
		return []model.Filetype{
			model.FiletypeArchive,
			model.FiletypeCompressed,
			model.FiletypeBinary,
		}
	}
}
