package model

import (
	"fmt"
	"strings"
)

// Provider identifies a release-hosting backend.
type Provider string

const (
	ProviderGitHub  Provider = "github"
	ProviderGitLab  Provider = "gitlab"
	ProviderGitea   Provider = "gitea"
	ProviderDirect  Provider = "direct"
	ProviderScraper Provider = "scraper"
)

// ParseProvider converts a user-supplied provider name.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(s) {
	case "github":
		return ProviderGitHub, nil
	case "gitlab":
		return ProviderGitLab, nil
	case "gitea":
		return ProviderGitea, nil
	case "direct", "http":
		return ProviderDirect, nil
	case "scraper", "html":
		return ProviderScraper, nil
	default:
		return "", fmt.Errorf("unknown provider %q", s)
	}
}

func (p Provider) String() string { return string(p) }

// Channel is a release-maturity track used to filter releases.
type Channel string

const (
	ChannelStable  Channel = "stable"
	ChannelPreview Channel = "preview"
	ChannelNightly Channel = "nightly"
)

func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(s) {
	case "stable", "":
		return ChannelStable, nil
	case "preview", "prerelease":
		return ChannelPreview, nil
	case "nightly":
		return ChannelNightly, nil
	default:
		return "", fmt.Errorf("unknown channel %q", s)
	}
}

func (c Channel) String() string { return string(c) }

// nightlyMarkers identify rolling-build tags that carry no meaningful
// version number. Nightly packages compare by publish time instead.
var nightlyMarkers = []string{"nightly", "canary", "edge", "unstable"}

// IsNightlyTag reports whether a release tag belongs to a rolling channel.
func IsNightlyTag(tag string) bool {
	lower := strings.ToLower(tag)
	for _, m := range nightlyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Filetype is the installation strategy an asset requires.
type Filetype string

const (
	FiletypeAuto       Filetype = "auto"
	FiletypeAppImage   Filetype = "appimage"
	FiletypeArchive    Filetype = "archive"
	FiletypeCompressed Filetype = "compressed"
	FiletypeBinary     Filetype = "binary"
	FiletypeChecksum   Filetype = "checksum"
	FiletypeWinExe     Filetype = "winexe"
	FiletypeMacApp     Filetype = "macapp"
	FiletypeUnknown    Filetype = "unknown"
)

func ParseFiletype(s string) (Filetype, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return FiletypeAuto, nil
	case "appimage":
		return FiletypeAppImage, nil
	case "archive":
		return FiletypeArchive, nil
	case "compressed":
		return FiletypeCompressed, nil
	case "binary", "bin":
		return FiletypeBinary, nil
	default:
		return "", fmt.Errorf("unknown filetype %q", s)
	}
}

func (f Filetype) String() string { return string(f) }

// Installable reports whether assets of this type can be installed at all.
// Checksum and signature companions are metadata, never candidates.
func (f Filetype) Installable() bool {
	switch f {
	case FiletypeChecksum, FiletypeUnknown:
		return false
	default:
		return true
	}
}

// OSKind is an operating system inferred from an asset filename.
type OSKind string

const (
	OSLinux   OSKind = "linux"
	OSMacOS   OSKind = "macos"
	OSWindows OSKind = "windows"
	OSFreeBSD OSKind = "freebsd"
	OSOpenBSD OSKind = "openbsd"
	OSNetBSD  OSKind = "netbsd"
	OSAndroid OSKind = "android"
	OSIos     OSKind = "ios"
)

// CPUArch is a processor architecture inferred from an asset filename.
type CPUArch string

const (
	ArchX86_64  CPUArch = "x86_64"
	ArchX86     CPUArch = "x86"
	ArchAarch64 CPUArch = "aarch64"
	ArchArm     CPUArch = "arm"
)
