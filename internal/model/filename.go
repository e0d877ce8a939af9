package model

import "strings"

// Asset filenames encode their target platform in loosely separated tokens
// ("tool-v1.2.3-linux-x86_64.tar.gz"). The inference here matches markers
// only at token boundaries so that "win" does not fire inside "darwin".

var archiveExtensions = []string{
	".zip", ".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tbz", ".tbz2",
	".tar.xz", ".txz", ".tar.zst", ".tzst", ".7z", ".rar",
}

var compressedExtensions = []string{".gz", ".br", ".bz2", ".xz", ".zst"}

var checksumExtensions = []string{
	".sha256", ".sha512", ".sha1", ".md5", ".sig", ".asc", ".minisig",
	".sum", ".pem", ".sbom",
}

// InferOS guesses the target operating system from an asset filename.
// Returns nil when the name carries no recognizable OS token.
func InferOS(filename string) *OSKind {
	name := strings.ToLower(filename)

	switch {
	case containsMarker(name, ".exe", ".msi", ".dll", "windows", "win64", "win32", "win", "msvc"):
		return osPtr(OSWindows)
	case containsMarker(name, "ios", "iphone", "ipad"):
		return osPtr(OSIos)
	case containsMarker(name, "macos", "darwin", "osx", "mac", ".dmg", ".app"):
		return osPtr(OSMacOS)
	case containsMarker(name, "android", ".apk", ".aab"):
		return osPtr(OSAndroid)
	case containsMarker(name, "linux", "gnu", ".appimage", "musl"):
		return osPtr(OSLinux)
	case containsMarker(name, "freebsd", "fbsd"):
		return osPtr(OSFreeBSD)
	case containsMarker(name, "openbsd", "obsd"):
		return osPtr(OSOpenBSD)
	case containsMarker(name, "netbsd", "nbsd"):
		return osPtr(OSNetBSD)
	}
	return nil
}

// InferArch guesses the target CPU architecture from an asset filename.
func InferArch(filename string) *CPUArch {
	name := strings.ToLower(filename)

	switch {
	case containsMarker(name, "aarch64", "arm64", "armv8"):
		return archPtr(ArchAarch64)
	case containsMarker(name, "armv7", "armv7l", "armv6", "arm"):
		return archPtr(ArchArm)
	case containsMarker(name, "x86_64", "x86-64", "amd64", "x64", "win64"):
		return archPtr(ArchX86_64)
	case containsMarker(name, "x86_32", "x86-32", "win32", "i386", "i686"):
		return archPtr(ArchX86)
	case containsMarker(name, "x86"):
		// Bare "x86" is ambiguous; treat as 64-bit unless the name says 32.
		if strings.Contains(name, "32") {
			return archPtr(ArchX86)
		}
		return archPtr(ArchX86_64)
	}
	return nil
}

// InferFiletype classifies an asset filename by extension.
func InferFiletype(filename string) Filetype {
	name := strings.ToLower(filename)

	if strings.HasSuffix(name, ".appimage") {
		return FiletypeAppImage
	}
	if strings.HasSuffix(name, ".exe") {
		return FiletypeWinExe
	}
	if strings.HasSuffix(name, ".dmg") || strings.HasSuffix(name, ".app") {
		return FiletypeMacApp
	}
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(name, ext) {
			return FiletypeArchive
		}
	}
	for _, ext := range checksumExtensions {
		if strings.HasSuffix(name, ext) {
			return FiletypeChecksum
		}
	}
	for _, ext := range compressedExtensions {
		if strings.HasSuffix(name, ext) {
			return FiletypeCompressed
		}
	}
	return FiletypeBinary
}

// HasExtension reports whether the filename carries any extension at all.
// Extensionless names are a strong hint of a raw binary.
func HasExtension(filename string) bool {
	base := filename
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	return dot > 0 && dot < len(base)-1
}

// containsMarker reports whether any marker appears in name at a token
// boundary. Markers beginning with a dot match as filename suffixes.
func containsMarker(name string, markers ...string) bool {
	for _, marker := range markers {
		if strings.HasPrefix(marker, ".") {
			if strings.HasSuffix(name, marker) {
				return true
			}
			continue
		}
		for index := strings.Index(name, marker); index >= 0; {
			validStart := index == 0 || !isAlnum(name[index-1])
			end := index + len(marker)
			validEnd := end >= len(name) || !isAlnum(name[end])
			if validStart && validEnd {
				return true
			}
			next := strings.Index(name[index+1:], marker)
			if next < 0 {
				break
			}
			index += 1 + next
		}
	}
	return false
}

func osPtr(k OSKind) *OSKind     { return &k }
func archPtr(a CPUArch) *CPUArch { return &a }
