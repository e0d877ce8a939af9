package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed release version. Ordering compares major, minor and
// patch numerically, then ranks a final release above a prerelease with the
// same triplet.
type Version struct {
	Major      int  `json:"major"`
	Minor      int  `json:"minor"`
	Patch      int  `json:"patch"`
	Prerelease bool `json:"is_prerelease"`
}

// tagPrefixes are stripped from release tags before parsing, after the
// leading v/V.
var tagPrefixes = []string{"release-", "rel-", "version-", "ver-"}

// prereleaseMarkers flag a tag as a prerelease build.
var prereleaseMarkers = []string{"alpha", "beta", "rc", "pre", "preview", "dev", "snapshot"}

// CleanTag normalizes a release tag into a bare version string.
func CleanTag(tag string) string {
	s := strings.TrimSpace(tag)
	lower := strings.ToLower(s)
	for _, p := range tagPrefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			lower = lower[len(p):]
			break
		}
	}
	if strings.HasPrefix(lower, "v") {
		s = s[1:]
	}
	return s
}

// ParseVersion parses a cleaned tag such as "1.2.3" or "1.2.3-rc1".
// Missing minor/patch components default to zero.
func ParseVersion(tag string) (Version, error) {
	s := CleanTag(tag)
	if s == "" {
		return Version{}, fmt.Errorf("cannot parse empty version")
	}

	pre := hasPrereleaseMarker(s)
	// Cut trailing prerelease/build metadata before splitting the triplet.
	if i := strings.IndexAny(s, "-+~"); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}

	nums := [3]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version component %q in tag %q", part, tag)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Prerelease: pre}, nil
}

func hasPrereleaseMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range prereleaseMarkers {
		if i := strings.Index(lower, m); i >= 0 {
			if i == 0 || !isAlnum(lower[i-1]) {
				return true
			}
		}
	}
	return false
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return sign(v.Major - other.Major)
	}
	if v.Minor != other.Minor {
		return sign(v.Minor - other.Minor)
	}
	if v.Patch != other.Patch {
		return sign(v.Patch - other.Patch)
	}
	if v.Prerelease != other.Prerelease {
		if v.Prerelease {
			return -1
		}
		return 1
	}
	return 0
}

// NewerThan reports whether v is strictly newer than other.
func (v Version) NewerThan(other Version) bool {
	return v.Compare(other) > 0
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease {
		s += "-pre"
	}
	return s
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
