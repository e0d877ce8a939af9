// Package resolve picks the best asset out of a release for the host
// platform: a compatibility filter removes assets built for other systems,
// then an additive score ranks the survivors.
package resolve

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/upfetch/upfetch/internal/model"
	"github.com/upfetch/upfetch/internal/platform"
)

// ErrIncompatible means no asset in the release survives the compatibility
// and filetype filters.
var ErrIncompatible = errors.New("no compatible asset found")

const (
	minPlausibleSize = 100_000
	maxPlausibleSize = 500_000_000
)

// Resolver scores release assets against a fixed host.
type Resolver struct {
	host *platform.Host
}

// Candidate pairs an asset with its computed score, for diagnostics.
type Candidate struct {
	Asset model.Asset
	Score int
}

func New(host *platform.Host) *Resolver {
	return &Resolver{host: host}
}

// Resolve returns the best-scoring compatible asset of the package's
// filetype. A package declared auto is first narrowed to a concrete
// filetype via the host priority order.
func (r *Resolver) Resolve(release *model.Release, pkg *model.Package) (model.Asset, error) {
	candidates, err := r.Candidates(release, pkg)
	if err != nil {
		return model.Asset{}, err
	}
	if len(candidates) == 0 {
		return model.Asset{}, fmt.Errorf("%w for %s/%s in release %q",
			ErrIncompatible, r.host.OS, r.host.Arch, release.Tag)
	}
	return candidates[0].Asset, nil
}

// Candidates returns every compatible asset of the resolved filetype,
// sorted by descending score.
func (r *Resolver) Candidates(release *model.Release, pkg *model.Package) ([]Candidate, error) {
	target := pkg.Filetype
	if target == model.FiletypeAuto {
		resolved, err := r.ResolveAutoFiletype(release)
		if err != nil {
			return nil, err
		}
		target = resolved
	}

	var candidates []Candidate
	for _, asset := range release.Assets {
		if asset.Filetype != target || !r.Compatible(asset) {
			continue
		}
		candidates = append(candidates, Candidate{
			Asset: asset,
			Score: r.Score(asset, pkg),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// ResolveAutoFiletype picks the first filetype from the host priority
// order that appears among the release's assets.
func (r *Resolver) ResolveAutoFiletype(release *model.Release) (model.Filetype, error) {
	for _, filetype := range r.host.FiletypePriority() {
		for _, asset := range release.Assets {
			if asset.Filetype == filetype {
				return filetype, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no installable filetype among release assets", ErrIncompatible)
}

// Compatible reports whether an asset could run on the host. Declared OS
// must match exactly; a declared arch must match exactly or hit a known
// fallback (x86 binaries on x86_64, arm on aarch64). Assets with no
// platform hints pass permissively.
func (r *Resolver) Compatible(asset model.Asset) bool {
	if asset.TargetOS != nil && *asset.TargetOS != r.host.OS {
		return false
	}
	if asset.TargetArch != nil {
		return *asset.TargetArch == r.host.Arch || r.fallbackArch(*asset.TargetArch)
	}
	return true
}

func (r *Resolver) fallbackArch(target model.CPUArch) bool {
	switch {
	case r.host.Arch == model.ArchX86_64 && target == model.ArchX86:
		return true
	case r.host.Arch == model.ArchAarch64 && target == model.ArchArm:
		return true
	default:
		return false
	}
}

// Score computes the additive ranking of an asset for a package. Pattern
// bonuses and penalties dominate every other term.
func (r *Resolver) Score(asset model.Asset, pkg *model.Package) int {
	name := strings.ToLower(asset.Name)
	score := 0

	if asset.TargetArch != nil {
		switch {
		case *asset.TargetArch == r.host.Arch:
			score += 80
		case r.fallbackArch(*asset.TargetArch):
			score += 30
		}
	}

	switch asset.Filetype {
	case model.FiletypeArchive:
		switch {
		case strings.HasSuffix(name, ".tar.bz2") || strings.HasSuffix(name, ".tbz"):
			score += 15
		case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
			score += 10
		case strings.HasSuffix(name, ".zip"):
			score += 5
		}
	case model.FiletypeCompressed:
		switch {
		case strings.HasSuffix(name, ".bz2"):
			score += 10
		case strings.HasSuffix(name, ".gz"):
			score += 5
		}
	case model.FiletypeBinary:
		if !model.HasExtension(name) {
			score += 10
		}
	}

	if strings.Contains(name, "static") {
		score += 5
	}
	if strings.Contains(name, "debug") || strings.Contains(name, "symbols") {
		score -= 20
	}
	if !strings.Contains(name, strings.ToLower(pkg.Name)) {
		score -= 40
	}
	if asset.Size < minPlausibleSize || asset.Size > maxPlausibleSize {
		score -= 20
	}

	if pkg.MatchPattern != "" && strings.Contains(name, strings.ToLower(pkg.MatchPattern)) {
		score += 100
	}
	if pkg.ExcludePattern != "" && strings.Contains(name, strings.ToLower(pkg.ExcludePattern)) {
		score -= 100
	}

	return score
}
