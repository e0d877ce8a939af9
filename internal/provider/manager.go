package provider

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/upfetch/upfetch/internal/model"
)

// scanDepth is how many recent releases preview and nightly channels look
// through when the newest release alone is not enough.
const scanDepth = 20

// CredentialFunc returns the token and base URL configured for a backend.
// Either value may be empty.
type CredentialFunc func(p model.Provider) (token, baseURL string)

// Manager dispatches package operations to the right backend adapter and
// applies channel selection on top of raw release lists.
type Manager struct {
	client *Client
	creds  CredentialFunc

	// Progress, when set, receives byte counts during downloads.
	Progress ProgressFunc
}

func NewManager(client *Client, creds CredentialFunc) *Manager {
	if creds == nil {
		creds = func(model.Provider) (string, string) { return "", "" }
	}
	return &Manager{client: client, creds: creds}
}

// adapterFor builds the adapter for a package. The package's own base URL
// wins over the configured one so a single store can mix instances.
func (m *Manager) adapterFor(pkg *model.Package) (Adapter, error) {
	token, baseURL := m.creds(pkg.Provider)
	if pkg.BaseURL != "" {
		baseURL = pkg.BaseURL
	}

	switch pkg.Provider {
	case model.ProviderGitHub:
		return NewGitHub(m.client, token, baseURL), nil
	case model.ProviderGitLab:
		return NewGitLab(m.client, token, baseURL), nil
	case model.ProviderGitea:
		return NewGitea(m.client, token, baseURL), nil
	case model.ProviderDirect:
		return NewDirect(m.client), nil
	case model.ProviderScraper:
		return NewScraper(m.client), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", pkg.Provider)
	}
}

// LatestRelease fetches the newest release on the package's channel.
func (m *Manager) LatestRelease(ctx context.Context, pkg *model.Package) (*model.Release, error) {
	adapter, err := m.adapterFor(pkg)
	if err != nil {
		return nil, err
	}

	switch pkg.Channel {
	case model.ChannelPreview:
		return latestPreview(ctx, adapter, pkg.Source)
	case model.ChannelNightly:
		return latestNightly(ctx, adapter, pkg.Source)
	default:
		return adapter.LatestRelease(ctx, pkg.Source)
	}
}

// ReleaseByTag fetches one specific release, bypassing channel selection.
func (m *Manager) ReleaseByTag(ctx context.Context, pkg *model.Package, tag string) (*model.Release, error) {
	adapter, err := m.adapterFor(pkg)
	if err != nil {
		return nil, err
	}
	return adapter.ReleaseByTag(ctx, pkg.Source, tag)
}

// CheckForUpdates fetches the newest release, using a conditional request
// when the backend supports it so unchanged endpoints cost a single probe.
// Returns ErrNotModified when nothing changed since the last upgrade.
func (m *Manager) CheckForUpdates(ctx context.Context, pkg *model.Package) (*model.Release, error) {
	adapter, err := m.adapterFor(pkg)
	if err != nil {
		return nil, err
	}

	if cf, ok := adapter.(ConditionalFetcher); ok && !pkg.LastUpgraded.IsZero() {
		return cf.LatestReleaseIfModifiedSince(ctx, pkg.Source, pkg.LastUpgraded)
	}

	switch pkg.Channel {
	case model.ChannelPreview:
		return latestPreview(ctx, adapter, pkg.Source)
	case model.ChannelNightly:
		return latestNightly(ctx, adapter, pkg.Source)
	default:
		return adapter.LatestRelease(ctx, pkg.Source)
	}
}

// DownloadAsset streams an asset into destDir and returns the final path.
func (m *Manager) DownloadAsset(ctx context.Context, asset model.Asset, destDir string) (string, error) {
	destPath := filepath.Join(destDir, asset.Name)
	if err := m.client.DownloadFile(ctx, asset.DownloadURL, destPath, m.Progress); err != nil {
		return "", fmt.Errorf("download %s: %w", asset.Name, err)
	}
	return destPath, nil
}

// latestPreview picks the newest non-draft release, prereleases included.
func latestPreview(ctx context.Context, adapter Adapter, source string) (*model.Release, error) {
	releases, err := adapter.Releases(ctx, source, scanDepth, scanDepth)
	if err != nil {
		return nil, err
	}
	for _, rel := range releases {
		if !rel.Draft {
			return rel, nil
		}
	}
	return nil, fmt.Errorf("%w on preview channel for %s", ErrNoReleases, source)
}

// latestNightly picks the most recently published rolling build. Nightly
// tags carry no usable version number, so publish time decides.
func latestNightly(ctx context.Context, adapter Adapter, source string) (*model.Release, error) {
	releases, err := adapter.Releases(ctx, source, scanDepth, scanDepth)
	if err != nil {
		return nil, err
	}

	var best *model.Release
	for _, rel := range releases {
		if rel.Draft || !model.IsNightlyTag(rel.Tag) {
			continue
		}
		if best == nil || rel.PublishedAt.After(best.PublishedAt) {
			best = rel
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w on nightly channel for %s", ErrNoReleases, source)
	}
	return best, nil
}
