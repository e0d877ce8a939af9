package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/upfetch/upfetch/internal/model"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHub talks to the GitHub releases API (or a GitHub Enterprise
// instance via baseURL).
type GitHub struct {
	client  *Client
	baseURL string
}

// NewGitHub creates the adapter. token may be empty for unauthenticated
// requests; baseURL overrides api.github.com for enterprise hosts.
func NewGitHub(client *Client, token, baseURL string) *GitHub {
	c := client.WithHeader("Accept", "application/vnd.github.v3+json")
	if token != "" {
		c = c.WithAuth("Authorization", "Bearer "+token)
	}
	if baseURL == "" {
		baseURL = defaultGitHubAPI
	}
	return &GitHub{client: c, baseURL: baseURL}
}

type githubAssetDTO struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	CreatedAt          string `json:"created_at"`
}

type githubReleaseDTO struct {
	ID          int64            `json:"id"`
	TagName     string           `json:"tag_name"`
	Name        string           `json:"name"`
	Body        string           `json:"body"`
	Prerelease  bool             `json:"prerelease"`
	Draft       bool             `json:"draft"`
	PublishedAt string           `json:"published_at"`
	Assets      []githubAssetDTO `json:"assets"`
}

func (g *GitHub) LatestRelease(ctx context.Context, source string) (*model.Release, error) {
	var dto githubReleaseDTO
	url := fmt.Sprintf("%s/repos/%s/releases/latest", g.baseURL, source)
	if err := g.client.GetJSON(ctx, url, &dto); err != nil {
		return nil, fmt.Errorf("latest release for %s: %w", source, err)
	}
	return dto.toRelease(), nil
}

func (g *GitHub) ReleaseByTag(ctx context.Context, source, tag string) (*model.Release, error) {
	var dto githubReleaseDTO
	url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", g.baseURL, source, tag)
	if err := g.client.GetJSON(ctx, url, &dto); err != nil {
		return nil, fmt.Errorf("release %s for %s: %w", tag, source, err)
	}
	return dto.toRelease(), nil
}

func (g *GitHub) Releases(ctx context.Context, source string, perPage, maxTotal int) ([]*model.Release, error) {
	if perPage <= 0 {
		perPage = 30
	}

	var releases []*model.Release
	for page := 1; ; page++ {
		var batch []githubReleaseDTO
		url := fmt.Sprintf("%s/repos/%s/releases?per_page=%d&page=%d", g.baseURL, source, perPage, page)
		if err := g.client.GetJSON(ctx, url, &batch); err != nil {
			return nil, fmt.Errorf("releases page %d for %s: %w", page, source, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, dto := range batch {
			releases = append(releases, dto.toRelease())
		}
		if maxTotal > 0 && len(releases) >= maxTotal {
			releases = releases[:maxTotal]
			break
		}
		if len(batch) < perPage {
			break
		}
	}
	return releases, nil
}

func (dto githubReleaseDTO) toRelease() *model.Release {
	rel := &model.Release{
		ID:          dto.ID,
		Tag:         dto.TagName,
		Name:        dto.Name,
		Body:        dto.Body,
		Draft:       dto.Draft,
		Prerelease:  dto.Prerelease,
		PublishedAt: parseTimestamp(dto.PublishedAt),
		Version:     versionFromTag(dto.TagName, dto.Prerelease),
	}
	for _, a := range dto.Assets {
		rel.Assets = append(rel.Assets, model.NewAsset(
			a.BrowserDownloadURL, a.ID, a.Name, a.Size, parseTimestamp(a.CreatedAt)))
	}
	return rel
}

// versionFromTag parses a tag leniently: unparseable tags become 0.0.0 so
// that nightly-style releases still flow through the model.
func versionFromTag(tag string, prerelease bool) model.Version {
	v, err := model.ParseVersion(tag)
	if err != nil {
		v = model.Version{}
	}
	v.Prerelease = v.Prerelease || prerelease
	return v
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
