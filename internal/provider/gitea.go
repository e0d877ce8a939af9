package provider

import (
	"context"
	"fmt"

	"github.com/upfetch/upfetch/internal/model"
)

// Gitea talks to a Gitea instance's releases API. Gitea has no central
// host, so baseURL is required.
type Gitea struct {
	client  *Client
	baseURL string
}

func NewGitea(client *Client, token, baseURL string) *Gitea {
	c := client
	if token != "" {
		c = c.WithAuth("Authorization", "token "+token)
	}
	return &Gitea{client: c, baseURL: baseURL}
}

type giteaAssetDTO struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	CreatedAt          string `json:"created_at"`
}

type giteaReleaseDTO struct {
	ID          int64           `json:"id"`
	TagName     string          `json:"tag_name"`
	Name        string          `json:"name"`
	Body        string          `json:"body"`
	Prerelease  bool            `json:"prerelease"`
	Draft       bool            `json:"draft"`
	PublishedAt string          `json:"published_at"`
	Assets      []giteaAssetDTO `json:"assets"`
}

func (g *Gitea) repoURL(source string) (string, error) {
	if g.baseURL == "" {
		return "", fmt.Errorf("gitea provider requires a base URL")
	}
	return fmt.Sprintf("%s/api/v1/repos/%s", g.baseURL, source), nil
}

func (g *Gitea) LatestRelease(ctx context.Context, source string) (*model.Release, error) {
	base, err := g.repoURL(source)
	if err != nil {
		return nil, err
	}
	var dto giteaReleaseDTO
	if err := g.client.GetJSON(ctx, base+"/releases/latest", &dto); err != nil {
		return nil, fmt.Errorf("latest release for %s: %w", source, err)
	}
	return dto.toRelease(), nil
}

func (g *Gitea) ReleaseByTag(ctx context.Context, source, tag string) (*model.Release, error) {
	base, err := g.repoURL(source)
	if err != nil {
		return nil, err
	}
	var dto giteaReleaseDTO
	if err := g.client.GetJSON(ctx, fmt.Sprintf("%s/releases/tags/%s", base, tag), &dto); err != nil {
		return nil, fmt.Errorf("release %s for %s: %w", tag, source, err)
	}
	return dto.toRelease(), nil
}

func (g *Gitea) Releases(ctx context.Context, source string, perPage, maxTotal int) ([]*model.Release, error) {
	base, err := g.repoURL(source)
	if err != nil {
		return nil, err
	}
	if perPage <= 0 {
		perPage = 30
	}

	var releases []*model.Release
	for page := 1; ; page++ {
		var batch []giteaReleaseDTO
		u := fmt.Sprintf("%s/releases?limit=%d&page=%d", base, perPage, page)
		if err := g.client.GetJSON(ctx, u, &batch); err != nil {
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

func (dto giteaReleaseDTO) toRelease() *model.Release {
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
