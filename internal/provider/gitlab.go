package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/upfetch/upfetch/internal/model"
)

const defaultGitLabAPI = "https://gitlab.com"

// GitLab talks to the GitLab releases API. Project paths are URL-encoded
// into the v4 projects endpoint.
type GitLab struct {
	client  *Client
	baseURL string
}

func NewGitLab(client *Client, token, baseURL string) *GitLab {
	c := client
	if token != "" {
		c = c.WithAuth("PRIVATE-TOKEN", token)
	}
	if baseURL == "" {
		baseURL = defaultGitLabAPI
	}
	return &GitLab{client: c, baseURL: baseURL}
}

type gitlabLinkDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	URL            string `json:"url"`
	DirectAssetURL string `json:"direct_asset_url"`
}

type gitlabSourceDTO struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

type gitlabAssetsDTO struct {
	Count   int64             `json:"count"`
	Sources []gitlabSourceDTO `json:"sources"`
	Links   []gitlabLinkDTO   `json:"links"`
}

type gitlabReleaseDTO struct {
	TagName         string          `json:"tag_name"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	CreatedAt       string          `json:"created_at"`
	ReleasedAt      string          `json:"released_at"`
	UpcomingRelease bool            `json:"upcoming_release"`
	Assets          gitlabAssetsDTO `json:"assets"`
}

func (g *GitLab) projectURL(source string) string {
	return fmt.Sprintf("%s/api/v4/projects/%s", g.baseURL, url.PathEscape(source))
}

func (g *GitLab) LatestRelease(ctx context.Context, source string) (*model.Release, error) {
	releases, err := g.Releases(ctx, source, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("%w for project %s", ErrNoReleases, source)
	}
	return releases[0], nil
}

func (g *GitLab) ReleaseByTag(ctx context.Context, source, tag string) (*model.Release, error) {
	var dto gitlabReleaseDTO
	u := fmt.Sprintf("%s/releases/%s", g.projectURL(source), url.PathEscape(tag))
	if err := g.client.GetJSON(ctx, u, &dto); err != nil {
		return nil, fmt.Errorf("release %s for %s: %w", tag, source, err)
	}
	return dto.toRelease(), nil
}

func (g *GitLab) Releases(ctx context.Context, source string, perPage, maxTotal int) ([]*model.Release, error) {
	if perPage <= 0 {
		perPage = 30
	}

	var releases []*model.Release
	for page := 1; ; page++ {
		var batch []gitlabReleaseDTO
		u := fmt.Sprintf("%s/releases?per_page=%d&page=%d", g.projectURL(source), perPage, page)
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

func (dto gitlabReleaseDTO) toRelease() *model.Release {
	createdAt := parseTimestamp(dto.CreatedAt)
	publishedAt := parseTimestamp(dto.ReleasedAt)
	if publishedAt.IsZero() {
		publishedAt = createdAt
	}

	rel := &model.Release{
		Tag:         dto.TagName,
		Name:        dto.Name,
		Body:        dto.Description,
		Prerelease:  dto.UpcomingRelease,
		PublishedAt: publishedAt,
		Version:     versionFromTag(dto.TagName, dto.UpcomingRelease),
	}

	var assetID int64
	for _, link := range dto.Assets.Links {
		assetID++
		downloadURL := link.DirectAssetURL
		if downloadURL == "" {
			downloadURL = link.URL
		}
		// GitLab link metadata carries no size.
		rel.Assets = append(rel.Assets, model.NewAsset(downloadURL, assetID, link.Name, 0, createdAt))
	}
	for _, src := range dto.Assets.Sources {
		assetID++
		name := "source." + src.Format
		rel.Assets = append(rel.Assets, model.NewAsset(src.URL, assetID, name, 0, createdAt))
	}
	rel.ID = assetID
	return rel
}
