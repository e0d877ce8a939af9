package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/upfetch/upfetch/internal/model"
)

// Scraper discovers release assets by parsing anchor links out of an HTML
// download page and synthesizing a release from them. Non-HTML responses
// degrade to a single-asset probe, so a URL that redirects straight to a
// file still works.
type Scraper struct {
	client *Client
	direct *Direct
}

// hydrateLimit caps how many discovered links get a follow-up probe when
// no filename carries a version.
const hydrateLimit = 24

func NewScraper(client *Client) *Scraper {
	return &Scraper{client: client, direct: NewDirect(client)}
}

func (s *Scraper) LatestRelease(ctx context.Context, source string) (*model.Release, error) {
	return s.LatestReleaseIfModifiedSince(ctx, source, time.Time{})
}

func (s *Scraper) ReleaseByTag(ctx context.Context, source, tag string) (*model.Release, error) {
	return nil, fmt.Errorf("%w: scraped pages have no tagged releases", ErrUnsupported)
}

func (s *Scraper) Releases(ctx context.Context, source string, perPage, maxTotal int) ([]*model.Release, error) {
	rel, err := s.LatestRelease(ctx, source)
	if err != nil {
		return nil, err
	}
	return []*model.Release{rel}, nil
}

func (s *Scraper) LatestReleaseIfModifiedSince(ctx context.Context, source string, since time.Time) (*model.Release, error) {
	pageURL := NormalizeURL(source)

	req, err := s.client.newRequest(ctx, http.MethodGet, pageURL)
	if err != nil {
		return nil, err
	}
	if !since.IsZero() {
		req.Header.Set("If-Modified-Since", since.UTC().Format(http.TimeFormat))
	}

	resp, err := s.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, ErrNotModified
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") {
		// The URL points straight at an artifact.
		return synthesizeRelease(infoFromResponse(finalURL, resp)), nil
	}

	base, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL %q: %w", finalURL, err)
	}

	infos, err := discoverAssets(base, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML from %s: %w", finalURL, err)
	}
	if len(infos) == 0 {
		return synthesizeRelease(infoFromResponse(finalURL, resp)), nil
	}

	return s.buildRelease(ctx, infos), nil
}

// discoverAssets extracts unique, absolutized artifact links from an HTML
// document. Checksum and signature companions are not installable
// candidates and are skipped.
func discoverAssets(base *url.URL, body io.Reader) ([]*assetInfo, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var infos []*assetInfo

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if info := assetFromHref(base, attr.Val); info != nil && !seen[info.downloadURL] {
					seen[info.downloadURL] = true
					infos = append(infos, info)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return infos, nil
}

func assetFromHref(base *url.URL, href string) *assetInfo {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") {
		return nil
	}

	joined, err := base.Parse(href)
	if err != nil {
		return nil
	}
	if joined.Scheme != "http" && joined.Scheme != "https" {
		return nil
	}

	joinedStr := joined.String()
	name := FileNameFromURL(joinedStr)
	if name == "" || model.InferFiletype(name) == model.FiletypeChecksum {
		return nil
	}
	return &assetInfo{downloadURL: joinedStr, name: name}
}

// buildRelease turns discovered links into a release. When filenames
// carry versions, only assets of the newest version are kept; otherwise a
// limited number of links is probed for Last-Modified to derive one.
func (s *Scraper) buildRelease(ctx context.Context, infos []*assetInfo) *model.Release {
	var best model.Version
	haveVersion := false
	for _, info := range infos {
		if v, ok := versionFromFilename(info.name); ok {
			if !haveVersion || v.NewerThan(best) {
				best = v
				haveVersion = true
			}
		}
	}

	if !haveVersion {
		for i, info := range infos {
			if i >= hydrateLimit {
				break
			}
			if probed, err := s.direct.probe(ctx, info.downloadURL, time.Time{}); err == nil {
				info.size = probed.size
				info.lastModified = probed.lastModified
				info.etag = probed.etag
			}
		}
		for _, info := range infos {
			if info.lastModified.IsZero() {
				continue
			}
			if v := versionFromTime(info.lastModified); !haveVersion || v.NewerThan(best) {
				best = v
				haveVersion = true
			}
		}
	}

	selected := infos
	if haveVersion {
		var filtered []*assetInfo
		for _, info := range infos {
			if v, ok := versionFromFilename(info.name); ok && v.Compare(best) == 0 {
				filtered = append(filtered, info)
			}
		}
		if len(filtered) > 0 {
			selected = filtered
		}
	}

	var publishedAt time.Time
	for _, info := range selected {
		if info.lastModified.After(publishedAt) {
			publishedAt = info.lastModified
		}
	}
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	rel := &model.Release{
		ID:          1,
		Tag:         "direct",
		Body:        "Discovered from HTTP source",
		Version:     best,
		PublishedAt: publishedAt,
	}
	for i, info := range selected {
		createdAt := info.lastModified
		if createdAt.IsZero() {
			createdAt = publishedAt
		}
		rel.Assets = append(rel.Assets, model.NewAsset(info.downloadURL, int64(i+1), info.name, info.size, createdAt))
	}

	if len(selected) == 1 {
		rel.Name = selected[0].name
		if selected[0].etag != "" {
			rel.Name = fmt.Sprintf("%s [%s]", selected[0].name, selected[0].etag)
		}
	} else {
		rel.Name = fmt.Sprintf("Discovered %d assets", len(selected))
	}
	return rel
}
