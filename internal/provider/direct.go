package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/upfetch/upfetch/internal/model"
)

// Direct treats a fixed URL as a single-asset release. It probes with
// HEAD, falling back to GET when the server rejects HEAD, and supports
// If-Modified-Since conditional checks.
type Direct struct {
	client *Client
}

func NewDirect(client *Client) *Direct {
	return &Direct{client: client}
}

// assetInfo is what a probe learns without downloading.
type assetInfo struct {
	downloadURL  string
	name         string
	size         int64
	lastModified time.Time
	etag         string
}

func (d *Direct) LatestRelease(ctx context.Context, source string) (*model.Release, error) {
	return d.LatestReleaseIfModifiedSince(ctx, source, time.Time{})
}

func (d *Direct) ReleaseByTag(ctx context.Context, source, tag string) (*model.Release, error) {
	return nil, fmt.Errorf("%w: direct endpoints have no tagged releases", ErrUnsupported)
}

func (d *Direct) Releases(ctx context.Context, source string, perPage, maxTotal int) ([]*model.Release, error) {
	rel, err := d.LatestRelease(ctx, source)
	if err != nil {
		return nil, err
	}
	return []*model.Release{rel}, nil
}

// LatestReleaseIfModifiedSince probes the endpoint, returning
// ErrNotModified when the server reports no change since the timestamp.
func (d *Direct) LatestReleaseIfModifiedSince(ctx context.Context, source string, since time.Time) (*model.Release, error) {
	info, err := d.probe(ctx, source, since)
	if err != nil {
		return nil, err
	}
	return synthesizeRelease(info), nil
}

// probe issues HEAD, falling back to GET on 405/501 or transport failure.
func (d *Direct) probe(ctx context.Context, source string, since time.Time) (*assetInfo, error) {
	url := NormalizeURL(source)

	resp, err := d.request(ctx, http.MethodHead, url, since)
	if err == nil {
		switch {
		case resp.StatusCode == http.StatusNotModified:
			resp.Body.Close()
			return nil, ErrNotModified
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer resp.Body.Close()
			return infoFromResponse(url, resp), nil
		case resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented:
			resp.Body.Close()
			// Server rejects HEAD; probe with GET instead.
		default:
			resp.Body.Close()
			return nil, fmt.Errorf("probe %s: unexpected status %d", url, resp.StatusCode)
		}
	}

	resp, err = d.request(ctx, http.MethodGet, url, since)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, ErrNotModified
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("probe %s: unexpected status %d", url, resp.StatusCode)
	}
	return infoFromResponse(url, resp), nil
}

func (d *Direct) request(ctx context.Context, method, url string, since time.Time) (*http.Response, error) {
	req, err := d.client.newRequest(ctx, method, url)
	if err != nil {
		return nil, err
	}
	if !since.IsZero() {
		req.Header.Set("If-Modified-Since", since.UTC().Format(http.TimeFormat))
	}
	return d.client.http.Do(req)
}

func infoFromResponse(url string, resp *http.Response) *assetInfo {
	info := &assetInfo{
		downloadURL: url,
		name:        FileNameFromURL(url),
	}
	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			info.size = n
		}
	}
	if v := resp.Header.Get("Last-Modified"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			info.lastModified = t.UTC()
		}
	}
	if v := resp.Header.Get("ETag"); v != "" {
		info.etag = strings.Trim(strings.TrimSpace(v), `"`)
	}
	return info
}

// synthesizeRelease wraps a probed asset in a single-asset release. The
// version comes from digits in the filename when possible, else from the
// Last-Modified timestamp mapped monotonically so update comparisons
// still work.
func synthesizeRelease(info *assetInfo) *model.Release {
	publishedAt := info.lastModified
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	version, ok := versionFromFilename(info.name)
	if !ok && !info.lastModified.IsZero() {
		version = versionFromTime(info.lastModified)
	}

	name := info.name
	if info.etag != "" {
		name = fmt.Sprintf("%s [%s]", info.name, info.etag)
	}

	return &model.Release{
		ID:          1,
		Tag:         "direct",
		Name:        name,
		Body:        "Direct HTTP asset",
		Assets:      []model.Asset{model.NewAsset(info.downloadURL, 1, info.name, info.size, publishedAt)},
		Version:     version,
		PublishedAt: publishedAt,
	}
}

// versionFromFilename scans dotted numeric tokens in a filename and keeps
// the highest parseable version.
func versionFromFilename(filename string) (model.Version, bool) {
	sanitized := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' {
			return r
		}
		return ' '
	}, strings.ToLower(filename))

	var best model.Version
	found := false
	for _, token := range strings.Fields(sanitized) {
		token = strings.Trim(token, ".")
		// Require an interior dot so stray architecture digits such as
		// the "64" in x86_64 never read as a version.
		if !strings.Contains(token, ".") {
			continue
		}
		v, err := model.ParseVersion(token)
		if err != nil {
			continue
		}
		if !found || v.NewerThan(best) {
			best = v
			found = true
		}
	}
	return best, found
}

// versionFromTime maps a timestamp onto a monotonically increasing
// version triplet: (year, day-of-year, seconds-since-midnight).
func versionFromTime(t time.Time) model.Version {
	t = t.UTC()
	return model.Version{
		Major: t.Year(),
		Minor: t.YearDay(),
		Patch: t.Hour()*3600 + t.Minute()*60 + t.Second(),
	}
}
