package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds any single HTTP request.
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the number of download retries after the first
	// attempt.
	DefaultRetries = 3
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "upfetch/1.0"
)

// Client is the HTTP client shared by all backend adapters. It applies a
// request timeout, a redirect cap, optional bearer authentication, and
// retry with exponential backoff on downloads.
type Client struct {
	http      *http.Client
	userAgent string
	retries   int

	// authHeader and authValue are set per backend ("Authorization",
	// "Bearer <token>" for GitHub, "token <token>" for Gitea).
	authHeader string
	authValue  string

	// extraHeaders are static per-backend headers such as GitHub's
	// Accept value.
	extraHeaders map[string]string
}

func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
	}
}

// WithAuth returns a copy of the client sending the given authorization
// header value on every request.
func (c *Client) WithAuth(header, value string) *Client {
	clone := *c
	clone.authHeader = header
	clone.authValue = value
	return &clone
}

// WithHeader returns a copy of the client sending a static header on
// every request.
func (c *Client) WithHeader(name, value string) *Client {
	clone := *c
	headers := make(map[string]string, len(c.extraHeaders)+1)
	for k, v := range c.extraHeaders {
		headers[k] = v
	}
	headers[name] = value
	clone.extraHeaders = headers
	return &clone
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.authHeader != "" {
		req.Header.Set(c.authHeader, c.authValue)
	}
	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}
	return req, nil
}

// GetJSON fetches url and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s returned 404", ErrNoReleases, url)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// DownloadFile downloads url to destPath with retries. Each attempt
// streams into a temp file that is renamed into place only on success, so
// a partial download never lands at destPath.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, progress ProgressFunc) error {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.downloadOnce(ctx, url, destPath, progress)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("download failed after %d retries: %w", c.retries, lastErr)
}

func (c *Client) downloadOnce(ctx context.Context, url, destPath string, progress ProgressFunc) error {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	var written int64
	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := tmpFile.Write(buf[:n]); err != nil {
				return fmt.Errorf("write temp file: %w", err)
			}
			written += int64(n)
			if progress != nil {
				progress(written, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read response body: %w", readErr)
		}
	}

	if total > 0 && written != total {
		return fmt.Errorf("download size mismatch: expected %d bytes, got %d", total, written)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// NormalizeURL turns bare hosts or host/path inputs into HTTPS URLs.
func NormalizeURL(urlOrSlug string) string {
	raw := strings.TrimSpace(urlOrSlug)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// FileNameFromURL derives a filename from the last URL path segment,
// ignoring query and fragment, with a safe fallback for bare hosts.
func FileNameFromURL(url string) string {
	s := url
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	candidate := strings.TrimSpace(s[strings.LastIndexByte(s, '/')+1:])
	if candidate == "" {
		return "download.bin"
	}
	return candidate
}
