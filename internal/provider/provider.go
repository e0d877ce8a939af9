// Package provider adapts release-hosting backends (GitHub, GitLab, Gitea,
// direct HTTP endpoints and HTML download pages) into the normalized
// Release/Asset model, and downloads assets with retry and progress
// reporting.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/upfetch/upfetch/internal/model"
)

// ErrNotModified is the sentinel returned by conditional fetches when the
// backend reports no change since the supplied timestamp.
var ErrNotModified = errors.New("not modified")

// ErrNoReleases means the source exists but has nothing to install.
var ErrNoReleases = errors.New("no releases found")

// ErrUnsupported marks capabilities a backend does not offer, such as
// tagged releases on a plain HTTP endpoint.
var ErrUnsupported = errors.New("operation not supported by provider")

// Adapter is the uniform capability every backend exposes.
type Adapter interface {
	// LatestRelease fetches the most recent release for a source locator
	// (repo slug or URL, depending on the backend).
	LatestRelease(ctx context.Context, source string) (*model.Release, error)

	// ReleaseByTag fetches one specific release.
	ReleaseByTag(ctx context.Context, source, tag string) (*model.Release, error)

	// Releases pages through releases, newest first, up to maxTotal.
	Releases(ctx context.Context, source string, perPage, maxTotal int) ([]*model.Release, error)
}

// ConditionalFetcher is implemented by backends that can answer "has
// anything changed since T" without a full fetch. ErrNotModified signals
// no change.
type ConditionalFetcher interface {
	LatestReleaseIfModifiedSince(ctx context.Context, source string, since time.Time) (*model.Release, error)
}

// ProgressFunc receives (bytesDone, bytesTotal) during downloads.
// bytesTotal is zero when the server does not announce a length.
type ProgressFunc func(done, total int64)
