package model

import (
	"strings"
	"time"
)

// Asset is a single downloadable file attached to a release. The target
// OS, architecture and filetype are inferred from the filename at
// construction and never change.
type Asset struct {
	DownloadURL string
	ID          int64
	Name        string
	Size        int64
	CreatedAt   time.Time

	Filetype   Filetype
	TargetOS   *OSKind
	TargetArch *CPUArch
}

// NewAsset builds an asset and derives its platform hints from the name.
func NewAsset(downloadURL string, id int64, name string, size int64, createdAt time.Time) Asset {
	return Asset{
		DownloadURL: downloadURL,
		ID:          id,
		Name:        name,
		Size:        size,
		CreatedAt:   createdAt,
		Filetype:    InferFiletype(name),
		TargetOS:    InferOS(name),
		TargetArch:  InferArch(name),
	}
}

// Release is a published version of an upstream project. Immutable once
// fetched; a fresh release is fetched per resolution attempt.
type Release struct {
	ID          int64
	Tag         string
	Name        string
	Body        string
	Draft       bool
	Prerelease  bool
	Assets      []Asset
	Version     Version
	PublishedAt time.Time
}

// AssetByName finds an asset by case-insensitive exact name.
func (r *Release) AssetByName(name string) (Asset, bool) {
	for _, a := range r.Assets {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Asset{}, false
}
