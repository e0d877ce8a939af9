package model

import (
	"fmt"
	"time"
)

// Package is a stored record of an installed (or installable) artifact.
//
// InstallPath and ExecPath are either both empty (not installed) or
// InstallPath is set; ExecPath may stay empty when no executable was
// located inside an extracted archive.
type Package struct {
	Name     string   `json:"name"`
	Source   string   `json:"source"`
	Filetype Filetype `json:"filetype"`
	Version  Version  `json:"version"`
	Channel  Channel  `json:"channel"`
	Provider Provider `json:"provider"`
	BaseURL  string   `json:"base_url,omitempty"`

	Pinned         bool   `json:"pinned"`
	MatchPattern   string `json:"match_pattern,omitempty"`
	ExcludePattern string `json:"exclude_pattern,omitempty"`

	IconPath    string `json:"icon_path,omitempty"`
	InstallPath string `json:"install_path,omitempty"`
	ExecPath    string `json:"exec_path,omitempty"`

	LastUpgraded time.Time `json:"last_upgraded"`
}

// NewPackage creates a record with install-time defaults: version 0.0.0,
// no paths, not pinned.
func NewPackage(name, source string, filetype Filetype, channel Channel, provider Provider) *Package {
	return &Package{
		Name:         name,
		Source:       source,
		Filetype:     filetype,
		Channel:      channel,
		Provider:     provider,
		LastUpgraded: time.Now().UTC(),
	}
}

// SameIdentity reports whether two records refer to the same stored
// package. Identity is (provider, source, channel, name, base URL); a
// store may hold at most one record per identity.
func (p *Package) SameIdentity(other *Package) bool {
	return p.Provider == other.Provider &&
		p.Source == other.Source &&
		p.Channel == other.Channel &&
		p.Name == other.Name &&
		p.BaseURL == other.BaseURL
}

// Installed reports whether the record points at an on-disk install.
func (p *Package) Installed() bool {
	return p.InstallPath != ""
}

// ClearInstall resets the record to the not-installed state.
func (p *Package) ClearInstall() {
	p.InstallPath = ""
	p.ExecPath = ""
	p.IconPath = ""
}

// DisplayName renders the record for status messages.
func (p *Package) DisplayName() string {
	return fmt.Sprintf("%s (%s:%s)", p.Name, p.Channel, p.Source)
}
