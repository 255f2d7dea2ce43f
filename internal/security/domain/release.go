package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidRelease is returned when release metadata lacks a version.
var ErrInvalidRelease = errors.New("release metadata missing version")

// Release is the metadata published by the update endpoint.
type Release struct {
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
}

// Validate checks the required fields.
func (r Release) Validate() error {
	if strings.TrimSpace(r.Version) == "" {
		return ErrInvalidRelease
	}
	return nil
}

// UpdateOffer is an available update registered with the host updater.
type UpdateOffer struct {
	Slug       string    `json:"slug"`
	NewVersion string    `json:"new_version"`
	URL        string    `json:"url"`
	Package    string    `json:"package"`
	CheckedAt  time.Time `json:"checked_at"`
}

// UpdateState is the host's update registry snapshot. Checked maps each
// installed plugin to its installed version; Response holds offers keyed by
// plugin.
type UpdateState struct {
	Checked  map[string]string      `json:"checked"`
	Response map[string]UpdateOffer `json:"response"`
}

// Clone returns a deep copy so callers can modify the result freely.
func (s UpdateState) Clone() UpdateState {
	out := UpdateState{}
	if s.Checked != nil {
		out.Checked = make(map[string]string, len(s.Checked))
		for k, v := range s.Checked {
			out.Checked[k] = v
		}
	}
	if s.Response != nil {
		out.Response = make(map[string]UpdateOffer, len(s.Response))
		for k, v := range s.Response {
			out.Response[k] = v
		}
	}
	return out
}
