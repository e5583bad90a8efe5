// Package source defines the metadata source contract and resolves identifiers
// against an ordered set of sources with fallback.
package source

//go:generate mockgen -destination=mocks/mock_adapter.go -package=mocks . Adapter

import (
	"context"
	"strings"
)

// IDFormat selects which representation of an identifier a source expects.
type IDFormat int

const (
	FormatDisplay IDFormat = iota // "ABP-001"
	FormatContent                 // "abp00001"
)

func (f IDFormat) String() string {
	if f == FormatContent {
		return "content"
	}
	return "display"
}

// Adapter is implemented once per external metadata source.
// Adapters must be safe for concurrent use.
type Adapter interface {
	// Name is the unique registry key, e.g. "javbus".
	Name() string
	// Priority orders adapters; lower values are tried first.
	Priority() int
	// PreferredIDFormat tells the orchestrator which id representation to pass to Query.
	PreferredIDFormat() IDFormat
	// Query looks up one identifier. Failures are reported as *QueryError.
	Query(ctx context.Context, id string) (*Record, error)
}

// HostMatcher is implemented by adapters that can claim a page URL.
type HostMatcher interface {
	Hosts() []string
}

// Record is the metadata a source returned for one identifier. The field set is
// source-dependent; empty fields mean the source did not provide them.
type Record struct {
	Source        string            `json:"source"`
	Website       string            `json:"website,omitempty"`
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	OriginalTitle string            `json:"original_title,omitempty"`
	Cover         string            `json:"cover,omitempty"`
	Thumb         string            `json:"thumb,omitempty"`
	Studio        string            `json:"studio,omitempty"`
	Label         string            `json:"label,omitempty"`
	Series        string            `json:"series,omitempty"`
	Director      string            `json:"director,omitempty"`
	Release       string            `json:"release,omitempty"` // YYYY-MM-DD
	Runtime       int               `json:"runtime,omitempty"` // minutes
	Actors        []string          `json:"actors,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Outline       string            `json:"outline,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Valid reports whether the record carries the minimum usable fields.
func (r *Record) Valid() bool {
	return r != nil && strings.TrimSpace(r.Title) != "" && strings.TrimSpace(r.ID) != ""
}

// Year returns the four-digit release year, or "" when unknown.
func (r *Record) Year() string {
	if len(r.Release) >= 4 {
		return r.Release[:4]
	}
	return ""
}
