// Package ident extracts canonical content identifiers from media filenames.
//
// A filename is cleaned in a fixed sequence of stages (operator removal strings,
// watermark/date/quality stripping, family prefix normalization) and then matched
// against an ordered table of family rules. The first rule that matches wins.
package ident

import (
	"fmt"
	"strings"
)

// ParsedIdentifier is the result of parsing a filename.
type ParsedIdentifier struct {
	// DisplayID is the human form used in filenames and most source queries (e.g. "ABP-001").
	DisplayID string
	// ContentID is the lowercase zero-padded form some sources require (e.g. "abp00001").
	ContentID string
	// Part is the 1-based disc/part index, or 0 when the release is not multi-part.
	Part int
	// Family is the tag of the rule that produced the identifier.
	Family     string
	Attributes Attributes
}

// Attributes are flags carried alongside the identifier.
type Attributes struct {
	Subtitle    bool   // -C, -UC, ch suffix
	Uncensored  bool   // -U, -UC, leak markers or an uncensored family
	SpecialSite string // set by site-specific families (tokyo-hot, caribbean, ...)
	// ReservedMarker is set when the code carried a trailing Z. Z is never a part.
	ReservedMarker bool
}

// HasPart reports whether the identifier encodes a multi-part release.
func (p *ParsedIdentifier) HasPart() bool {
	return p.Part > 0
}

// ID returns the identifier in the requested representation.
func (p *ParsedIdentifier) ID(content bool) string {
	if content {
		return p.ContentID
	}
	return p.DisplayID
}

// String renders the identifier with its part and flag suffixes, e.g. "ABP-001-CD2-UC".
func (p *ParsedIdentifier) String() string {
	var b strings.Builder
	b.WriteString(p.DisplayID)
	if p.Part > 0 {
		fmt.Fprintf(&b, "-CD%d", p.Part)
	}
	b.WriteString(p.FlagSuffix())
	return b.String()
}

// FlagSuffix returns "-C", "-U", "-UC" or "" depending on the attribute flags.
func (p *ParsedIdentifier) FlagSuffix() string {
	switch {
	case p.Attributes.Subtitle && p.Attributes.Uncensored:
		return "-UC"
	case p.Attributes.Subtitle:
		return "-C"
	case p.Attributes.Uncensored && p.Attributes.SpecialSite == "":
		return "-U"
	}
	return ""
}

// Config controls operator-tunable parser behavior.
type Config struct {
	// RemovalStrings are deleted (case-insensitive, literal) before any matching.
	RemovalStrings []string
	// CustomPattern is a last-resort regular expression tried when no family rule matches.
	CustomPattern string
	// CustomGroups are the capture group indices joined with "-" to form the code.
	// Empty means group 1 if the pattern has groups, otherwise the whole match.
	CustomGroups []int
	// StrictMode disables the custom fallback and reports ambiguous matches.
	StrictMode bool
	// UncensoredPrefixes extend the built-in uncensored detection.
	UncensoredPrefixes []string
}
