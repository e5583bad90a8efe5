package applier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vmunix/codarr/internal/source"
	"github.com/vmunix/codarr/pkg/ident"
)

// Default naming templates.
const (
	DefaultTemplate     = "{actor}/{number}"
	DefaultFileTemplate = "{number}{part}{flags}"
)

// unknown stands in for metadata a source did not provide.
const unknown = "Unknown"

// maxTitleRunes bounds {title}; source titles are often full sentences.
const maxTitleRunes = 80

// placeholder matches {name} or {name:02} style placeholders.
var placeholder = regexp.MustCompile(`\{(\w+)(?::(\d+))?\}`)

// Placeholders lists the names templates may reference.
var Placeholders = []string{
	"number", "content_id", "title", "actor", "actors", "studio", "label",
	"series", "director", "year", "part", "flags", "source",
}

// templateVars builds the substitution map for one file.
func templateVars(id *ident.ParsedIdentifier, rec *source.Record) map[string]any {
	orUnknown := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return unknown
		}
		return s
	}

	actor, actors := unknown, unknown
	if len(rec.Actors) > 0 {
		actor = rec.Actors[0]
		actors = strings.Join(rec.Actors, ",")
	}

	title := []rune(strings.TrimSpace(rec.Title))
	if len(title) > maxTitleRunes {
		title = title[:maxTitleRunes]
	}

	part := ""
	if id.HasPart() {
		part = fmt.Sprintf("-CD%d", id.Part)
	}

	number := id.DisplayID
	if number == "" {
		number = rec.ID
	}

	var year any = unknown
	if y, err := strconv.Atoi(rec.Year()); err == nil {
		year = y
	}

	return map[string]any{
		"number":     number,
		"content_id": id.ContentID,
		"title":      orUnknown(string(title)),
		"actor":      actor,
		"actors":     actors,
		"studio":     orUnknown(rec.Studio),
		"label":      orUnknown(rec.Label),
		"series":     orUnknown(rec.Series),
		"director":   orUnknown(rec.Director),
		"year":       year,
		"part":       part,
		"flags":      id.FlagSuffix(),
		"source":     rec.Source,
	}
}

// applyTemplate substitutes variables into a template string.
// Supports {name} for simple substitution and {name:02} for zero-padded integers.
// Unknown placeholders are left as-is.
func applyTemplate(template string, vars map[string]any) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		parts := placeholder.FindStringSubmatch(m)
		val, ok := vars[parts[1]]
		if !ok {
			return m
		}
		if parts[2] != "" {
			if width, err := strconv.Atoi(parts[2]); err == nil {
				if v, ok := val.(int); ok {
					return fmt.Sprintf("%0*d", width, v)
				}
			}
		}
		return fmt.Sprintf("%v", val)
	})
}

// renderDir renders a "/"-separated directory template. Each segment is
// sanitized on its own and empty segments are dropped.
func renderDir(template string, vars map[string]any) []string {
	var segments []string
	for _, seg := range strings.Split(template, "/") {
		if s := Sanitize(applyTemplate(seg, vars)); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// ValidateTemplate reports placeholders a template uses that do not exist.
func ValidateTemplate(template string) error {
	known := make(map[string]bool, len(Placeholders))
	for _, p := range Placeholders {
		known[p] = true
	}
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !known[m[1]] {
			return fmt.Errorf("unknown placeholder {%s}", m[1])
		}
	}
	return nil
}
