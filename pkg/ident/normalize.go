package ident

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// stripCategory is one stage of the cleaning pipeline. Patterns are tried in
// order and only the first one that matches is applied.
type stripCategory struct {
	name     string
	patterns []stripPattern
}

type stripPattern struct {
	re   *regexp.Regexp
	repl func(match []string) string
	// flag is set on the parse state when this pattern fired.
	flag func(s *cleanState, match string)
}

// cleanState carries hints discovered while stripping.
type cleanState struct {
	uncensored bool
}

var (
	bracketTag  = regexp.MustCompile(`[\[【(（]([^\]】)）]*)[\]】)）]`)
	codeLike    = regexp.MustCompile(`(?i)[a-z]{2,}[-_]?\d{2,}|\d{3,}`)
	videoExtRe  = regexp.MustCompile(`(?i)^\.[a-z][a-z0-9]{1,4}$`)
	uncensoredT = regexp.MustCompile(`(?i)uncensored|leak`)
)

// categories are applied in order: watermarks, dates, quality, family, loose suffixes.
var categories = []stripCategory{
	{
		name: "watermark",
		patterns: []stripPattern{
			{re: regexp.MustCompile(`(?i)^[\w.-]+\.(?:cc|com|net|me|club|jp|tv|xyz|biz|wiki|info|tw|us|de|org|la)@`)},
			{re: regexp.MustCompile(`(?i)^22-sht\.me[-_ ]?`)},
			{re: regexp.MustCompile(`(?i)^(?:www\.)?[a-z0-9-]+\.(?:com|net|cc|me|tv|xyz|club)[-_ ]+`)},
			{re: bracketTag, repl: func(m []string) string {
				if codeLike.MatchString(m[1]) {
					return " " + m[1] + " "
				}
				return " "
			}},
		},
	},
	{
		name: "date",
		patterns: []stripPattern{
			{re: regexp.MustCompile(`^\s*\d{4}-\d{1,2}-\d{1,2}\s*-\s*`)},
			{re: regexp.MustCompile(`^\d{4}[-.]\d{2}[-.]\d{2}[-_ ]+`)},
		},
	},
	{
		name: "quality",
		patterns: []stripPattern{
			{
				re: regexp.MustCompile(`(?i)^(?:fhd|hd|sd|1080p|720p|2160p|4k)[-_]|[-_ ](?:fhd|hd|sd|1080p|720p|2160p|4k|x264|x265|h264|h265|hevc|uncensored|hack|leak)([-_ .]|$)`),
				repl: func(m []string) string { return m[1] },
				flag: func(s *cleanState, match string) {
					if uncensoredT.MatchString(match) {
						s.uncensored = true
					}
				},
			},
		},
	},
	{
		name: "family",
		patterns: []stripPattern{
			{re: regexp.MustCompile(`(?i)fc2[-_ ]*(?:ppv)?[-_ ]*(\d{5,8})`), repl: func(m []string) string {
				return "FC2-PPV-" + m[1]
			}},
			{re: regexp.MustCompile(`(?i)heyzo[-_ ]*(?:hd[-_ ]*)?(\d{4})`), repl: func(m []string) string {
				return "HEYZO-" + m[1]
			}},
			{re: regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(t28|r18|s2m(?:bd|cd)?)[-_ ]*(\d{3,5})`), repl: func(m []string) string {
				lead := ""
				if !strings.HasPrefix(strings.ToLower(m[0]), strings.ToLower(m[1])) {
					lead = m[0][:1]
				}
				return lead + strings.ToUpper(m[1]) + "-" + m[2]
			}},
		},
	},
	{
		name: "loose",
		patterns: []stripPattern{
			{re: regexp.MustCompile(`(?i)[-_. ]+(?:sample|trailer|preview)$`)},
		},
	},
}

// stripExt removes a file extension. Numeric "extensions" such as the day in
// "x-art.18.05.15" are kept.
func stripExt(name string) string {
	ext := filepath.Ext(name)
	if ext != "" && videoExtRe.MatchString(ext) {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

// foldText narrows full-width characters and removes combining accents.
func foldText(s string) string {
	t := transform.Chain(width.Narrow, norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// removeStrings deletes each removal string, ignoring case.
func removeStrings(s string, removals []*regexp.Regexp) string {
	for _, re := range removals {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// applyCategories runs every strip category in order.
func applyCategories(s string, st *cleanState) string {
	for _, cat := range categories {
		for _, p := range cat.patterns {
			if !p.re.MatchString(s) {
				continue
			}
			if p.flag != nil {
				for _, m := range p.re.FindAllString(s, -1) {
					p.flag(st, m)
				}
			}
			s = replaceUntilStable(s, p)
			break
		}
		s = strings.Trim(s, "-_. ")
	}
	return s
}

// replaceUntilStable reapplies a pattern because adjacent tokens share a separator.
func replaceUntilStable(s string, p stripPattern) string {
	for i := 0; i < 4; i++ {
		var next string
		if p.repl == nil {
			next = p.re.ReplaceAllString(s, "")
		} else {
			next = p.re.ReplaceAllStringFunc(s, func(m string) string {
				return p.repl(p.re.FindStringSubmatch(m))
			})
		}
		if next == s {
			break
		}
		s = next
	}
	return s
}
