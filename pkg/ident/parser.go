package ident

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Parser extracts identifiers using a fixed Config. It is safe for concurrent use.
type Parser struct {
	cfg      Config
	removals []*regexp.Regexp
	custom   *regexp.Regexp
}

// NewParser compiles the operator-supplied parts of cfg.
// Returns ErrInvalidPattern if the custom pattern does not compile or a
// configured group index does not exist.
func NewParser(cfg Config) (*Parser, error) {
	p := &Parser{cfg: cfg}
	for _, s := range cfg.RemovalStrings {
		if s == "" {
			continue
		}
		p.removals = append(p.removals, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(s)))
	}
	if cfg.CustomPattern != "" {
		custom, err := regexp.Compile(cfg.CustomPattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		for _, g := range cfg.CustomGroups {
			if g < 0 || g > custom.NumSubexp() {
				return nil, fmt.Errorf("%w: group %d out of range (pattern has %d)", ErrInvalidPattern, g, custom.NumSubexp())
			}
		}
		p.custom = custom
	}
	return p, nil
}

// Parse is a convenience wrapper that builds a Parser for a single call.
func Parse(filename string, cfg Config) (*ParsedIdentifier, error) {
	p, err := NewParser(cfg)
	if err != nil {
		return nil, err
	}
	return p.Parse(filename)
}

// Parse extracts the identifier from a path or bare filename.
func (p *Parser) Parse(filename string) (*ParsedIdentifier, error) {
	base := stripExt(filepath.Base(filename))

	s := foldText(base)
	s = removeStrings(s, p.removals)
	var st cleanState
	s = applyCategories(s, &st)

	m, codes := match(s)
	if m != nil {
		if p.cfg.StrictMode && len(codes) > 1 {
			return nil, &ParseError{Kind: KindAmbiguousMatch, Input: filename, Candidates: codes}
		}
		id := p.finish(m.rule, m.code, m.tail, m.part)
		if st.uncensored {
			id.Attributes.Uncensored = true
		}
		return id, nil
	}

	if p.custom != nil && !p.cfg.StrictMode {
		if code, ok := p.customMatch(s); ok {
			id := p.finish(nil, strings.ToUpper(code), "", "")
			id.Attributes.Uncensored = id.Attributes.Uncensored || st.uncensored
			return id, nil
		}
	}

	return nil, &ParseError{Kind: KindNoPatternMatch, Input: filename}
}

// Override builds an identifier from an operator-supplied code without
// running the filename pipeline.
func Override(code string, cfg Config) *ParsedIdentifier {
	code = strings.TrimSpace(code)
	id := &ParsedIdentifier{DisplayID: code, Family: "override"}
	if m, _ := match(code); m != nil && m.code != "" {
		id.Family = m.rule.Family
		id.ContentID = ToContentID(m.rule.Family, insertHyphen(m.code))
	} else {
		id.ContentID = ToContentID("", insertHyphen(strings.ToUpper(code)))
	}
	id.Attributes.Uncensored = IsUncensored(code, cfg.UncensoredPrefixes)
	return id
}

func (p *Parser) customMatch(s string) (string, bool) {
	sub := p.custom.FindStringSubmatch(s)
	if sub == nil {
		return "", false
	}
	groups := p.cfg.CustomGroups
	if len(groups) == 0 {
		if len(sub) > 1 {
			groups = []int{1}
		} else {
			groups = []int{0}
		}
	}
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if sub[g] != "" {
			parts = append(parts, sub[g])
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "-"), true
}

// finish applies post-processing and id derivation. rule is nil for custom matches.
func (p *Parser) finish(rule *Rule, code, tail, part string) *ParsedIdentifier {
	family := "custom"
	if rule != nil {
		family = rule.Family
	}

	t := parseTail(tail)
	if part != "" {
		if n, err := strconv.Atoi(part); err == nil && n > 0 {
			t.part = n
		}
	}

	id := &ParsedIdentifier{Family: family, Part: t.part}
	id.Attributes.Subtitle = t.subtitle
	id.Attributes.Uncensored = t.uncensored
	id.Attributes.ReservedMarker = t.reserved

	if rule != nil && rule.SpecialSite {
		id.DisplayID = code
		id.ContentID = ToContentID(family, code)
		id.Attributes.SpecialSite = family
		id.Attributes.Uncensored = true
		return id
	}

	code = insertHyphen(code)
	if family == "standard" {
		if display, ok := fromContentForm(strings.ReplaceAll(code, "-", "")); ok {
			code = display
		}
		code = canonicalDisplay(code)
	}
	id.DisplayID = code
	id.ContentID = ToContentID(family, code)
	if IsUncensored(code, p.cfg.UncensoredPrefixes) {
		id.Attributes.Uncensored = true
	}
	return id
}

// tailInfo is what the suffix run after a code encodes.
type tailInfo struct {
	part       int
	subtitle   bool
	uncensored bool
	reserved   bool
}

var (
	tailSplit   = regexp.MustCompile(`[-_ ]+`)
	partToken   = regexp.MustCompile(`^(?:cd|pt|part|disc)(\d{1,2})$`)
	partKeyword = map[string]bool{"cd": true, "pt": true, "part": true, "disc": true}
	digitsOnly  = regexp.MustCompile(`^\d{1,2}$`)
)

// parseTail reads part and flag markers from the suffix run. Processing stops
// at the first token that is not a recognized marker.
//
// Letters C and U are always flags. Any other single letter A-Y is a part
// index (A=1 ... Y=25). Z is a reserved marker and never a part.
func parseTail(tail string) tailInfo {
	var t tailInfo
	tokens := tailSplit.Split(strings.ToLower(strings.TrimSpace(tail)), -1)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "" {
			continue
		}
		if m := partToken.FindStringSubmatch(tok); m != nil {
			t.part, _ = strconv.Atoi(m[1])
			continue
		}
		if partKeyword[tok] && i+1 < len(tokens) && digitsOnly.MatchString(tokens[i+1]) {
			t.part, _ = strconv.Atoi(tokens[i+1])
			i++
			continue
		}
		switch tok {
		case "c", "ch", "sub":
			t.subtitle = true
			continue
		case "u", "leak", "uncensored":
			t.uncensored = true
			continue
		case "uc":
			t.subtitle = true
			t.uncensored = true
			continue
		case "z":
			t.reserved = true
			continue
		}
		if len(tok) == 1 && tok[0] >= 'a' && tok[0] <= 'y' && t.part == 0 {
			t.part = int(tok[0]-'a') + 1
			continue
		}
		break
	}
	return t
}
