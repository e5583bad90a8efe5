package ident

import (
	"regexp"
	"strings"
)

// ContentStyle selects how a family derives its content id.
type ContentStyle int

const (
	// ContentPadded lowercases the letter run and zero-pads the digit run.
	ContentPadded ContentStyle = iota
	// ContentNative keeps the display form, lowercased.
	ContentNative
)

// Rule is one entry of the family table. Rules are evaluated in slice order
// by a single interpreter (see match); the first rule whose pattern matches wins.
type Rule struct {
	Family string
	// Trigger, when set, must match the cleaned name before Pattern is tried.
	Trigger *regexp.Regexp
	Pattern *regexp.Regexp
	// Groups are the capture groups joined with Sep (after Prefix) to form the code.
	Groups []int
	Sep    string
	Prefix string
	// TailGroup captures the suffix run (part and flag markers) after the code.
	TailGroup int
	// PartGroup captures an explicit numeric part index.
	PartGroup int
	Upper     bool
	// SpecialSite marks uncensored site families; the family tag becomes Attributes.SpecialSite.
	SpecialSite bool

	Content ContentStyle
	// Width is the zero-padded digit width used by ContentPadded (default 5).
	Width int
	// DropLabel removes a leading numeric label ("300MIUM" -> "mium") from the content id.
	DropLabel bool
	// Lossy marks families whose content id cannot be turned back into the display id.
	Lossy bool
}

func (r *Rule) width() int {
	if r.Width == 0 {
		return 5
	}
	return r.Width
}

// tailRun captures part and flag markers following the digit run.
const tailRun = `((?:[-_ ](?:cd|pt|part|disc)[-_ ]?\d{1,2}|[-_][a-z0-9]+|[a-z]+)*)`

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

// rules is the family table in precedence order. Site families come first
// because their codes would otherwise be claimed by the generic rules.
var rules = []*Rule{
	{
		Family: "tokyo-hot", Trigger: re(`tokyo[-_ ]*hot`),
		Pattern: re(`(?:^|[^a-z])(cz|gedo|k|n|red-|se)(\d{2,4})`), Groups: []int{1, 2},
		SpecialSite: true, Content: ContentNative, Lossy: true,
	},
	{
		Family: "caribbeanpr", Trigger: re(`carib(?:bean)?(?:com)?pr`),
		Pattern: re(`(\d{6})[-_](\d{3})`), Groups: []int{1, 2}, Sep: "-",
		SpecialSite: true, Content: ContentNative,
	},
	{
		Family: "caribbean", Trigger: re(`carib`),
		Pattern: re(`(\d{6})[-_](\d{3})`), Groups: []int{1, 2}, Sep: "-",
		SpecialSite: true, Content: ContentNative,
	},
	{
		Family: "1pondo", Trigger: re(`1pon`),
		Pattern: re(`(\d{6})[-_](\d{3})`), Groups: []int{1, 2}, Sep: "_",
		SpecialSite: true, Content: ContentNative,
	},
	{
		Family: "muramura", Trigger: re(`mura`),
		Pattern: re(`(\d{6})[-_](\d{3})`), Groups: []int{1, 2}, Sep: "_",
		SpecialSite: true, Content: ContentNative,
	},
	{
		Family: "pacopacomama", Trigger: re(`paco`),
		Pattern: re(`(\d{6})[-_](\d{3})`), Groups: []int{1, 2}, Sep: "_",
		SpecialSite: true, Content: ContentNative,
	},
	{
		Family: "10musume", Trigger: re(`10mu`),
		Pattern: re(`(\d{6})[-_](\d{2})`), Groups: []int{1, 2}, Sep: "_",
		SpecialSite: true, Content: ContentNative,
	},
	{
		Family:  "x-art",
		Pattern: re(`x-art\.(\d{2})\.(\d{2})\.(\d{2})`), Groups: []int{1, 2, 3}, Sep: ".", Prefix: "x-art.",
		SpecialSite: true, Content: ContentNative, Lossy: true,
	},
	{
		Family:  "xxx-av",
		Pattern: re(`xxx-av[^\d]*(\d{3,6})`), Groups: []int{1}, Prefix: "XXX-AV-",
		SpecialSite: true, Content: ContentNative,
	},
	{
		Family:  "heydouga",
		Pattern: re(`heydouga[^\d]*(\d{4})[-_](\d{3,4})`), Groups: []int{1, 2}, Sep: "-", Prefix: "HEYDOUGA-",
		SpecialSite: true, Content: ContentNative,
	},
	{
		Family:  "heyzo",
		Pattern: re(`heyzo[^\d]*(\d{4})` + tailRun), Groups: []int{1}, Prefix: "HEYZO-", TailGroup: 2,
		SpecialSite: true, Width: 4,
	},
	{
		Family:  "fc2",
		Pattern: re(`fc2-ppv-(\d{5,8})(?:[-_](\d{1,2}))?`), Groups: []int{1}, Prefix: "FC2-PPV-", PartGroup: 2,
		Content: ContentNative,
	},
	{
		Family:  "mdbk",
		Pattern: re(`(mdbk)[-_](\d{4})` + tailRun), Groups: []int{1, 2}, Sep: "-", TailGroup: 3, Upper: true,
		Lossy: true,
	},
	{
		Family:  "mdtm",
		Pattern: re(`(mdtm)[-_](\d{4})` + tailRun), Groups: []int{1, 2}, Sep: "-", TailGroup: 3, Upper: true,
		Lossy: true,
	},
	{
		Family:  "t28",
		Pattern: re(`(?:^|[^a-z0-9])(t28)-(\d{3,5})` + tailRun), Groups: []int{1, 2}, Sep: "-", TailGroup: 3, Upper: true,
		Lossy: true,
	},
	{
		Family:  "r18",
		Pattern: re(`(?:^|[^a-z0-9])(r18)-(\d{3,5})` + tailRun), Groups: []int{1, 2}, Sep: "-", TailGroup: 3, Upper: true,
		Lossy: true,
	},
	{
		Family:  "s2m",
		Pattern: re(`(?:^|[^a-z0-9])(s2m(?:bd|cd)?)-(\d{3,5})` + tailRun), Groups: []int{1, 2}, Sep: "-", TailGroup: 3, Upper: true,
		Lossy: true,
	},
	{
		Family:  "digits-prefixed",
		Pattern: re(`(?:^|[^a-z0-9])(\d{3}[a-z]{2,6})[-_]?(\d{3,5})` + tailRun), Groups: []int{1, 2}, TailGroup: 3, Upper: true,
		DropLabel: true, Lossy: true,
	},
	{
		Family:  "standard",
		Pattern: re(`(?:^|[^a-z0-9])([a-z]{2,10})[-_]?(\d{2,6})` + tailRun), Groups: []int{1, 2}, TailGroup: 3, Upper: true,
	},
	{
		Family:  "date-coded",
		Pattern: re(`(?:^|[^0-9])(\d{6})([-_])(\d{2,3})(?:[^0-9]|$)`), Groups: []int{1, 2, 3},
		Content: ContentNative,
	},
}

// Rules returns a copy of the family table in precedence order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = *r
	}
	return out
}

// LossyFamilies lists the families whose content id does not round-trip.
func LossyFamilies() []string {
	var out []string
	for _, r := range rules {
		if r.Lossy {
			out = append(out, r.Family)
		}
	}
	return out
}

func ruleByFamily(family string) *Rule {
	for _, r := range rules {
		if r.Family == family {
			return r
		}
	}
	return nil
}

// ruleMatch is the outcome of evaluating one rule.
type ruleMatch struct {
	rule *Rule
	code string
	tail string
	part string
}

// build assembles the raw code from one submatch.
func (r *Rule) build(s string, loc []int) ruleMatch {
	group := func(i int) string {
		if i <= 0 || 2*i+1 >= len(loc) || loc[2*i] < 0 {
			return ""
		}
		return s[loc[2*i]:loc[2*i+1]]
	}

	parts := make([]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		parts = append(parts, group(g))
	}
	code := r.Prefix + strings.Join(parts, r.Sep)
	if r.Upper {
		code = strings.ToUpper(code)
	}
	return ruleMatch{rule: r, code: code, tail: group(r.TailGroup), part: group(r.PartGroup)}
}

// match evaluates the table against s. It returns the first matching rule's
// result and every distinct code that rule produced in s.
func match(s string) (*ruleMatch, []string) {
	for _, r := range rules {
		if r.Trigger != nil && !r.Trigger.MatchString(s) {
			continue
		}
		locs := r.Pattern.FindAllStringSubmatchIndex(s, -1)
		if len(locs) == 0 {
			continue
		}
		first := r.build(s, locs[0])
		seen := map[string]bool{first.code: true}
		codes := []string{first.code}
		for _, loc := range locs[1:] {
			m := r.build(s, loc)
			if !seen[m.code] {
				seen[m.code] = true
				codes = append(codes, m.code)
			}
		}
		return &first, codes
	}
	return nil, nil
}
