package ident

import (
	"regexp"
	"strings"
)

var (
	letterDigit   = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)
	labelPrefix   = regexp.MustCompile(`^\d+`)
	hyphenBound   = regexp.MustCompile(`^(\d*[A-Za-z]+)(\d+)$`)
	contentFormRe = regexp.MustCompile(`^([a-z]+)(0\d{4})$`)
)

// minDisplayDigits is the shortest digit run a display id is trimmed to.
const minDisplayDigits = 3

// ToContentID derives the content id for a display id of the given family.
// An unknown or empty family uses the standard letters+digits derivation.
func ToContentID(family, display string) string {
	r := ruleByFamily(family)
	if r == nil {
		r = ruleByFamily("standard")
	}
	if r.Content == ContentNative {
		return strings.ToLower(display)
	}

	prefix, digits, ok := splitCode(display)
	if !ok {
		return strings.ToLower(strings.ReplaceAll(display, "-", ""))
	}
	prefix = strings.ToLower(strings.ReplaceAll(prefix, "-", ""))
	if r.DropLabel {
		prefix = labelPrefix.ReplaceAllString(prefix, "")
	}
	return prefix + padDigits(digits, r.width())
}

// ToDisplayID derives a display id from a content id without knowing its family.
// Content ids that carry their own separators are only uppercased.
func ToDisplayID(content string) string {
	if strings.ContainsAny(content, "-_.") {
		return strings.ToUpper(content)
	}
	m := letterDigit.FindStringSubmatch(content)
	if m == nil {
		return strings.ToUpper(content)
	}
	return strings.ToUpper(m[1]) + "-" + trimDigits(m[2], minDisplayDigits)
}

// splitCode splits "ABC-123" or "T28-123" at the last hyphen into prefix and digit run.
func splitCode(code string) (string, string, bool) {
	i := strings.LastIndex(code, "-")
	if i <= 0 || i == len(code)-1 {
		return "", "", false
	}
	digits := code[i+1:]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return "", "", false
		}
	}
	return code[:i], digits, true
}

// insertHyphen turns "SSIS123" into "SSIS-123". Codes that already contain a
// hyphen are returned unchanged.
func insertHyphen(code string) string {
	if strings.Contains(code, "-") {
		return code
	}
	m := hyphenBound.FindStringSubmatch(code)
	if m == nil {
		return code
	}
	return m[1] + "-" + m[2]
}

// canonicalDisplay trims leading zeros from the digit run down to three digits
// and pads shorter runs to three, so the display id survives a trip through
// its content id.
func canonicalDisplay(code string) string {
	prefix, digits, ok := splitCode(code)
	if !ok {
		return code
	}
	return prefix + "-" + padDigits(trimDigits(digits, minDisplayDigits), minDisplayDigits)
}

// fromContentForm recognizes a code that is already in content form
// ("abp00001") and returns its display form.
func fromContentForm(code string) (string, bool) {
	if !contentFormRe.MatchString(strings.ToLower(code)) {
		return "", false
	}
	return ToDisplayID(strings.ToLower(code)), true
}

func padDigits(d string, width int) string {
	if len(d) >= width {
		return d
	}
	return strings.Repeat("0", width-len(d)) + d
}

func trimDigits(d string, min int) string {
	for len(d) > min && d[0] == '0' {
		d = d[1:]
	}
	return d
}
