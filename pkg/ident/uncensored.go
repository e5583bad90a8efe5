package ident

import (
	"regexp"
	"strings"
)

var builtinUncensored = regexp.MustCompile(
	`(?i)^[\d-]{4,}$|\d{6}_\d{2,3}|^(?:cz|gedo|k|n|red-|se)\d{2,4}$|^heyzo.+|^xxx-av-.+|^heydouga-.+|^x-art\.\d{2}\.\d{2}\.\d{2}$`,
)

// IsUncensored reports whether a display id belongs to an uncensored family,
// either built in or listed in prefixes.
func IsUncensored(displayID string, prefixes []string) bool {
	if builtinUncensored.MatchString(displayID) {
		return true
	}
	upper := strings.ToUpper(displayID)
	for _, p := range prefixes {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" && strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}
