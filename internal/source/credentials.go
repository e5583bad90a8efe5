package source

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// WithCookies attaches cookies to req in a stable order.
func WithCookies(req *http.Request, cookies map[string]string) {
	if len(cookies) == 0 {
		return
	}
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: cookies[name]})
	}
}

// RequireCookie returns an AuthRequired error when the named cookie is absent or empty.
func RequireCookie(source, name string, cookies map[string]string) error {
	if strings.TrimSpace(cookies[name]) == "" {
		return NewError(KindAuthRequired, source, fmt.Sprintf("cookie %q not configured", name))
	}
	return nil
}

// ParseCookieHeader splits a browser "Cookie:" header value into name/value pairs.
func ParseCookieHeader(header string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out
}
