// Package serp implements SERP snapshot classification and analysis.
package serp

import "strings"

// Normalize reduces a raw URL or host to a bare comparable domain:
// lowercase, no scheme, no leading "www.", no path or query.
// Normalize is idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))

	for _, prefix := range []string{"https://", "http://", "//"} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}

	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		s = s[:idx]
	}

	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, ".")
}

// IsSameSite reports whether candidate and reference refer to the same
// site. Both are normalized first. A subdomain on either side matches
// (sub.example.com vs example.com), with a plain substring check as the
// final fallback.
func IsSameSite(candidate, reference string) bool {
	c := Normalize(candidate)
	r := Normalize(reference)
	if c == "" || r == "" {
		return false
	}
	if c == r {
		return true
	}
	if strings.HasSuffix(c, "."+r) || strings.HasSuffix(r, "."+c) {
		return true
	}
	return strings.Contains(c, r) || strings.Contains(r, c)
}
