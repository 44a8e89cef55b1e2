package services

import (
	"regexp"
	"strings"
)

// Contact detection runs on every stored message so the client can warn the
// sender. Detection is intentionally loose: a false positive only flags the
// message, it never blocks it.

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// Hungarian numbers: +36 / 0036 / 06 prefixes, 8-9 digits with optional
	// separators. Also catches generic international numbers.
	phonePattern = regexp.MustCompile(`(\+|00)?\s*\d{1,3}[\s\-/]?\(?\d{1,4}\)?([\s\-/]?\d{2,4}){2,4}`)
	urlPattern   = regexp.MustCompile(`(https?://|www\.)[^\s]+`)
)

func containsContactInfo(content string) bool {
	s := strings.TrimSpace(content)
	if s == "" {
		return false
	}
	if emailPattern.MatchString(s) {
		return true
	}
	if urlPattern.MatchString(s) {
		return true
	}
	if m := phonePattern.FindString(s); m != "" {
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 8 {
			return true
		}
	}
	return false
}
