package normalization

import (
	"strings"
)

// Email lowercases and trims an address so lookups and uniqueness checks
// never depend on how the client typed it.
func Email(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
