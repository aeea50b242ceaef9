package cleanup

import (
	"strings"
)

// DefaultPlaceholderPatterns are mock strings the scraping pipeline is known
// to leave behind. Matching is case-insensitive substring.
var DefaultPlaceholderPatterns = []string{
	"lorem ipsum",
	"test truck",
	"sample truck",
	"unnamed truck",
	"placeholder",
	"coming soon",
	"tbd",
}

// ContainsPlaceholder reports whether s contains any of the given placeholder
// patterns (defaults used when patterns is empty).
func ContainsPlaceholder(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	if len(patterns) == 0 {
		patterns = DefaultPlaceholderPatterns
	}
	lower := strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
