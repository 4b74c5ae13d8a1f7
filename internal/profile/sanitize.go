package profile

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
)

var strictPolicy = bluemonday.StrictPolicy()

// maxSanitizeRounds bounds how many layers of entity encoding are peeled off.
const maxSanitizeRounds = 8

// SanitizeText strips every HTML tag from s and trims it. The value is stored
// as plain text, so entities are decoded and the result sanitized again until
// nothing changes; entity-encoded markup cannot survive as live tags.
func SanitizeText(s string) string {
	for i := 0; i < maxSanitizeRounds; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	// Still changing: keep the escaped form.
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// sanitizeOptional sanitizes an optional field; blank results become nil.
func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

func sanitizeList(items []string) []string {
	out := lo.FilterMap(items, func(item string, _ int) (string, bool) {
		clean := SanitizeText(item)
		return clean, clean != ""
	})
	return lo.Uniq(out)
}
