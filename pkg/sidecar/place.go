package sidecar

import (
	"regexp"
	"strings"

	"golf-concierge-be/pkg/intent"
)

var keywordPattern = regexp.MustCompile(`(?i)\b(golf|course|courses|tee\s*times?|links|weather|forecast|rain|wind|temperature)\b`)

// ExtractPlace returns the place named in query. A place only counts when
// the query also talks about golf or weather.
func ExtractPlace(query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" || !keywordPattern.MatchString(query) {
		return "", false
	}
	return intent.ExtractLocation(query)
}
