package retrieval

import (
	"net/url"
	"strings"
	"unicode"
)

const (
	lexicalBonusPerToken = 0.02
	lexicalBonusCap      = 0.10
	minTokenLength       = 3
)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true, "you": true,
	"all": true, "any": true, "can": true, "her": true, "was": true, "one": true, "our": true,
	"out": true, "has": true, "have": true, "how": true, "what": true, "when": true, "where": true,
	"which": true, "who": true, "why": true, "with": true, "this": true, "that": true, "from": true,
	"they": true, "will": true, "would": true, "there": true, "their": true, "about": true,
	"your": true, "into": true, "does": true, "did": true, "its": true, "get": true, "got": true,
	"tell": true, "some": true, "should": true, "could": true, "best": true,
}

// Variants returns the original query, its lowercase form and a
// punctuation-free form, without duplicates.
func Variants(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	candidates := []string{
		query,
		strings.ToLower(query),
		strings.Join(strings.Fields(stripPunctuation(strings.ToLower(query))), " "),
	}
	var out []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Threshold is the minimum similarity a passage needs. Short queries embed
// less precisely, so they get a lower bar.
func Threshold(query string) float64 {
	switch n := len(words(query)); {
	case n <= 3:
		return 0.30
	case n <= 6:
		return 0.35
	default:
		return 0.40
	}
}

// Tokens returns the distinct content words of query used for the lexical
// bonus.
func Tokens(query string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range words(query) {
		if len(w) < minTokenLength || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// LexicalBonus adds a small boost for each token found in the passage text,
// title or URL.
func LexicalBonus(tokens []string, p Passage) float64 {
	haystack := strings.ToLower(p.Text + " " + p.Title + " " + p.SourceURL)
	bonus := 0.0
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			bonus += lexicalBonusPerToken
		}
	}
	if bonus > lexicalBonusCap {
		bonus = lexicalBonusCap
	}
	return bonus
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
