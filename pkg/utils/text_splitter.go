package utils

import (
	"strings"
	"unicode"
)

// SplitText cuts text into chunks of at most chunkSize runes, each starting
// overlap runes before the previous one ended. A cut is moved back to the
// nearest whitespace when one lies in the last fifth of the window, so words
// are only split when a single token is longer than that.
func SplitText(text string, chunkSize int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes, end-chunkSize/5, end); cut > start {
			end = cut
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := nextWordStart(runes, end-overlap, end)
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// nextWordStart moves i forward past a partial word, giving up at limit.
func nextWordStart(runes []rune, i, limit int) int {
	if i <= 0 || unicode.IsSpace(runes[i-1]) {
		return i
	}
	for j := i; j < limit; j++ {
		if unicode.IsSpace(runes[j]) {
			return j + 1
		}
	}
	return i
}

func lastSpace(runes []rune, from, to int) int {
	if from < 0 {
		from = 0
	}
	for i := to; i > from; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return -1
}
