package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	assert.Nil(t, SplitText("   ", 100, 10))
	assert.Equal(t, []string{"a short page"}, SplitText("  a short page \n", 100, 10))
}

func TestSplitTextRespectsSizeAndWords(t *testing.T) {
	text := strings.Repeat("fairway bunker green ", 50)

	chunks := SplitText(text, 100, 20)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
		for _, w := range strings.Fields(c) {
			assert.Contains(t, []string{"fairway", "bunker", "green"}, w)
		}
	}
}

func TestSplitTextOverlapCarriesContext(t *testing.T) {
	text := strings.Repeat("x", 250)

	chunks := SplitText(text, 100, 30)

	require.Len(t, chunks, 4)
	assert.Equal(t, strings.Repeat("x", 100), chunks[0])
	assert.Equal(t, strings.Repeat("x", 40), chunks[3])
}

func TestSplitTextOverlapTooLargeIsIgnored(t *testing.T) {
	chunks := SplitText(strings.Repeat("y", 30), 10, 10)
	assert.Len(t, chunks, 3)
}
