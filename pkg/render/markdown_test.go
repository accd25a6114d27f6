package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownSanitises(t *testing.T) {
	got := string(Markdown("**Links** courses [site](https://golf.example)\n\n<script>alert(1)</script>"))
	assert.Contains(t, got, "<strong>Links</strong>")
	assert.Contains(t, got, `href="https://golf.example"`)
	assert.Contains(t, got, `rel="nofollow`)
	assert.NotContains(t, got, "<script>")
}

func TestLinkCitations(t *testing.T) {
	urls := []string{"https://a.example/1", "https://a.example/2"}
	out, cited := LinkCitations("Wind matters [1]. Firm turf [2][1]. Unknown [7]. Already [1](https://x).", urls)

	assert.Equal(t, []int{1, 2}, cited)
	assert.Contains(t, out, "Wind matters [[1]](https://a.example/1).")
	assert.Contains(t, out, "[[2]](https://a.example/2)[[1]](https://a.example/1)")
	assert.Contains(t, out, "Unknown [7].")
	assert.Contains(t, out, "Already [1](https://x).")

	html := string(Markdown(out))
	assert.Equal(t, 3, strings.Count(html, `href="https://a.example/`))
}
