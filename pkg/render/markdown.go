package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

	policy = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^gc-cite$`)).OnElements("a")
		return p
	}()

	citationPattern = regexp.MustCompile(`\[(\d{1,2})\]`)
)

// Markdown renders LLM output to sanitised HTML.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// LinkCitations rewrites [n] markers into markdown links to the n-th source
// (1-based). Markers without a matching source, or that are already link
// text, are left alone. It returns the numbers that were actually cited.
func LinkCitations(src string, urls []string) (string, []int) {
	var out strings.Builder
	var cited []int
	seen := make(map[int]bool)
	last := 0

	for _, m := range citationPattern.FindAllStringSubmatchIndex(src, -1) {
		start, end := m[0], m[1]
		n, _ := strconv.Atoi(src[m[2]:m[3]])
		if n < 1 || n > len(urls) || (end < len(src) && src[end] == '(') || (start > 0 && src[start-1] == '[') {
			continue
		}
		out.WriteString(src[last:start])
		out.WriteString("[[" + strconv.Itoa(n) + "]](" + urls[n-1] + ")")
		last = end
		if !seen[n] {
			seen[n] = true
			cited = append(cited, n)
		}
	}
	out.WriteString(src[last:])
	return out.String(), cited
}
