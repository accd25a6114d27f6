package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<nav><a href="/about">About</a></nav>
<div class="search-results">
  <article><h2><a href="/guides/links-golf">Links golf explained</a></h2></article>
  <article><h2><a href="https://golf.example/guides/links-golf#top">Links golf explained</a></h2></article>
  <article><h2><a href="https://other.example/spam">Elsewhere</a></h2></article>
  <div class="result"><a href="/courses/bandon"> Bandon <b>Dunes</b> </a></div>
</div>
<a href="/?s=links&page=2">Next</a>
<footer><a href="/privacy">Privacy</a></footer>
</body></html>`

func TestParseResultLinks(t *testing.T) {
	base, _ := url.Parse("https://golf.example/?s=links")
	links, err := ParseResultLinks(searchPage, base, 8)
	require.NoError(t, err)
	assert.Equal(t, []Link{
		{URL: "https://golf.example/guides/links-golf", Title: "Links golf explained"},
		{URL: "https://golf.example/courses/bandon", Title: "Bandon Dunes"},
	}, links)
}

func TestParseResultLinksFallsBackToPlainAnchors(t *testing.T) {
	base, _ := url.Parse("https://golf.example/search")
	links, err := ParseResultLinks(`<p><a href="/a">A page</a> <a href="/">Home</a></p>`, base, 8)
	require.NoError(t, err)
	assert.Equal(t, []Link{{URL: "https://golf.example/a", Title: "A page"}}, links)
}

func TestSiteSearchScraper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "links golf", r.URL.Query().Get("s"))
		_, _ = w.Write([]byte(`<article><a href="/guides/links">Links</a></article>`))
	}))
	defer srv.Close()

	links, err := NewSiteSearchScraper(srv.URL+"/", "s", 5).Search(context.Background(), "links golf")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, srv.URL+"/guides/links", links[0].URL)

	_, err = NewSiteSearchScraper(srv.URL+"/down", "s", 5).Search(context.Background(), "x")
	assert.ErrorContains(t, err, "status 503")
}
