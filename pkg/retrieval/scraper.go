package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// SiteSearchScraper reads the server-rendered results page of the content
// site's own search, e.g. https://golf.example/?s=<query>.
type SiteSearchScraper struct {
	searchURL string
	param     string
	limit     int
	client    *http.Client
}

func NewSiteSearchScraper(searchURL, param string, limit int) *SiteSearchScraper {
	if param == "" {
		param = "q"
	}
	if limit <= 0 {
		limit = 8
	}
	return &SiteSearchScraper{
		searchURL: searchURL,
		param:     param,
		limit:     limit,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SiteSearchScraper) Search(ctx context.Context, query string) ([]Link, error) {
	base, err := url.Parse(s.searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse site search url: %w", err)
	}
	q := base.Query()
	q.Set(s.param, query)
	base.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("site search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("site search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, err
	}
	return ParseResultLinks(string(body), base, s.limit)
}

// ParseResultLinks pulls result links from a search page. Anchors inside an
// element whose class or id mentions "result" or that sit in an <article>
// or heading are preferred; only same-site links are kept.
func ParseResultLinks(page string, base *url.URL, limit int) ([]Link, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse site search html: %w", err)
	}

	var preferred, fallback []Link
	seen := make(map[string]bool)

	var walk func(n *html.Node, inResult bool)
	walk = func(n *html.Node, inResult bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "nav", "header", "footer", "script", "style", "form":
				return
			case "article", "h1", "h2", "h3":
				inResult = true
			}
			marker := strings.ToLower(attr(n, "class") + " " + attr(n, "id"))
			if strings.Contains(marker, "result") || strings.Contains(marker, "search-item") {
				inResult = true
			}

			if n.Data == "a" {
				if link, ok := resolveLink(n, base); ok && !seen[link.URL] {
					seen[link.URL] = true
					if inResult {
						preferred = append(preferred, link)
					} else {
						fallback = append(fallback, link)
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inResult)
		}
	}
	walk(doc, false)

	links := preferred
	if len(links) == 0 {
		links = fallback
	}
	if len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

func resolveLink(n *html.Node, base *url.URL) (Link, bool) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return Link{}, false
	}
	u, err := base.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Link{}, false
	}
	if hostOf(u.String()) != hostOf(base.String()) {
		return Link{}, false
	}
	u.Fragment = ""
	// links back to the search page itself
	if u.Path == base.Path && u.RawQuery != "" {
		return Link{}, false
	}
	if u.Path == "" || u.Path == "/" {
		return Link{}, false
	}
	title := strings.Join(strings.Fields(text(n)), " ")
	if title == "" {
		title = attr(n, "title")
	}
	if title == "" {
		return Link{}, false
	}
	return Link{URL: u.String(), Title: title}, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}
