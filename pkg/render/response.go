package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"

	"golf-concierge-be/pkg/preference"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("render").ParseFS(templateFS, "templates/*.html"))

type Link struct {
	URL   string
	Title string
}

type Citation struct {
	Number int
	URL    string
	Title  string
}

type Option struct {
	Number int
	Label  string
}

type Question struct {
	ID      string
	Text    string
	Options []Option
	Step    int
	Total   int
}

type ProfileSummary struct {
	Archetype string
	Top       []preference.Ranked
}

type Course struct {
	Name        string
	URL         string
	Similarity  float64
	DistanceKm  float64
	HasDistance bool
	Highlights  []string
}

// MatchPercent maps cosine similarity onto 0-100 for display.
func (c Course) MatchPercent() float64 {
	return math.Max(0, math.Min(100, c.Similarity*100))
}

// Response is the structured reply for one chat turn. Paragraphs are plain
// text and escaped on output; Answer and Sidecar must already be safe HTML.
type Response struct {
	Paragraphs   []string
	Answer       template.HTML
	Citations    []Citation
	LinksHeading string
	Links        []Link
	Question     *Question
	Profile      *ProfileSummary
	Courses      []Course
	Sidecar      template.HTML
}

// Text builds a response made of plain paragraphs.
func Text(paragraphs ...string) *Response {
	return &Response{Paragraphs: paragraphs}
}

func (r *Response) HTML() (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "response", r); err != nil {
		return "", fmt.Errorf("render response: %w", err)
	}
	return buf.String(), nil
}
