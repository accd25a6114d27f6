package render

import (
	"testing"
	"time"

	"golf-concierge-be/pkg/preference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseEscapesParagraphs(t *testing.T) {
	out, err := Text("Sorry <b>nothing</b> found.").HTML()
	require.NoError(t, err)
	assert.Contains(t, out, "Sorry &lt;b&gt;nothing&lt;/b&gt; found.")
	assert.NotContains(t, out, "gc-question")
}

func TestResponseRendersQuestionAndCourses(t *testing.T) {
	r := &Response{
		Paragraphs: []string{"Here is your next question."},
		Question: &Question{
			ID:      "q_walk",
			Text:    "Do you walk or ride?",
			Options: []Option{{Number: 1, Label: "Walk"}, {Number: 2, Label: "Ride"}},
			Step:    2,
			Total:   8,
		},
	}
	out, err := r.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `data-question-id="q_walk"`)
	assert.Contains(t, out, "Question 2 of up to 8")
	assert.Contains(t, out, `<li data-option="2">Ride</li>`)

	r = &Response{
		Profile: &ProfileSummary{Archetype: "The Walker", Top: []preference.Ranked{{Dimension: preference.PhysicalDemand, Label: "Physical demand", Score: 8}}},
		Courses: []Course{
			{Name: "Bandon Dunes", URL: "https://bandon.example", Similarity: 0.93, DistanceKm: 12.4, HasDistance: true},
			{Name: "Old Macdonald", URL: "javascript:alert(1)", Similarity: 0.88},
		},
	}
	out, err = r.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, "The Walker")
	assert.Contains(t, out, "Physical demand: 8.0/10")
	assert.Contains(t, out, "12 km away")
	assert.Contains(t, out, "93% match")
	assert.NotContains(t, out, "javascript:")
}

func TestResponseCitationsAndLinks(t *testing.T) {
	r := &Response{
		Answer:       Markdown("Fescue is firm [1]."),
		Citations:    []Citation{{Number: 1, URL: "https://golf.example/fescue", Title: "Fescue"}},
		LinksHeading: "Related pages:",
		Links:        []Link{{URL: "https://golf.example/turf"}},
	}
	out, err := r.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `<li id="cite-1"><a href="https://golf.example/fescue"`)
	assert.Contains(t, out, ">https://golf.example/turf</a>")
	assert.Contains(t, out, "<p>Related pages:</p>")
}

func TestWeatherCard(t *testing.T) {
	empty, err := WeatherCard{Place: "Nowhere"}.HTML()
	require.NoError(t, err)
	assert.Empty(t, empty)

	card := WeatherCard{
		Place: "Pinehurst, NC",
		Days:  []WeatherDay{{Date: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), Summary: "Clear", MinC: 9, MaxC: 21, PrecipProbability: 10, WindKph: 14}},
	}
	html, err := card.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(html), "Pinehurst, NC")
	assert.Contains(t, string(html), "Sat Oct 17")
	assert.Contains(t, string(html), "9-21°C")
}
