package intent

import (
	"regexp"
	"strconv"
	"strings"

	"golf-concierge-be/pkg/store"
)

// Kind tags which variant an Intent holds.
type Kind string

const (
	KindCancel    Kind = "cancel"
	KindStart     Kind = "start"
	KindPick      Kind = "pick"
	KindLocation  Kind = "location_capture"
	KindDate      Kind = "date_capture"
	KindShowLinks Kind = "show_links"
	KindFreeText  Kind = "free_text"
	KindHelp      Kind = "help"
)

const (
	LocationSentinel = "__LOCATION__:"
	WhenSentinel     = "__WHEN__:"
)

// Intent is a tagged variant. Only the fields belonging to Kind are set:
// Index for KindPick, Location for KindLocation, When for KindDate and
// Text for KindFreeText.
type Intent struct {
	Kind     Kind
	Index    int
	Location *store.Location
	When     string
	Text     string
}

func (i Intent) String() string {
	switch i.Kind {
	case KindPick:
		return string(i.Kind) + "(" + strconv.Itoa(i.Index) + ")"
	case KindLocation:
		if i.Location != nil {
			return string(i.Kind) + "(" + i.Location.Name + ")"
		}
	case KindDate:
		return string(i.Kind) + "(" + i.When + ")"
	}
	return string(i.Kind)
}

var (
	cancelWords = map[string]bool{"cancel": true, "stop": true, "exit": true, "quit": true, "reset": true}
	linkWords   = map[string]bool{"show links": true, "links": true, "sources": true, "show sources": true}

	startPattern = regexp.MustCompile(`(?i)\b(?:(?:start|take|begin|do)\s+(?:the\s+|a\s+)?quiz|quiz\s+me|quiz|course\s+finder|match\s+me|(?:find|recommend)\s+(?:me\s+)?(?:a\s+)?(?:golf\s+)?course)\b`)
	pickPattern  = regexp.MustCompile(`(?i)^(?:#|(?:option|answer|pick|choice|number)\s*#?)?\s*(\d{1,2})\s*[.)]?$`)
)

// Classify decides what the player meant by text given the conversation so
// far. It never mutates st.
func Classify(text string, st *store.ConversationState) Intent {
	raw := strings.TrimSpace(text)
	norm := normalize(raw)

	if cancelWords[norm] {
		return Intent{Kind: KindCancel}
	}

	awaitingAnswer := st != nil && st.AwaitingAnswer()
	quizActive := st != nil && st.QuizActive()

	if !awaitingAnswer && startPattern.MatchString(raw) {
		return Intent{Kind: KindStart}
	}

	if awaitingAnswer {
		if n, ok := parsePick(raw); ok {
			return Intent{Kind: KindPick, Index: n - 1}
		}
	}

	if strings.HasPrefix(raw, LocationSentinel) {
		if loc := parseLocationSentinel(strings.TrimPrefix(raw, LocationSentinel)); loc != nil {
			return Intent{Kind: KindLocation, Location: loc}
		}
	}
	if strings.HasPrefix(raw, WhenSentinel) {
		if token := strings.TrimSpace(strings.TrimPrefix(raw, WhenSentinel)); token != "" {
			return Intent{Kind: KindDate, When: token}
		}
	}
	if st != nil && raw != "" {
		switch st.Stage {
		case store.StageAwaitingLocation:
			name, ok := ExtractLocation(raw)
			if !ok {
				name = strings.Trim(raw, " .!?")
			}
			return Intent{Kind: KindLocation, Location: &store.Location{Name: name}}
		case store.StageAwaitingAvailability:
			return Intent{Kind: KindDate, When: raw}
		}
	}

	if linkWords[norm] {
		return Intent{Kind: KindShowLinks}
	}

	if !quizActive && raw != "" {
		return Intent{Kind: KindFreeText, Text: raw}
	}
	return Intent{Kind: KindHelp}
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, " .!?")
	return strings.Join(strings.Fields(s), " ")
}

func parsePick(s string) (int, bool) {
	m := pickPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseLocationSentinel accepts "<lat>,<lon>|<place>", "<lat>,<lon>" or a
// bare place name.
func parseLocationSentinel(payload string) *store.Location {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil
	}
	coords, place, _ := strings.Cut(payload, "|")
	place = strings.TrimSpace(place)

	lat, lon, ok := parseCoords(coords)
	if !ok {
		return &store.Location{Name: payload}
	}
	if place == "" {
		place = strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
	}
	return &store.Location{Name: place, Latitude: lat, Longitude: lon, HasCoords: true}
}

func parseCoords(s string) (float64, float64, bool) {
	a, b, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}
