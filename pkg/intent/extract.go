package intent

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golf-concierge-be/pkg/store"
)

var (
	locationPattern = regexp.MustCompile(`\b(?:[Ii]n|[Nn]ear|[Aa]round|[Aa]t)\s+((?:[A-Z][\w'.-]*)(?:\s+(?:[A-Z][\w'.-]*|(?:of|de|la|del)\b))*(?:,\s*[A-Z]{2}\b)?)`)
	isoDatePattern  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

	// Capitalised words that follow "in"/"at" without naming a place.
	notPlaces = map[string]bool{
		"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
		"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
		"saturday": true, "sunday": true, "a": true, "an": true, "i": true, "my": true,
	}

	weekdays = map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	}
)

// ExtractLocation finds a place introduced by in/near/around/at, e.g.
// "courses near Pinehurst, NC". Place names must be capitalised.
func ExtractLocation(text string) (string, bool) {
	for _, m := range locationPattern.FindAllStringSubmatch(text, -1) {
		place := strings.TrimRight(m[1], ".")
		first := strings.ToLower(strings.Fields(place)[0])
		if notPlaces[first] {
			continue
		}
		return place, true
	}
	return "", false
}

// ExtractWindow resolves a relative or ISO date expression against now.
// Recognised: today, tomorrow, this weekend, next week, weekday names,
// YYYY-MM-DD and "anytime"/"flexible".
func ExtractWindow(text string, now time.Time) (*store.AvailabilityWindow, bool) {
	lower := strings.ToLower(text)
	today := startOfDay(now)

	if m := isoDatePattern.FindStringSubmatch(lower); m != nil {
		d, err := time.ParseInLocation("2006-01-02", m[1], now.Location())
		if err == nil {
			return day(d, d.Format("Mon Jan 2")), true
		}
	}

	switch {
	case strings.Contains(lower, "today") || strings.Contains(lower, "tonight"):
		return day(today, "today"), true
	case strings.Contains(lower, "tomorrow"):
		return day(today.AddDate(0, 0, 1), "tomorrow"), true
	case strings.Contains(lower, "weekend"):
		sat := today
		switch today.Weekday() {
		case time.Sunday:
			sat = today.AddDate(0, 0, -1)
		case time.Saturday:
		default:
			sat = today.AddDate(0, 0, int(time.Saturday-today.Weekday()))
		}
		from := sat
		if from.Before(today) {
			from = today
		}
		return &store.AvailabilityWindow{
			Label: fmt.Sprintf("this weekend (%s)", sat.Format("Jan 2")),
			From:  from,
			To:    endOfDay(sat.AddDate(0, 0, 1)),
		}, true
	case strings.Contains(lower, "next week"):
		offset := (int(time.Monday) - int(today.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		mon := today.AddDate(0, 0, offset)
		return &store.AvailabilityWindow{
			Label: fmt.Sprintf("next week (from %s)", mon.Format("Jan 2")),
			From:  mon,
			To:    endOfDay(mon.AddDate(0, 0, 6)),
		}, true
	case strings.Contains(lower, "anytime") || strings.Contains(lower, "any time") || strings.Contains(lower, "flexible"):
		return &store.AvailabilityWindow{Label: "flexible", From: today, To: endOfDay(today.AddDate(0, 0, 13))}, true
	}

	for _, word := range strings.FieldsFunc(lower, func(r rune) bool { return r < 'a' || r > 'z' }) {
		wd, ok := weekdays[word]
		if !ok {
			continue
		}
		offset := (int(wd) - int(today.Weekday()) + 7) % 7
		d := today.AddDate(0, 0, offset)
		return day(d, d.Format("Monday Jan 2")), true
	}
	return nil, false
}

func day(d time.Time, label string) *store.AvailabilityWindow {
	return &store.AvailabilityWindow{Label: label, From: startOfDay(d), To: endOfDay(d)}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
