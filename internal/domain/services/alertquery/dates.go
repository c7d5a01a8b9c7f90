package alertquery

import (
	"strings"
	"time"
)

// accepted record and filter date layouts; single-digit day and month parse too
var dateLayouts = []string{"2/1/2006", "2006-1-2"}

// ParseDate reads a DD/MM/YYYY or YYYY-MM-DD string into a UTC civil date
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// civil truncates t to its calendar day in its own location, expressed in UTC
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sameDay reports whether a and b fall on the same calendar day
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// isoDate renders a record date as YYYY-MM-DD, or returns it unchanged when unparseable
func isoDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format("2006-01-02")
	}
	return s
}
