package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxFeedbackLength bounds analyst feedback in runes
const MaxFeedbackLength = 2000

var newlinePattern = regexp.MustCompile(`[\r\n]+`)

// Feedback trims analyst free text, drops control characters other than
// newlines and tabs, normalizes CRLF and truncates to MaxFeedbackLength runes.
func Feedback(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)

	if runes := []rune(s); len(runes) > MaxFeedbackLength {
		s = strings.TrimSpace(string(runes[:MaxFeedbackLength]))
	}
	return s
}

// LogString flattens line breaks so a value cannot forge log lines
func LogString(s string) string {
	return newlinePattern.ReplaceAllString(s, " ")
}
