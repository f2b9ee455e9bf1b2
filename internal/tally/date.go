package tally

import (
	"strings"
	"time"
	"unicode"
)

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	time.RFC3339,
}

// FormatDate renders an invoice date as YYYYMMDD. The second return value
// is false when the input could not be interpreted and the placeholder
// date was used.
func FormatDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultDate, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("20060102"), true
		}
	}

	stripped := strings.Map(func(r rune) rune {
		if r == '-' || r == '/' || r == '.' {
			return -1
		}
		return r
	}, s)
	if len(stripped) == 8 && strings.IndexFunc(stripped, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		// the digits must still name a real calendar day
		if _, err := time.Parse("20060102", stripped); err == nil {
			return stripped, true
		}
	}

	return DefaultDate, false
}
