package platform

import (
	"fmt"
	"strings"
	"time"
)

// Date token constants
const (
	DateTokenLength = 8
	dateSeparators  = "-/."
)

// ParseDateToken normalizes a user-entered date into the YYYYMMDD form the
// download engine accepts. "YYYY-MM-DD", "YYYY/MM/DD", "YYYY.MM.DD" and bare
// "YYYYMMDD" are all valid. Returns "" and false when the input is blank or
// malformed; callers log a warning and omit the bound from the run.
func ParseDateToken(s string) (string, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", false
	}
	t = strings.Map(func(r rune) rune {
		if strings.ContainsRune(dateSeparators, r) {
			return -1
		}
		return r
	}, t)
	if len(t) != DateTokenLength {
		return "", false
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return t, true
}

// FormatHMS renders a duration in whole seconds as hh:mm:ss. Negative input
// is clamped to zero, so a terminal "zero remaining" always reads 00:00:00.
func FormatHMS(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
