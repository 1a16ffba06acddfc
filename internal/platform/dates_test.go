package platform

import (
	"testing"
	"time"
)

func TestParseDateToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2024-01-31", "20240131", true},
		{"2024/01/31", "20240131", true},
		{"2024.01.31", "20240131", true},
		{"20240131", "20240131", true},
		{" 2024-01-31 ", "20240131", true},
		{"", "", false},
		{"   ", "", false},
		{"2024-1-31", "", false},
		{"not-a-date", "", false},
		{"202401311", "", false},
		{"2024013a", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseDateToken(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDateToken(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatHMS(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-5 * time.Second, "00:00:00"},
		{42 * time.Second, "00:00:42"},
		{5 * time.Minute, "00:05:00"},
		{90 * time.Minute, "01:30:00"},
		{3*time.Hour + 7*time.Minute + 9*time.Second, "03:07:09"},
	}

	for _, tt := range tests {
		if got := FormatHMS(tt.d); got != tt.want {
			t.Errorf("FormatHMS(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
