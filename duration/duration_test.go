package duration

import (
	"strconv"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0 seconds"},
		{1, "1 second"},
		{2, "2 seconds"},
		{59, "59 seconds"},
		{60, "1 minute (60 seconds)"},
		{90, "1.5 minutes (90 seconds)"},
		{600, "10 minutes (600 seconds)"},
		{3599, "59.98 minutes (3,599 seconds)"},
		{3600, "1 hour (3,600 seconds)"},
		{4000, "1.11 hours (4,000 seconds)"},
		{86400, "1 day (86,400 seconds)"},
		{172800, "2 days (172,800 seconds)"},
		{604800, "1 week (604,800 seconds)"},
		{1209600, "2 weeks (1,209,600 seconds)"},
		{1234567, "2.04 weeks (1,234,567 seconds)"},
	}
	for _, tt := range tests {
		if got := Format(tt.seconds); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatContainsRawSeconds(t *testing.T) {
	for _, s := range []int{0, 7, 59, 60, 61, 999, 1000, 3600, 86399, 86400, 604799, 604800, 9999999} {
		got := Format(s)
		raw := FormatNumber(strconv.Itoa(s))
		if s < 60 {
			if !strings.HasPrefix(got, raw+" second") {
				t.Errorf("Format(%d) = %q, want prefix %q", s, got, raw+" second")
			}
			continue
		}
		if !strings.HasSuffix(got, "("+raw+" seconds)") {
			t.Errorf("Format(%d) = %q, want parenthetical %q", s, got, raw)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"1":        "1",
		"12":       "12",
		"123":      "123",
		"1234":     "1,234",
		"12345":    "12,345",
		"123456":   "123,456",
		"1234567":  "1,234,567",
		"1200000":  "1,200,000",
		"12000000": "12,000,000",
	}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
