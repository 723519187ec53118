// Package duration turns raw second counts from moderation events into
// human-readable strings, scaled to the largest fitting unit.
package duration

import (
	"math"
	"strconv"
	"strings"
)

// roundPrecision is the number of decimals kept for scaled units.
const roundPrecision = 2

type unit struct {
	name    string
	seconds int
}

// units are ordered by size; the last one whose size fits wins.
var units = []unit{
	{"minute", 60},
	{"hour", 60 * 60},
	{"day", 60 * 60 * 24},
	{"week", 60 * 60 * 24 * 7},
}

// Format converts seconds to the closest applicable unit and keeps the raw
// count in parentheses. E.g. 604800 -> "1 week (604,800 seconds)".
// Below one minute only the seconds are printed. Negative input is a caller error.
func Format(seconds int) string {
	raw := formatSeconds(seconds)
	if seconds < units[0].seconds {
		return raw
	}
	u := units[0]
	for _, candidate := range units[1:] {
		if seconds < candidate.seconds {
			break
		}
		u = candidate
	}
	precision := math.Pow(10, roundPrecision)
	value := math.Round(float64(seconds)/float64(u.seconds)*precision) / precision
	name := u.name
	if value != 1 {
		name += "s"
	}
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + name + " (" + raw + ")"
}

func formatSeconds(seconds int) string {
	if seconds == 1 {
		return "1 second"
	}
	return FormatNumber(strconv.Itoa(seconds)) + " seconds"
}

// FormatNumber adds grouping separators to a string of digits.
// E.g. "1200000" -> "1,200,000".
func FormatNumber(number string) string {
	if len(number) <= 3 {
		return number
	}
	var b strings.Builder
	lead := len(number) % 3
	if lead > 0 {
		b.WriteString(number[:lead])
	}
	for i := lead; i < len(number); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(number[i : i+3])
	}
	return b.String()
}
