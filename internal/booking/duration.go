package booking

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDurationMinutes is assumed whenever a catalog duration cannot be
// understood. Bookings should never fail on a badly worded duration.
const DefaultDurationMinutes = 60

// ParseDurationMinutes converts a free-text catalog duration ("2 Hours",
// "90 min", "4.5 hrs") into minutes. Matching is case-insensitive on the
// "hour"/"hr" and "min" keywords; the numeric value is the leading number of
// the string, decimals allowed. Anything unparseable or non-positive yields
// DefaultDurationMinutes.
func ParseDurationMinutes(text string) int {
	s := strings.ToLower(strings.TrimSpace(text))

	var mins float64
	switch {
	case strings.Contains(s, "hour") || strings.Contains(s, "hr"):
		if hrs, ok := leadingNumber(s); ok {
			mins = hrs * 60
		}
	case strings.Contains(s, "min"):
		if m, ok := leadingNumber(s); ok {
			mins = m
		}
	}

	// Round before the positivity check: a fractional value under half a
	// minute would otherwise sneak past the guard and come out as 0.
	n := int(mins + 0.5)
	if n <= 0 {
		return DefaultDurationMinutes
	}
	return n
}

// ParseDuration is ParseDurationMinutes as a time.Duration.
func ParseDuration(text string) time.Duration {
	return time.Duration(ParseDurationMinutes(text)) * time.Minute
}

// leadingNumber parses the numeric run at the start of s ("4.5 hours" -> 4.5,
// "90min" -> 90). It mirrors how the booking form's values have always been
// interpreted: only the leading token counts.
func leadingNumber(s string) (float64, bool) {
	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
