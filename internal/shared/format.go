package shared

import (
	"fmt"
	"strings"
	"time"
)

// FormatNumber renders an integer with dot thousand separators (1.234.567).
func FormatNumber(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}

	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatHours renders a float with one decimal, dot thousand separators and a
// comma decimal separator (1.234,5).
func FormatHours(hours float64) string {
	whole := int(hours)
	frac := int((hours-float64(whole))*10 + 0.5)
	if frac >= 10 {
		whole++
		frac -= 10
	}
	return fmt.Sprintf("%s,%d", FormatNumber(whole), frac)
}

// ParseISOTime parses an RFC3339 timestamp. Zero-value sentinels used by the
// Xbox API ("0001-01-01T00:00:00Z") and empty strings report ok=false.
func ParseISOTime(value string) (time.Time, bool) {
	if value == "" || strings.HasPrefix(value, "0001") {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// YearOf extracts the four digit year from an ISO timestamp, or "" when absent.
func YearOf(value string) string {
	if len(value) >= 4 && !strings.HasPrefix(value, "0001") {
		return value[:4]
	}
	return ""
}

// MonthKeyOf extracts a YYYY-MM bucket key from an ISO timestamp, or "" when absent.
func MonthKeyOf(value string) string {
	t, ok := ParseISOTime(value)
	if !ok {
		return ""
	}
	return t.Format("2006-01")
}
