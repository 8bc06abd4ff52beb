package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// Monetary amounts cross the HTTP boundary as decimal major-unit values
// (rupees) and are converted to integer minor units (paise) on entry.
// All internal storage and arithmetic use int64 minor units; floating
// point is never involved.

// ParseMajor converts a decimal major-unit string such as "123.45" into
// minor units (12345). At most two fraction digits are accepted.
func ParseMajor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount cannot be empty")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two fraction digits", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	minor := units*100 + cents
	if negative {
		minor = -minor
	}
	return minor, nil
}

// FormatMinor renders minor units back to a decimal major-unit string.
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
