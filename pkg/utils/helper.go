package utils

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeEmail lowercases and trims so email lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaskEmail keeps the first two characters of the local part and the domain:
// john@example.com -> jo***@example.com. Local parts shorter than two
// characters are returned unchanged.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 2 {
		return email
	}
	return email[:2] + "***" + email[at:]
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts the ISO 8601 shapes clients send for dates of birth.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// FormatTTL renders a lifetime the way clients expect it: "7d", "1h", "15m".
func FormatTTL(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}
