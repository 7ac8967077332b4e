package shared

import "time"

const dayLayout = "2006-01-02"

// ParseDate accepts RFC3339 or YYYY-MM-DD; the latter is midnight UTC.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse(dayLayout, value)
}
