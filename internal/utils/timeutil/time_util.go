package timeutil

import (
	"time"
)

func TimeToISO8601(date time.Time) string {
	if date.IsZero() {
		return ""
	}

	return date.UTC().Format(time.RFC3339Nano)
}

func ParseISO8601(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// DurationToMillis returns the duration in fractional milliseconds.
func DurationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
