package common

import (
	"strconv"
	"time"
)

// AtoiDefault converts the provided string to an integer falling back to the default when parsing fails.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// ParseID parses a decimal entity identifier. Zero and negatives are rejected.
func ParseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, ValidationError("invalid id")
	}
	return id, nil
}

// ParseDate accepts RFC 3339 timestamps as well as plain yyyy-mm-dd dates.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, ValidationError("invalid date, expected RFC 3339 or yyyy-mm-dd")
	}
	return t, nil
}
