package utils

import (
	"strconv"
	"strings"
)

// StrToInt converts a query-string value to an int.
// Returns fallback when s is empty; an error when it is present but malformed.
func StrToInt(s string, fallback int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
