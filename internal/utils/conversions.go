package utils

import "strings"

// ToStringSlice normalises a decoded config value into a list of strings. A single
// string is split on whitespace and non-string entries of a list are skipped.
func ToStringSlice(v any) []string {
	switch t := v.(type) {
	case string:
		return strings.Fields(t)
	case []string:
		return t
	case []any:
		stringSlice := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				stringSlice = append(stringSlice, s)
			}
		}
		return stringSlice
	}
	return nil
}
