// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// NormalizeCodes trims and upper-cases each element, dropping empty values
// and later duplicates. Order is preserved.
//
// Example:
//
//	NormalizeCodes([]string{" op ", "WE", "OP", ""})
//	// Returns: []string{"OP", "WE"}
func NormalizeCodes(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		code := strings.ToUpper(strings.TrimSpace(v))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; !ok {
			seen[code] = struct{}{}
			result = append(result, code)
		}
	}

	return result
}
