package utils

import (
	"fmt"
	"strings"
)

// MonthNames is the canonical fee-month order for an academic year.
var MonthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var monthIndex = func() map[string]int {
	m := make(map[string]int, len(MonthNames))
	for i, name := range MonthNames {
		m[strings.ToLower(name)] = i
	}
	return m
}()

// CanonicalMonths validates and canonicalizes a request's month list:
// case-insensitive match against MonthNames, no duplicates, at least one
// month, returned in calendar order.
func CanonicalMonths(months []string) ([]string, error) {
	if len(months) == 0 {
		return nil, fmt.Errorf("at least one month is required")
	}

	seen := make(map[int]bool, len(months))
	for _, m := range months {
		idx, ok := monthIndex[strings.ToLower(strings.TrimSpace(m))]
		if !ok {
			return nil, fmt.Errorf("unknown month %q", m)
		}
		if seen[idx] {
			return nil, fmt.Errorf("duplicate month %q", m)
		}
		seen[idx] = true
	}

	out := make([]string, 0, len(seen))
	for i, name := range MonthNames {
		if seen[i] {
			out = append(out, name)
		}
	}
	return out, nil
}

// SortMonths returns the given canonical month names in calendar order.
func SortMonths(months []string) []string {
	seen := make(map[string]bool, len(months))
	for _, m := range months {
		seen[m] = true
	}
	out := make([]string, 0, len(months))
	for _, name := range MonthNames {
		if seen[name] {
			out = append(out, name)
		}
	}
	return out
}
