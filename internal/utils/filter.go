package utils

import "strings"

// MatchesFold reports whether s contains query, ignoring case. An empty or
// blank query matches everything.
func MatchesFold(s, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(query))
}

// Filter returns the items whose key matches query. The input slice is not modified.
func Filter[T any](items []T, query string, key func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if MatchesFold(key(item), query) {
			out = append(out, item)
		}
	}
	return out
}

// CountBy counts items per key.
func CountBy[T any](items []T, key func(T) string) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[key(item)]++
	}
	return counts
}
