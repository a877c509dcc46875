package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesFold(t *testing.T) {
	tests := []struct {
		s, query string
		want     bool
	}{
		{"Site-Plan.pdf", "plan", true},
		{"Site-Plan.pdf", "PLAN", true},
		{"Site-Plan.pdf", "  ", true},
		{"Site-Plan.pdf", "", true},
		{"Site-Plan.pdf", "survey", false},
		{"", "x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesFold(tt.s, tt.query), "%q in %q", tt.query, tt.s)
	}
}

func TestFilter(t *testing.T) {
	names := []string{"alice", "Bob", "ALBERT"}
	got := Filter(names, "al", func(s string) string { return s })
	assert.Equal(t, []string{"alice", "ALBERT"}, got)
	assert.Equal(t, names, Filter(names, "", func(s string) string { return s }))
	assert.Empty(t, Filter(names, "zed", func(s string) string { return s }))
}

func TestCountBy(t *testing.T) {
	roles := []string{"admin", "user", "user"}
	counts := CountBy(roles, func(s string) string { return s })
	assert.Equal(t, 1, counts["admin"])
	assert.Equal(t, 2, counts["user"])
	assert.Zero(t, counts["guest"])
}
