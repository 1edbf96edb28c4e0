package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		maxSize int
		want    string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 5, "hello" + TruncatedSuffix},
		{"empty", "", 5, ""},
		{"keeps runes whole", "héllo", 2, "h" + TruncatedSuffix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TruncateBody([]byte(tt.data), tt.maxSize))
		})
	}
}

func TestTruncateBody_DefaultMaxSize(t *testing.T) {
	t.Parallel()

	data := strings.Repeat("x", MaxLogBodySize+1)
	got := TruncateBody([]byte(data), 0)
	assert.Equal(t, MaxLogBodySize+len(TruncatedSuffix), len(got))
	assert.True(t, strings.HasSuffix(got, TruncatedSuffix))
}
