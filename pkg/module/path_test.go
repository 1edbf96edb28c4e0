package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		pathname string
		want     string
		ok       bool
	}{
		{"data prefix", "/data/foo/bar", "foo/bar", true},
		{"nested", "/data/a/b/c", "a/b/c", true},
		{"no prefix", "/foo/bar", "foo/bar", true},
		{"leading double slash keeps data segment", "//data//foo///bar/", "data/foo/bar", true},
		{"duplicate slashes after prefix", "/data//foo///bar/", "foo/bar", true},
		{"single segment", "/data/foo", "", false},
		{"prefix only", "/data", "", false},
		{"root", "/", "", false},
		{"empty", "", "", false},
		{"dot dot", "/data/../etc/passwd", "", false},
		{"dot", "/data/./foo", "", false},
		{"prefix not at start", "/api/data/foo", "api/data/foo", true},
		{"prefix glued to segment", "/database/users", "base/users", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.pathname, DefaultPrefix)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_FewerThanTwoSegmentsAlwaysMiss(t *testing.T) {
	for _, p := range []string{"/data/x", "/data/x/", "/data///x", "/x", "x", "/data/"} {
		_, ok := Normalize(p, DefaultPrefix)
		assert.False(t, ok, p)
	}
}
