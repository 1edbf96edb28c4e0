package intercept

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		in       string
		kind     RuleKind
		path     string
		expected bool
	}{
		{"/user", Literal, "/data/user/list", true},
		{"/data/user/list", Literal, "/data/user", false},
		{"re:^/data/shop/.+$", Pattern, "/data/shop/cart", true},
		{"re:^/data/shop/.+$", Pattern, "/data/user/list", false},
		{"glob:/data/**/upload", Glob, "/data/a/b/upload", true},
		{"glob:/data/*/list", Glob, "/data/a/b/list", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRule(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, r.Kind)
			assert.Equal(t, tt.expected, r.Matches(tt.path))
			assert.Equal(t, tt.in, r.String())
		})
	}
}

func TestParseRule_Invalid(t *testing.T) {
	_, err := ParseRule("re:(")
	assert.Error(t, err)

	_, err = ParseRule("glob:[")
	assert.Error(t, err)

	_, err = ParseRules([]string{"/ok", "re:["})
	assert.Error(t, err)
}

func TestRule_ZeroPatternNeverMatches(t *testing.T) {
	assert.False(t, Rule{Kind: Pattern}.Matches("/anything"))
	assert.True(t, PatternRule(regexp.MustCompile(`list$`)).Matches("/data/user/list"))
}
