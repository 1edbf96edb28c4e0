package intercept

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RuleKind tags the variant held by a Rule.
type RuleKind int

const (
	// Literal matches when the pathname contains the literal.
	Literal RuleKind = iota
	// Pattern matches when the regular expression matches the pathname.
	Pattern
	// Glob matches the whole pathname against a doublestar pattern.
	Glob
)

func (k RuleKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Pattern:
		return "pattern"
	case Glob:
		return "glob"
	}
	return fmt.Sprintf("RuleKind(%d)", int(k))
}

// Rule prefixes understood by ParseRule.
const (
	PatternPrefix = "re:"
	GlobPrefix    = "glob:"
)

// Rule is one whitelist or blacklist entry.
type Rule struct {
	Kind    RuleKind
	Literal string
	Pattern *regexp.Regexp
	Glob    string
}

// LiteralRule returns a substring rule.
func LiteralRule(s string) Rule {
	return Rule{Kind: Literal, Literal: s}
}

// PatternRule returns a regular expression rule.
func PatternRule(re *regexp.Regexp) Rule {
	return Rule{Kind: Pattern, Pattern: re}
}

// GlobRule returns a glob rule, validating the pattern.
func GlobRule(pattern string) (Rule, error) {
	if !doublestar.ValidatePattern(pattern) {
		return Rule{}, fmt.Errorf("invalid glob %q", pattern)
	}
	return Rule{Kind: Glob, Glob: pattern}, nil
}

// ParseRule parses "re:<regexp>", "glob:<pattern>" or a literal.
func ParseRule(s string) (Rule, error) {
	switch {
	case strings.HasPrefix(s, PatternPrefix):
		re, err := regexp.Compile(strings.TrimPrefix(s, PatternPrefix))
		if err != nil {
			return Rule{}, fmt.Errorf("invalid pattern rule %q: %w", s, err)
		}
		return PatternRule(re), nil
	case strings.HasPrefix(s, GlobPrefix):
		return GlobRule(strings.TrimPrefix(s, GlobPrefix))
	default:
		return LiteralRule(s), nil
	}
}

// ParseRules parses every entry of list.
func ParseRules(list []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(list))
	for _, s := range list {
		r, err := ParseRule(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Matches reports whether the rule matches pathname.
func (r Rule) Matches(pathname string) bool {
	switch r.Kind {
	case Literal:
		return strings.Contains(pathname, r.Literal)
	case Pattern:
		return r.Pattern != nil && r.Pattern.MatchString(pathname)
	case Glob:
		ok, err := doublestar.Match(r.Glob, pathname)
		return err == nil && ok
	}
	return false
}

// String returns the rule in ParseRule syntax.
func (r Rule) String() string {
	switch r.Kind {
	case Pattern:
		if r.Pattern == nil {
			return PatternPrefix
		}
		return PatternPrefix + r.Pattern.String()
	case Glob:
		return GlobPrefix + r.Glob
	default:
		return r.Literal
	}
}

func matchAny(rules []Rule, pathname string) bool {
	for _, r := range rules {
		if r.Matches(pathname) {
			return true
		}
	}
	return false
}
