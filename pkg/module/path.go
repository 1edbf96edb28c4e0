package module

import "strings"

// DefaultPrefix is the data-namespace prefix stripped from request paths.
const DefaultPrefix = "/data"

// Normalize turns a request pathname into a module identity.
//
// The literal prefix is removed when the pathname starts with it, the rest is
// split on "/" and empty segments are dropped. A module identity needs at least
// a directory and a leaf name, so fewer than two segments is a miss. "." and
// ".." segments are a miss too since the identity is used as a path below the
// mock root.
func Normalize(pathname, prefix string) (string, bool) {
	if prefix != "" {
		pathname = strings.TrimPrefix(pathname, prefix)
	}

	segments := make([]string, 0, 4)
	for _, s := range strings.Split(pathname, "/") {
		switch s {
		case "":
			continue
		case ".", "..":
			return "", false
		}
		segments = append(segments, s)
	}

	if len(segments) < 2 {
		return "", false
	}
	return strings.Join(segments, "/"), true
}
