package util

import "unicode/utf8"

// MaxLogBodySize is the default maximum body size kept in the request log (10KB).
const MaxLogBodySize = 10 * 1024

// TruncatedSuffix marks a truncated body.
const TruncatedSuffix = "...(truncated)"

// TruncateBody truncates data to at most maxSize bytes, appending
// TruncatedSuffix if truncated. The cut never splits a UTF-8 sequence.
// If maxSize <= 0, uses MaxLogBodySize.
func TruncateBody(data []byte, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxLogBodySize
	}
	if len(data) <= maxSize {
		return string(data)
	}
	cut := maxSize
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return string(data[:cut]) + TruncatedSuffix
}
