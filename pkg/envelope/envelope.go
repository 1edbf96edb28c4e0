// Package envelope builds the canonical response payloads returned by mock
// modules: success and list envelopes, failures and iframe callback pages.
//
// Missing arguments follow loose-truthiness rules: nil, false, zero numbers
// and the empty string all count as "not supplied" and take the default.
package envelope

import (
	"fmt"
	"strings"
)

// Map is a JSON object payload.
type Map = map[string]any

// Page defaults applied by List.
const (
	DefaultTotalCount = 100
	DefaultPageNo     = 1
	DefaultPageSize   = 15
	DefaultOrderBy    = "id"
	DefaultOrder      = "desc"
)

// OK returns {success: true, result: result} with an empty object for a
// missing result.
func OK(result any) Map {
	return Map{
		"success": true,
		"result":  or(result, Map{}),
	}
}

// Session returns a success envelope carrying result, or a default session
// with a visitor and an advertiser account when result is missing.
func Session(result any) Map {
	return Map{
		"success": true,
		"result":  or(result, defaultSession()),
	}
}

func defaultSession() Map {
	return Map{
		"visitor": Map{
			"username": "访问者",
			"roleId":   1,
			"id":       123,
		},
		"adOwner": Map{
			"username": "广告主",
			"roleId":   1,
			"id":       124,
		},
	}
}

// List returns a paginated success envelope.
//
// Known page fields are filled from page when supplied and from the defaults
// otherwise. Any other key of page is then copied in, but only if the page
// object does not hold that key yet.
func List(result any, page Map) Map {
	out := Map{
		"totalCount": or(page["totalCount"], DefaultTotalCount),
		"pageNo":     or(page["pageNo"], DefaultPageNo),
		"pageSize":   or(page["pageSize"], DefaultPageSize),
		"orderBy":    or(page["orderBy"], DefaultOrderBy),
		"order":      or(page["order"], DefaultOrder),
		"result":     or(result, []any{}),
	}
	for k, v := range page {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return Map{
		"success": true,
		"page":    out,
	}
}

// Fail returns {success: false, message: message}.
func Fail(message any) Map {
	return Map{
		"success": false,
		"message": message,
	}
}

// FieldFail returns a failure keyed by form field name.
func FieldFail(fields any) Map {
	return Fail(Map{"field": or(fields, Map{})})
}

// GlobalFail returns a failure carrying a page-level message.
func GlobalFail(message any) Map {
	text := ""
	if truthy(message) {
		text = fmt.Sprint(message)
	}
	return Fail(Map{"global": text})
}

// IframeCallback returns a minimal HTML document that runs script verbatim.
// It answers legacy iframe uploads, where the result has to be handed back to
// the parent window through a script.
func IframeCallback(script string) string {
	return strings.Join([]string{
		"<!doctype html>",
		"<html>",
		"<head>",
		`<meta charset="utf-8" />`,
		"</head>",
		"<body>",
		"<script>",
		script,
		"</script>",
		"</body>",
		"</html>",
	}, "")
}

func or(v, fallback any) any {
	if truthy(v) {
		return v
	}
	return fallback
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}
