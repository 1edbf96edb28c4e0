package dispatch

import (
	"net/url"
	"strings"

	"github.com/getmockd/mockgate/pkg/module"
)

// Variant names a dispatch specialization.
type Variant string

const (
	VariantData   Variant = "data"
	VariantPage   Variant = "page"
	VariantUpload Variant = "upload"
)

// PathParam is the query parameter that overrides the effective path of a
// data request.
const PathParam = "path"

// ResolveKey returns the effective path and handler key for a request. Data
// requests with a non-empty path query parameter use it as the effective path
// and derive the key by replacing every "/" with "_" and lowercasing. All
// other requests use the pathname and the default key.
func ResolveKey(pathname string, query url.Values, variant Variant) (string, string) {
	if variant == VariantData {
		if p := query.Get(PathParam); p != "" {
			return p, strings.ToLower(strings.ReplaceAll(p, "/", "_"))
		}
	}
	return pathname, module.DefaultKey
}
