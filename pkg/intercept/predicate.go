package intercept

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/mux"
)

// Predicate decides whether a request is captured.
type Predicate func(r *http.Request) bool

// Defaults used by the predicates.
const (
	DefaultPrefix       = "/data"
	DefaultUploadHeader = "X-Upload-Path"
)

var (
	debugMarker = regexp.MustCompile(`(?i)[?&](?:ed|enable_debug)\b`)
)

// DebugMarker reports whether a referer carries the ed or enable_debug
// query token.
func DebugMarker(referer string) bool {
	return debugMarker.MatchString(referer)
}

// Config holds the whitelist and blacklist overrides of the data predicate.
// A nil Config applies no overrides.
type Config struct {
	WhiteList []Rule
	BlackList []Rule
}

// NewConfig parses whitelist and blacklist entries with ParseRule.
func NewConfig(whiteList, blackList []string) (*Config, error) {
	white, err := ParseRules(whiteList)
	if err != nil {
		return nil, fmt.Errorf("whitelist: %w", err)
	}
	black, err := ParseRules(blackList)
	if err != nil {
		return nil, fmt.Errorf("blacklist: %w", err)
	}
	return &Config{WhiteList: white, BlackList: black}, nil
}

// Option configures the data and upload predicates.
type Option func(*options)

type options struct {
	prefix       string
	uploadHeader string
}

// WithPrefix sets the data namespace prefix gate.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = strings.TrimSuffix(prefix, "/")
		}
	}
}

// WithUploadHeader sets the header carrying the upload path.
func WithUploadHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.uploadHeader = name
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{prefix: DefaultPrefix, uploadHeader: DefaultUploadHeader}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Data returns the predicate of the JSON data namespace.
//
// Evaluation order, first match wins:
//  1. a whitelist match intercepts
//  2. a blacklist match does not
//  3. the pathname must start with the prefix, the method must contain
//     "post" and the referer must carry the debug marker
func Data(cfg *Config, opts ...Option) Predicate {
	o := buildOptions(opts)
	if cfg == nil {
		cfg = &Config{}
	}
	prefix := strings.ToLower(o.prefix) + "/"

	return func(r *http.Request) bool {
		pathname := r.URL.Path
		if matchAny(cfg.WhiteList, pathname) {
			return true
		}
		if matchAny(cfg.BlackList, pathname) {
			return false
		}
		if !strings.HasPrefix(strings.ToLower(pathname), prefix) {
			return false
		}
		if !strings.Contains(strings.ToLower(r.Method), "post") {
			return false
		}
		return DebugMarker(r.Header.Get("Referer"))
	}
}

// Page returns the predicate of an HTML page route. location is a route
// template string (":name" and "{name}" segments, or "re:" followed by a
// regular expression) or a *regexp.Regexp. A nil or empty location never
// matches. Matching is case-sensitive.
func Page(location any) (Predicate, error) {
	var match func(*http.Request) bool

	switch loc := location.(type) {
	case nil:
		return never, nil
	case *regexp.Regexp:
		if loc == nil {
			return never, nil
		}
		match = func(r *http.Request) bool { return loc.MatchString(r.URL.Path) }
	case string:
		switch {
		case loc == "":
			return never, nil
		case strings.HasPrefix(loc, PatternPrefix):
			re, err := regexp.Compile(strings.TrimPrefix(loc, PatternPrefix))
			if err != nil {
				return nil, fmt.Errorf("page location %q: %w", loc, err)
			}
			return Page(re)
		}
		route, err := compileRoute(loc)
		if err != nil {
			return nil, err
		}
		match = route
	default:
		return nil, fmt.Errorf("page location: unsupported type %T", location)
	}

	return func(r *http.Request) bool {
		if !DebugMarker(r.Header.Get("Referer")) {
			return false
		}
		return match(r)
	}, nil
}

// Upload returns the predicate of multipart upload requests. The upload path
// is read from the upload header, or from the request URI when the header is
// absent, and must lie under the data prefix and end in "/upload".
func Upload(opts ...Option) Predicate {
	o := buildOptions(opts)
	uploadPath := regexp.MustCompile(`^` + regexp.QuoteMeta(o.prefix) + `/.+/upload(?:$|\?)`)
	return func(r *http.Request) bool {
		if !strings.Contains(strings.ToLower(r.Method), "post") {
			return false
		}
		if !DebugMarker(r.Header.Get("Referer")) {
			return false
		}
		p := r.Header.Get(o.uploadHeader)
		if p == "" {
			p = r.URL.RequestURI()
		}
		return uploadPath.MatchString(p)
	}
}

func never(*http.Request) bool { return false }

var colonParam = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// RouteTemplate converts ":name" segments to the "{name}" form used by
// gorilla/mux.
func RouteTemplate(location string) string {
	return colonParam.ReplaceAllString(location, "{$1}")
}

func compileRoute(location string) (func(*http.Request) bool, error) {
	route := mux.NewRouter().NewRoute().Path(RouteTemplate(location))
	if err := route.GetError(); err != nil {
		return nil, fmt.Errorf("page location %q: %w", location, err)
	}
	return func(r *http.Request) bool {
		var m mux.RouteMatch
		if route.Match(r, &m) {
			return true
		}
		// A single trailing slash is tolerated.
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			clone := r.Clone(r.Context())
			clone.URL.Path = strings.TrimSuffix(p, "/")
			clone.URL.RawPath = ""
			return route.Match(clone, &m)
		}
		return false
	}, nil
}
