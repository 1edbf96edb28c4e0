package module

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"time"

	"github.com/getmockd/mockgate/pkg/reqctx"
)

// DefaultKey is the handler key used when a request does not select one.
const DefaultKey = "response"

// Call is the input handed to a handler.
type Call struct {
	// Path is the effective path: the request pathname, or the override taken
	// from the "path" query parameter.
	Path string

	// Body is the parsed request body (JSON value or form map), or for pages
	// the parsed query.
	Body any

	// Query is the parsed query string.
	Query url.Values

	// Context is the suspended request context.
	Context *reqctx.Context
}

// HandlerFunc produces the response for one call.
type HandlerFunc func(call *Call) (Result, error)

// Kind discriminates handler results.
type Kind int

const (
	// KindData is a raw payload; the dispatcher applies its default shaping.
	KindData Kind = iota
	// KindRaw is a fully shaped body with its own content type.
	KindRaw
)

// Result is what a handler returns.
type Result struct {
	Kind Kind

	// Data is the payload for KindData results.
	Data any

	// ContentType and Body are set for KindRaw results.
	ContentType string
	Body        []byte

	// Status overrides the response status when non-zero.
	Status int

	// Header holds extra response headers.
	Header http.Header
}

// Data returns a KindData result.
func Data(v any) Result {
	return Result{Kind: KindData, Data: v}
}

// Raw returns a KindRaw result.
func Raw(contentType string, body []byte) Result {
	return Result{Kind: KindRaw, ContentType: contentType, Body: body}
}

// Module is a loaded mock module.
type Module struct {
	// Identity is the normalized request path the module was resolved from.
	Identity string

	// Source is the definition file, empty for modules built in Go.
	Source string

	// Timeout delays resumption of every request served by the module.
	Timeout time.Duration

	// Fingerprint identifies the definition contents the module was built from.
	Fingerprint Fingerprint

	// Dependencies fingerprints the other files the definition read, such as
	// body files.
	Dependencies []Fingerprint

	handlers map[string]HandlerFunc
}

// New returns a module with the given handlers.
func New(identity string, handlers map[string]HandlerFunc) *Module {
	m := &Module{Identity: identity, handlers: make(map[string]HandlerFunc, len(handlers))}
	for k, fn := range handlers {
		m.handlers[k] = fn
	}
	return m
}

// Handle registers fn under key and returns m for chaining.
func (m *Module) Handle(key string, fn HandlerFunc) *Module {
	if m.handlers == nil {
		m.handlers = make(map[string]HandlerFunc)
	}
	m.handlers[key] = fn
	return m
}

// WithTimeout sets the module delay and returns m for chaining.
func (m *Module) WithTimeout(d time.Duration) *Module {
	m.Timeout = d
	return m
}

// Handler returns the handler registered under key.
func (m *Module) Handler(key string) (HandlerFunc, error) {
	fn, ok := m.handlers[key]
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %q in module %s", ErrHandlerNotFound, key, m.Identity)
	}
	return fn, nil
}

// DependsOn reports whether the module was built from file, either as its
// definition or as one of its dependencies.
func (m *Module) DependsOn(file string) bool {
	file = filepath.Clean(file)
	if m.Source != "" && filepath.Clean(m.Source) == file {
		return true
	}
	for _, dep := range m.Dependencies {
		if filepath.Clean(dep.Path) == file {
			return true
		}
	}
	return false
}

// Keys returns the sorted handler keys.
func (m *Module) Keys() []string {
	keys := make([]string, 0, len(m.handlers))
	for k := range m.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten converts query or form values to a plain map: a key with one value
// maps to that string, a repeated key maps to a []any of its values.
func Flatten(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
			out[k] = ""
		case 1:
			out[k] = vs[0]
		default:
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			out[k] = list
		}
	}
	return out
}
