package module

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"
)

// Definition is the on-disk form of a mock module.
type Definition struct {
	// Description is free text shown by mockgate resolve.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Timeout delays resumption, in milliseconds.
	Timeout int `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Handlers maps handler keys to their definitions.
	Handlers map[string]HandlerDefinition `json:"handlers" yaml:"handlers"`
}

// HandlerDefinition describes one handler. At most one of Body, BodyFile and
// Expr is set.
type HandlerDefinition struct {
	Status  int               `json:"status,omitempty" yaml:"status,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// ContentType makes the handler produce an already shaped body instead of
	// a payload for the default envelope.
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`

	Body     any    `json:"body,omitempty" yaml:"body,omitempty"`
	BodyFile string `json:"bodyFile,omitempty" yaml:"bodyFile,omitempty"`
	Expr     string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// Format is a definition file syntax.
type Format string

// Definition formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor returns the definition format implied by a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseDefinition decodes and validates a definition.
func ParseDefinition(data []byte, format Format) (*Definition, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", ErrInvalidDefinition, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: json: %v", ErrInvalidDefinition, err)
		}
	}

	// Round-trip through JSON so YAML values validate with JSON types.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := validateDefinition(instance); err != nil {
		return nil, err
	}

	var def Definition
	if err := json.Unmarshal(normalized, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return &def, nil
}

// Compile builds a module from a definition. Relative body files are read
// from dir.
func Compile(identity, dir string, def *Definition) (*Module, error) {
	m := New(identity, nil)
	m.Timeout = time.Duration(def.Timeout) * time.Millisecond

	for key, hd := range def.Handlers {
		fn, dep, err := compileHandler(dir, hd)
		if err != nil {
			return nil, fmt.Errorf("%w: handler %q: %v", ErrInvalidDefinition, key, err)
		}
		m.Handle(key, fn)
		if dep.Path != "" {
			m.Dependencies = append(m.Dependencies, dep)
		}
	}
	sort.Slice(m.Dependencies, func(i, j int) bool { return m.Dependencies[i].Path < m.Dependencies[j].Path })
	return m, nil
}

// compileHandler returns the handler and, for body files, the fingerprint of
// the file it read.
func compileHandler(dir string, hd HandlerDefinition) (HandlerFunc, Fingerprint, error) {
	var (
		produce HandlerFunc
		dep     Fingerprint
	)

	switch {
	case hd.Expr != "":
		program, err := expr.Compile(hd.Expr, exprOptions()...)
		if err != nil {
			return nil, dep, err
		}
		produce = exprHandler(program, hd.ContentType)

	case hd.BodyFile != "":
		if !filepath.IsLocal(hd.BodyFile) {
			return nil, dep, fmt.Errorf("bodyFile %q must be a relative path inside the mock root", hd.BodyFile)
		}
		data, fp, err := readFingerprinted(filepath.Join(dir, hd.BodyFile))
		if err != nil {
			return nil, dep, err
		}
		dep = fp
		ct := hd.ContentType
		if ct == "" {
			ct = mime.TypeByExtension(filepath.Ext(hd.BodyFile))
		}
		if ct == "" {
			ct = "application/octet-stream"
		}
		produce = func(*Call) (Result, error) { return Raw(ct, data), nil }

	case hd.ContentType != "":
		body, err := toBytes(hd.Body)
		if err != nil {
			return nil, dep, err
		}
		produce = func(*Call) (Result, error) { return Raw(hd.ContentType, body), nil }

	default:
		payload := hd.Body
		produce = func(*Call) (Result, error) { return Data(payload), nil }
	}

	if hd.Status == 0 && len(hd.Headers) == 0 {
		return produce, dep, nil
	}
	return func(call *Call) (Result, error) {
		res, err := produce(call)
		if err != nil {
			return res, err
		}
		if res.Status == 0 {
			res.Status = hd.Status
		}
		if len(hd.Headers) > 0 {
			if res.Header == nil {
				res.Header = make(http.Header, len(hd.Headers))
			}
			for k, v := range hd.Headers {
				res.Header.Set(k, v)
			}
		}
		return res, nil
	}, dep, nil
}

func exprHandler(program *vm.Program, contentType string) HandlerFunc {
	return func(call *Call) (Result, error) {
		out, err := expr.Run(program, newEnv(call))
		if err != nil {
			return Result{}, err
		}
		if res, ok := out.(Result); ok {
			return res, nil
		}
		if contentType != "" {
			body, err := toBytes(out)
			if err != nil {
				return Result{}, err
			}
			return Raw(contentType, body), nil
		}
		return Data(out), nil
	}
}

// toBytes renders a payload as a raw body: strings verbatim, anything else as JSON.
func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	default:
		return json.Marshal(x)
	}
}
