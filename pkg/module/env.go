package module

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/google/uuid"
	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/mockgate/pkg/envelope"
)

// exprEnv is the variable environment of handler expressions.
type exprEnv struct {
	Path     string         `expr:"path"`
	Pathname string         `expr:"pathname"`
	Method   string         `expr:"method"`
	Body     any            `expr:"body"`
	Query    map[string]any `expr:"query"`
	Headers  map[string]any `expr:"headers"`
}

func newEnv(call *Call) exprEnv {
	env := exprEnv{
		Path:    call.Path,
		Body:    call.Body,
		Query:   Flatten(call.Query),
		Headers: map[string]any{},
	}
	if call.Context != nil && call.Context.Request != nil {
		req := call.Context.Request
		env.Pathname = req.Pathname
		env.Method = req.Method
		for k, vs := range req.Header {
			if len(vs) > 0 {
				env.Headers[strings.ToLower(k)] = vs[0]
			}
		}
	}
	return env
}

func exprOptions() []expr.Option {
	return []expr.Option{
		expr.Env(exprEnv{}),
		expr.Function("ok", func(params ...any) (any, error) {
			return envelope.OK(arg(params, 0)), nil
		}),
		expr.Function("session", func(params ...any) (any, error) {
			return envelope.Session(arg(params, 0)), nil
		}),
		expr.Function("list", func(params ...any) (any, error) {
			var page envelope.Map
			if p := arg(params, 1); p != nil {
				m, ok := p.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("list: page must be a map, got %T", p)
				}
				page = m
			}
			return envelope.List(arg(params, 0), page), nil
		}),
		expr.Function("fail", func(params ...any) (any, error) {
			return envelope.Fail(arg(params, 0)), nil
		}),
		expr.Function("fieldFail", func(params ...any) (any, error) {
			return envelope.FieldFail(arg(params, 0)), nil
		}),
		expr.Function("globalFail", func(params ...any) (any, error) {
			return envelope.GlobalFail(arg(params, 0)), nil
		}),
		expr.Function("iframeCallback", func(params ...any) (any, error) {
			return envelope.IframeCallback(fmt.Sprint(or(arg(params, 0), ""))), nil
		}),
		expr.Function("raw", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("raw: want (contentType, body), got %d arguments", len(params))
			}
			body, err := toBytes(params[1])
			if err != nil {
				return nil, fmt.Errorf("raw: %w", err)
			}
			return Raw(fmt.Sprint(params[0]), body), nil
		}),
		expr.Function("jsonpath", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("jsonpath: want (value, path), got %d arguments", len(params))
			}
			x, err := jp.ParseString(fmt.Sprint(params[1]))
			if err != nil {
				return nil, fmt.Errorf("jsonpath: %w", err)
			}
			switch found := x.Get(params[0]); len(found) {
			case 0:
				return nil, nil
			case 1:
				return found[0], nil
			default:
				return found, nil
			}
		}),
		expr.Function("uuid", func(...any) (any, error) {
			return uuid.NewString(), nil
		}),
	}
}

func arg(params []any, i int) any {
	if i < len(params) {
		return params[i]
	}
	return nil
}

func or(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}
