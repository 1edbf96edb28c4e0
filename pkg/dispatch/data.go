package dispatch

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/getmockd/mockgate/pkg/module"
	"github.com/getmockd/mockgate/pkg/reqctx"
)

// Data dispatches a JSON data request.
func (d *Dispatcher) Data(ctx *reqctx.Context) {
	d.run(ctx, strategy{
		variant: VariantData,
		invoke:  invokeData,
		shape:   shapeData,
	})
}

func invokeData(ctx *reqctx.Context, m *module.Module) (module.Result, error) {
	req := ctx.Request
	query := parseQuery(req.Search)
	path, key := ResolveKey(req.Pathname, query, VariantData)

	body, err := parseBody(req)
	if err != nil {
		return module.Result{}, &FaultError{Identity: m.Identity, Key: key, Err: err}
	}

	return invoke(m, key, &module.Call{
		Path:    path,
		Body:    body,
		Query:   query,
		Context: ctx,
	})
}

// parseBody decodes JSON bodies and falls back to URL-encoded forms. An empty
// body decodes to nil.
func parseBody(req *reqctx.Request) (any, error) {
	if strings.HasPrefix(req.ContentType(), "application/json") {
		if len(req.Body) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(req.Body, &v); err != nil {
			return nil, fmt.Errorf("parse json body: %w", err)
		}
		return v, nil
	}
	form, err := url.ParseQuery(string(req.Body))
	if err != nil {
		return nil, fmt.Errorf("parse form body: %w", err)
	}
	return module.Flatten(form), nil
}

func shapeData(ctx *reqctx.Context, res module.Result) error {
	preset := ctx.ContentType() != ""
	applyMeta(ctx, res)

	if res.Kind == module.KindRaw {
		ct := res.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		ctx.SetContentType(ct)
		ctx.Content = res.Body
		return nil
	}

	// A handler that set its own content type wrote the content itself.
	if preset {
		return nil
	}

	data := res.Data
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if ctx.ContentType() == "" {
		ctx.SetContentType(JSONContentType)
	}
	ctx.Content = b
	return nil
}
