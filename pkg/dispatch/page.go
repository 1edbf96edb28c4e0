package dispatch

import (
	"fmt"

	"github.com/getmockd/mockgate/pkg/module"
	"github.com/getmockd/mockgate/pkg/reqctx"
)

// Page dispatches an HTML page request. The handler is always the default
// key and receives the pathname and the parsed query.
func (d *Dispatcher) Page(ctx *reqctx.Context) {
	d.run(ctx, strategy{
		variant: VariantPage,
		invoke:  invokePage,
		shape:   shapePage,
	})
}

func invokePage(ctx *reqctx.Context, m *module.Module) (module.Result, error) {
	req := ctx.Request
	query := parseQuery(req.Search)
	path, key := ResolveKey(req.Pathname, query, VariantPage)

	return invoke(m, key, &module.Call{
		Path:    path,
		Body:    module.Flatten(query),
		Query:   query,
		Context: ctx,
	})
}

func shapePage(ctx *reqctx.Context, res module.Result) error {
	body, ok := htmlBody(res)
	if !ok {
		return fmt.Errorf("page handler returned %T, want a string", res.Data)
	}
	applyMeta(ctx, res)
	ctx.SetContentType(HTMLContentType)
	ctx.Content = body
	return nil
}
