package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockgate/pkg/dispatch"
	"github.com/getmockd/mockgate/pkg/module"
	"github.com/getmockd/mockgate/pkg/reqctx"
)

// ResolveOutput is the JSON output of the resolve command.
type ResolveOutput struct {
	Pathname   string   `json:"pathname"`
	Identity   string   `json:"identity"`
	Source     string   `json:"source,omitempty"`
	Path       string   `json:"path"`
	Key        string   `json:"key"`
	HasHandler bool     `json:"hasHandler"`
	Handlers   []string `json:"handlers"`
	TimeoutMS  int64    `json:"timeoutMs"`

	Response *ResolveResponse `json:"response,omitempty"`
}

// ResolveResponse is the response produced by --invoke.
type ResolveResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        string `json:"body"`
}

type resolveFlags struct {
	method      string
	data        string
	contentType string
	invoke      bool
}

func newResolveCmd(g *globalFlags) *cobra.Command {
	f := &resolveFlags{}

	cmd := &cobra.Command{
		Use:   "resolve <pathname>",
		Short: "Show which module and handler answer a data request",
		Long: `Resolve a data request pathname (with an optional query string) to its module
and handler key. With --invoke the request is dispatched in process and the
mock response is printed.`,
		Example: `  mockgate resolve /data/user/list
  mockgate resolve '/data/user/list?path=/User/Detail'
  mockgate resolve /data/user/list --invoke --data '{"page":2}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}

			u, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid pathname %q: %w", args[0], err)
			}

			registry := module.NewRegistry(module.NewFileLoader(cfg.MockRoot), module.WithPrefix(cfg.DataPrefix))
			m, err := registry.Resolve(u.Path)
			if err != nil {
				return err
			}

			path, key := dispatch.ResolveKey(u.Path, u.Query(), dispatch.VariantData)
			_, handlerErr := m.Handler(key)
			out := ResolveOutput{
				Pathname:   u.Path,
				Identity:   m.Identity,
				Source:     m.Source,
				Path:       path,
				Key:        key,
				HasHandler: handlerErr == nil,
				Handlers:   m.Keys(),
				TimeoutMS:  m.Timeout.Milliseconds(),
			}

			if f.invoke {
				out.Response = invokeData(registry, u, f)
			}

			w := cmd.OutOrStdout()
			return printResult(w, g, out, func() { printResolve(w, &out) })
		},
	}

	cmd.Flags().BoolVar(&f.invoke, "invoke", false, "Dispatch the request and print the response")
	cmd.Flags().StringVarP(&f.method, "method", "X", http.MethodPost, "Request method for --invoke")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "Request body for --invoke")
	cmd.Flags().StringVar(&f.contentType, "content-type", "", "Request Content-Type for --invoke")
	return cmd
}

// invokeData runs a data dispatch for u outside the gateway.
func invokeData(resolver dispatch.Resolver, u *url.URL, f *resolveFlags) *ResolveResponse {
	req := &reqctx.Request{
		Pathname: u.Path,
		Method:   strings.ToUpper(f.method),
		Header:   make(http.Header),
		Host:     "localhost",
		Body:     []byte(f.data),
	}
	if u.RawQuery != "" {
		req.Search = "?" + u.RawQuery
	}
	if f.contentType != "" {
		req.Header.Set("Content-Type", f.contentType)
	}

	ctx := reqctx.New(req)
	dispatch.New(resolver).Data(ctx)
	<-ctx.Done()

	return &ResolveResponse{
		Status:      ctx.Status,
		ContentType: ctx.ContentType(),
		Body:        string(ctx.Content),
	}
}

func printResolve(w io.Writer, out *ResolveOutput) {
	fmt.Fprintf(w, "identity:  %s\n", out.Identity)
	fmt.Fprintf(w, "source:    %s\n", out.Source)
	fmt.Fprintf(w, "path:      %s\n", out.Path)
	handler := out.Key
	if !out.HasHandler {
		handler += " (missing)"
	}
	fmt.Fprintf(w, "handler:   %s\n", handler)
	fmt.Fprintf(w, "handlers:  %s\n", strings.Join(out.Handlers, ", "))
	if out.TimeoutMS > 0 {
		fmt.Fprintf(w, "timeout:   %dms\n", out.TimeoutMS)
	}
	if out.Response != nil {
		fmt.Fprintf(w, "\nstatus:    %d\n", out.Response.Status)
		if out.Response.ContentType != "" {
			fmt.Fprintf(w, "type:      %s\n", out.Response.ContentType)
		}
		fmt.Fprintf(w, "\n%s\n", out.Response.Body)
	}
}
