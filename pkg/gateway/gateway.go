package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/mockgate/pkg/dispatch"
	"github.com/getmockd/mockgate/pkg/httputil"
	"github.com/getmockd/mockgate/pkg/intercept"
	"github.com/getmockd/mockgate/pkg/logging"
	"github.com/getmockd/mockgate/pkg/metrics"
	"github.com/getmockd/mockgate/pkg/reqctx"
	"github.com/getmockd/mockgate/pkg/requestlog"
)

// Reserved paths and headers.
const (
	HealthPath      = "/__mockgate/health"
	MetricsPath     = "/__mockgate/metrics"
	RequestsPath    = "/__mockgate/requests"
	RequestIDHeader = "X-Mockgate-Request-Id"
)

// ModuleCounter reports how many modules are cached.
type ModuleCounter interface {
	Len() int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics serves m on MetricsPath and counts fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithRequestLog records dispatched requests in s and serves them on
// RequestsPath.
func WithRequestLog(s requestlog.Store) Option {
	return func(g *Gateway) { g.requests = s }
}

// WithDataPredicate sets the predicate of data requests.
func WithDataPredicate(p intercept.Predicate) Option {
	return func(g *Gateway) { g.data = p }
}

// WithUploadPredicate sets the predicate of upload requests.
func WithUploadPredicate(p intercept.Predicate) Option {
	return func(g *Gateway) { g.upload = p }
}

// WithPagePredicates sets the page route predicates, tried in order.
func WithPagePredicates(ps ...intercept.Predicate) Option {
	return func(g *Gateway) { g.pages = append(g.pages, ps...) }
}

// WithFallback sets the handler of requests that are not intercepted.
func WithFallback(h http.Handler) Option {
	return func(g *Gateway) {
		if h != nil {
			g.fallback = h
		}
	}
}

// WithMissFallback sets the handler of intercepted requests that no module
// resolves. Without it such requests get an empty 404.
func WithMissFallback(h http.Handler) Option {
	return func(g *Gateway) { g.missFallback = h }
}

// WithMaxBodyBytes bounds buffered request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(g *Gateway) { g.maxBody = n }
}

// WithModuleCounter reports cached modules on the health endpoint.
func WithModuleCounter(c ModuleCounter) Option {
	return func(g *Gateway) { g.modules = c }
}

// WithUploadFiles serves the upload directory under its URL path to requests
// that are not intercepted.
func WithUploadFiles(dir, urlPath string) Option {
	return func(g *Gateway) {
		urlPath = strings.Trim(urlPath, "/")
		if dir == "" || urlPath == "" {
			return
		}
		prefix := "/" + urlPath + "/"
		g.uploadPrefix = prefix
		g.uploadFiles = http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	}
}

// Gateway routes requests to the dispatcher or the fallback.
type Gateway struct {
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	modules    ModuleCounter
	requests   requestlog.Store

	upload intercept.Predicate
	pages  []intercept.Predicate
	data   intercept.Predicate

	fallback     http.Handler
	missFallback http.Handler
	uploadPrefix string
	uploadFiles  http.Handler
	maxBody      int64
	started      time.Time
}

// New returns a gateway dispatching captured requests with d. Without
// options it captures data requests with the default predicate and answers
// everything else with 404.
func New(d *dispatch.Dispatcher, opts ...Option) *Gateway {
	g := &Gateway{
		dispatcher: d,
		logger:     logging.Nop(),
		data:       intercept.Data(nil),
		maxBody:    reqctx.DefaultMaxBodyBytes,
		started:    time.Now(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.fallback == nil {
		g.fallback = NotFoundHandler(g.metrics)
	}
	return g
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)

	switch r.URL.Path {
	case HealthPath:
		g.health(w)
		return
	case MetricsPath:
		if g.metrics != nil {
			g.metrics.Handler().ServeHTTP(w, r)
			return
		}
	}
	if g.requests != nil && (r.URL.Path == RequestsPath || strings.HasPrefix(r.URL.Path, RequestsPath+"/")) {
		g.serveRequests(w, r)
		return
	}

	if variant, ok := g.route(r); ok {
		g.dispatch(w, r, variant, id)
		return
	}

	if g.uploadFiles != nil && strings.HasPrefix(r.URL.Path, g.uploadPrefix) &&
		(r.Method == http.MethodGet || r.Method == http.MethodHead) {
		g.uploadFiles.ServeHTTP(w, r)
		return
	}
	g.fallback.ServeHTTP(w, r)
}

// route picks the dispatch variant of a request: upload first, then page
// routes, then data.
func (g *Gateway) route(r *http.Request) (dispatch.Variant, bool) {
	if g.upload != nil && g.upload(r) {
		return dispatch.VariantUpload, true
	}
	for _, p := range g.pages {
		if p(r) {
			return dispatch.VariantPage, true
		}
	}
	if g.data != nil && g.data(r) {
		return dispatch.VariantData, true
	}
	return "", false
}

func (g *Gateway) dispatch(w http.ResponseWriter, r *http.Request, variant dispatch.Variant, id string) {
	req, err := reqctx.FromHTTP(r, g.maxBody)
	if err != nil {
		if errors.Is(err, reqctx.ErrBodyTooLarge) {
			httputil.WriteTooLarge(w, "body_too_large", err.Error())
			return
		}
		httputil.WriteBadRequest(w, "bad_request", err.Error())
		return
	}

	start := time.Now()
	ctx := reqctx.New(req)
	g.logger.Debug("request intercepted", "id", id, "variant", variant, "method", r.Method, "path", r.URL.Path)

	switch variant {
	case dispatch.VariantUpload:
		g.dispatcher.Upload(ctx)
	case dispatch.VariantPage:
		g.dispatcher.Page(ctx)
	default:
		g.dispatcher.Data(ctx)
	}

	select {
	case <-ctx.Done():
	case <-r.Context().Done():
		// The dispatch still runs to completion and resumes on its own.
		g.logger.Debug("client went away before the mock response", "id", id, "path", r.URL.Path)
		g.record(id, variant, r, req, nil, start)
		return
	}

	// The body was buffered and replaced with a replay reader, so the
	// fallback can still forward it.
	if ctx.Missed && g.missFallback != nil {
		g.logger.Debug("no mock module, falling back", "id", id, "path", r.URL.Path)
		g.missFallback.ServeHTTP(w, r)
		return
	}
	g.record(id, variant, r, req, ctx, start)

	h := w.Header()
	for k, vs := range ctx.Header {
		h[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(ctx.Status)
	if len(ctx.Content) > 0 && r.Method != http.MethodHead {
		_, _ = w.Write(ctx.Content)
	}
}

func (g *Gateway) health(w http.ResponseWriter) {
	body := map[string]any{
		"status": "healthy",
		"uptime": time.Since(g.started).Round(time.Second).String(),
	}
	if g.modules != nil {
		body["modules"] = g.modules.Len()
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}
