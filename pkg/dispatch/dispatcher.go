package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/getmockd/mockgate/pkg/logging"
	"github.com/getmockd/mockgate/pkg/module"
	"github.com/getmockd/mockgate/pkg/reqctx"
)

// Response content types.
const (
	JSONContentType = "application/json;charset=UTF-8"
	HTMLContentType = "text/html;charset=UTF-8"
)

// DefaultUploadDir is where uploaded files are stored.
const DefaultUploadDir = "mockup/.tmp"

// Resolver finds the module for a request pathname. Misses wrap
// module.ErrNotFound.
type Resolver interface {
	Resolve(pathname string) (*module.Module, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver sets the observer notified of dispatch events.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithUploadDir sets the directory uploads are written to. urlPath is the
// path under which the gateway serves that directory; empty derives it from
// dir.
func WithUploadDir(dir, urlPath string) Option {
	return func(d *Dispatcher) {
		if dir != "" {
			d.uploadDir = dir
		}
		d.uploadURL = urlPath
	}
}

// Dispatcher runs intercepted requests through mock modules.
type Dispatcher struct {
	resolver  Resolver
	logger    *slog.Logger
	observer  Observer
	uploadDir string
	uploadURL string
}

// New returns a dispatcher resolving modules with resolver.
func New(resolver Resolver, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver:  resolver,
		logger:    logging.Nop(),
		observer:  NoopObserver{},
		uploadDir: DefaultUploadDir,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.uploadURL == "" {
		d.uploadURL = UploadURLPath(d.uploadDir)
	}
	return d
}

// UploadDir returns the directory uploads are written to.
func (d *Dispatcher) UploadDir() string { return d.uploadDir }

// UploadURL returns the URL path prefix of uploaded files, without slashes
// at either end.
func (d *Dispatcher) UploadURL() string { return d.uploadURL }

// UploadURLPath derives the URL path of an upload directory: relative
// directories map to themselves, absolute ones to their base name.
func UploadURLPath(dir string) string {
	p := strings.ReplaceAll(dir, "\\", "/")
	if strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		p = p[strings.LastIndex(p, "/")+1:]
	}
	return strings.Trim(strings.TrimPrefix(p, "./"), "/")
}

// strategy is what distinguishes the dispatch variants: how the handler is
// invoked from the request and how its result is written to the context.
type strategy struct {
	variant Variant
	invoke  func(ctx *reqctx.Context, m *module.Module) (module.Result, error)
	shape   func(ctx *reqctx.Context, res module.Result) error
}

// run is the dispatch routine shared by every variant. It suspends ctx
// before anything else and resumes it exactly once on every path.
func (d *Dispatcher) run(ctx *reqctx.Context, s strategy) {
	ctx.Stop()
	d.observer.OnSuspend(s.variant)

	start := time.Now()
	outcome := OutcomeOK
	var delay time.Duration
	identity := ""

	defer func() {
		if p := recover(); p != nil {
			d.logger.Debug("mock handler panic", "stack", string(debug.Stack()))
			outcome = d.fail(ctx, s.variant, &FaultError{
				Identity: identity,
				Err:      fmt.Errorf("panic: %v", p),
			})
			delay = 0
		}
		d.observer.OnDispatch(s.variant, outcome, time.Since(start))
		d.resume(ctx, s.variant, delay)
	}()

	req := ctx.Request
	m, err := d.resolver.Resolve(req.Pathname)
	if err != nil {
		ctx.Status = http.StatusNotFound
		ctx.Missed = true
		outcome = OutcomeNotFound
		d.logger.Info("mock data not found", "variant", s.variant, "path", req.Pathname)
		return
	}
	identity = m.Identity

	res, err := s.invoke(ctx, m)
	if err == nil {
		err = s.shape(ctx, res)
	}
	if err != nil {
		var fe *FaultError
		if !errors.As(err, &fe) && !errors.Is(err, ErrUploadDecode) {
			err = &FaultError{Identity: m.Identity, Err: err}
		}
		outcome = d.fail(ctx, s.variant, err)
		return
	}

	delay = m.Timeout
	d.logger.Info("mock data found",
		"variant", s.variant,
		"path", req.Pathname,
		"identity", m.Identity,
		"status", ctx.Status,
		"delay", delay,
	)
}

// fail turns err into a 500 response and returns the dispatch outcome.
func (d *Dispatcher) fail(ctx *reqctx.Context, variant Variant, err error) Outcome {
	ctx.Status = http.StatusInternalServerError
	ctx.Content = nil
	ctx.Header = make(http.Header)
	d.logger.Error("mock dispatch failed", "variant", variant, "path", ctx.Request.Pathname, "error", err)
	if errors.Is(err, ErrUploadDecode) {
		return OutcomeUploadError
	}
	return OutcomeFault
}

func (d *Dispatcher) resume(ctx *reqctx.Context, variant Variant, delay time.Duration) {
	if delay <= 0 {
		if ctx.Start() {
			d.observer.OnResume(variant)
		}
		return
	}
	time.AfterFunc(delay, func() {
		if ctx.Start() {
			d.observer.OnResume(variant)
		}
	})
}

// invoke calls the handler at key and wraps its failure as a FaultError.
func invoke(m *module.Module, key string, call *module.Call) (module.Result, error) {
	fn, err := m.Handler(key)
	if err != nil {
		return module.Result{}, &FaultError{Identity: m.Identity, Key: key, Err: err}
	}
	res, err := fn(call)
	if err != nil {
		return module.Result{}, &FaultError{Identity: m.Identity, Key: key, Err: err}
	}
	return res, nil
}

// applyMeta copies the status and headers carried by a result.
func applyMeta(ctx *reqctx.Context, res module.Result) {
	if res.Status != 0 {
		ctx.Status = res.Status
	}
	for k, vs := range res.Header {
		ctx.Header.Del(k)
		for _, v := range vs {
			ctx.Header.Add(k, v)
		}
	}
}

// parseQuery parses the search part of a request leniently: malformed pairs
// are dropped.
func parseQuery(search string) url.Values {
	q, _ := url.ParseQuery(strings.TrimPrefix(search, "?"))
	if q == nil {
		q = url.Values{}
	}
	return q
}

// htmlBody renders a page or upload payload. Strings and bytes are written
// verbatim.
func htmlBody(res module.Result) ([]byte, bool) {
	if res.Kind == module.KindRaw {
		return res.Body, true
	}
	switch v := res.Data.(type) {
	case nil:
		return nil, true
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	}
	return nil, false
}
