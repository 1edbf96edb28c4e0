package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/cors"

	"github.com/getmockd/mockgate/pkg/config"
	"github.com/getmockd/mockgate/pkg/dispatch"
	"github.com/getmockd/mockgate/pkg/intercept"
	"github.com/getmockd/mockgate/pkg/logging"
	"github.com/getmockd/mockgate/pkg/metrics"
	"github.com/getmockd/mockgate/pkg/module"
	"github.com/getmockd/mockgate/pkg/requestlog"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Server is a configured gateway with its module registry.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	loader   *module.FileLoader
	registry *module.Registry
	metrics  *metrics.Metrics
	gateway  *Gateway
	handler  http.Handler
}

// NewServer assembles the registry, dispatcher and gateway described by cfg.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	policy, err := module.ParsePolicy(cfg.Reload.Policy)
	if err != nil {
		return nil, err
	}
	loader := module.NewFileLoader(cfg.MockRoot)
	registry := module.NewRegistry(loader,
		module.WithLogger(logging.With(logger, "registry")),
		module.WithPolicy(policy),
		module.WithPrefix(cfg.DataPrefix),
		module.WithLoadHook(m.LoadHook()),
	)

	d := dispatch.New(registry,
		dispatch.WithLogger(logging.With(logger, "dispatch")),
		dispatch.WithObserver(observer(m)),
		dispatch.WithUploadDir(cfg.UploadDir, cfg.UploadURL),
	)

	rules, err := cfg.Intercept.Compile()
	if err != nil {
		return nil, err
	}
	pages := make([]intercept.Predicate, 0, len(cfg.Pages))
	for _, p := range cfg.Pages {
		pred, err := intercept.Page(p.Location)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pred)
	}

	gwLogger := logging.With(logger, "gateway")
	fallback := NotFoundHandler(m)
	if cfg.Backend != "" {
		backend, err := url.Parse(cfg.Backend)
		if err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
		fallback = ProxyHandler(backend, m, gwLogger)
	}
	var miss Option = func(*Gateway) {}
	if cfg.Backend != "" {
		miss = WithMissFallback(fallback)
	}

	opts := []Option{
		WithLogger(gwLogger),
		WithMetrics(m),
		WithModuleCounter(registry),
		WithDataPredicate(intercept.Data(rules, intercept.WithPrefix(cfg.DataPrefix))),
		WithUploadPredicate(intercept.Upload(intercept.WithPrefix(cfg.DataPrefix), intercept.WithUploadHeader(cfg.UploadHeader))),
		WithPagePredicates(pages...),
		WithFallback(fallback),
		miss,
		WithMaxBodyBytes(cfg.MaxBodyBytes),
		WithUploadFiles(d.UploadDir(), d.UploadURL()),
	}
	if cfg.RequestLog.Enabled {
		opts = append(opts, WithRequestLog(requestlog.NewMemoryStore(cfg.RequestLog.Size)))
	}
	gw := New(d, opts...)

	var handler http.Handler = gw
	if len(cfg.CORS.Origins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.CORS.Origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{RequestIDHeader},
			AllowCredentials: true,
		}).Handler(gw)
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		loader:   loader,
		registry: registry,
		metrics:  m,
		gateway:  gw,
		handler:  handler,
	}, nil
}

// observer keeps a nil *metrics.Metrics from becoming a non-nil interface.
func observer(m *metrics.Metrics) dispatch.Observer {
	if m == nil {
		return dispatch.NoopObserver{}
	}
	return m
}

// Handler returns the gateway wrapped with CORS when configured.
func (s *Server) Handler() http.Handler { return s.handler }

// Registry returns the module registry.
func (s *Server) Registry() *module.Registry { return s.registry }

// Loader returns the module file loader.
func (s *Server) Loader() *module.FileLoader { return s.loader }

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(s.cfg.Port))
}

// Run serves on the configured port until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.Reload.Watch {
		w, err := module.NewWatcher(s.registry, s.loader, logging.With(s.logger, "watcher"))
		if err != nil {
			s.logger.Warn("module watcher disabled", "root", s.cfg.MockRoot, "error", err)
		} else {
			defer w.Close()
			go func() {
				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Warn("module watcher stopped", "error", err)
				}
			}()
		}
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info("mockgate listening",
		"addr", ln.Addr().String(),
		"mockRoot", s.cfg.MockRoot,
		"backend", s.cfg.Backend,
		"policy", s.cfg.Reload.Policy,
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("mockgate stopped")
	return nil
}
