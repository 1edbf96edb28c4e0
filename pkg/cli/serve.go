package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockgate/pkg/config"
	"github.com/getmockd/mockgate/pkg/gateway"
	"github.com/getmockd/mockgate/pkg/logging"
)

// serveFlags holds the serve flags. Only flags the user changed override
// the configuration.
type serveFlags struct {
	port         int
	mockRoot     string
	dataPrefix   string
	uploadDir    string
	uploadURL    string
	uploadHeader string
	backend      string
	maxBodyBytes int64
	whiteList    []string
	blackList    []string
	pages        []string
	policy       string
	watch        bool
	corsOrigins  []string
	noMetrics    bool
	noRequestLog bool
	requestLog   int
	logLevel     string
	logFormat    string
	logFile      string
}

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock gateway (foreground)",
		Long: `Start the mock gateway. Data, page and upload requests from a page opened
with ?ed (or ?enable_debug) are answered from the modules under the mock root.
Everything else goes to --backend, or gets a 404 when no backend is set.`,
		Example: `  # Serve ./mockup on the default port
  mockgate serve

  # Proxy everything that is not mocked to a local API
  mockgate serve --backend http://localhost:8080 --port 3000

  # Mock an HTML page route and always mock /data/session/*
  mockgate serve --page '/shop/:page' --whitelist 'glob:/data/session/**'

  # Reuse modules until their file changes, and evict on edit
  mockgate serve --policy modtime --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			config.Merge(cfg, f.overlay(cmd), config.SourceFlag)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			return runServe(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}

	f.register(cmd)
	return cmd
}

// register binds the serve flags to cmd.
func (f *serveFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVarP(&f.port, "port", "p", config.DefaultPort, "Gateway port")
	fl.StringVarP(&f.mockRoot, "mock-root", "r", config.DefaultMockRoot, "Directory holding mock modules")
	fl.StringVar(&f.dataPrefix, "data-prefix", "", "Data namespace prefix (default /data)")
	fl.StringVar(&f.uploadDir, "upload-dir", "", "Directory receiving uploaded files")
	fl.StringVar(&f.uploadURL, "upload-url", "", "URL path uploaded files are served under")
	fl.StringVar(&f.uploadHeader, "upload-header", "", "Header carrying the upload path")
	fl.StringVarP(&f.backend, "backend", "b", "", "Backend URL for requests that are not mocked")
	fl.Int64Var(&f.maxBodyBytes, "max-body-bytes", 0, "Largest request body buffered for dispatch")
	fl.StringSliceVar(&f.whiteList, "whitelist", nil, "Rules that are always mocked (literal, re:<regexp> or glob:<pattern>)")
	fl.StringSliceVar(&f.blackList, "blacklist", nil, "Rules that are never mocked")
	fl.StringArrayVar(&f.pages, "page", nil, "HTML page route (e.g. /shop/:page or re:^/admin/)")
	fl.StringVar(&f.policy, "policy", "", "Module reload policy (always, modtime)")
	fl.BoolVar(&f.watch, "watch", false, "Evict cached modules when their files change")
	fl.StringSliceVar(&f.corsOrigins, "cors-origins", nil, "Allowed CORS origins")
	fl.BoolVar(&f.noMetrics, "no-metrics", false, "Disable the metrics endpoint")
	fl.BoolVar(&f.noRequestLog, "no-request-log", false, "Do not keep a history of dispatched requests")
	fl.IntVar(&f.requestLog, "request-log-size", 0, "Dispatched requests kept in the history")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fl.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	fl.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")
}

// overlay returns a Config holding the flags the user changed.
func (f *serveFlags) overlay(cmd *cobra.Command) *config.Config {
	changed := cmd.Flags().Changed
	src := &config.Config{}

	if changed("port") {
		src.Port = f.port
	}
	if changed("mock-root") {
		src.MockRoot = f.mockRoot
	}
	src.DataPrefix = f.dataPrefix
	src.UploadDir = f.uploadDir
	src.UploadURL = f.uploadURL
	src.UploadHeader = f.uploadHeader
	src.Backend = f.backend
	src.MaxBodyBytes = f.maxBodyBytes
	src.Intercept.WhiteList = f.whiteList
	src.Intercept.BlackList = f.blackList
	for _, p := range f.pages {
		src.Pages = append(src.Pages, config.PageRoute{Location: p})
	}
	src.Reload.Policy = f.policy
	if changed("watch") {
		src.Reload.Watch = f.watch
		src.MarkSet("reload.watch")
	}
	src.CORS.Origins = f.corsOrigins
	if changed("no-metrics") {
		src.Metrics.Enabled = !f.noMetrics
		src.MarkSet("metrics.enabled")
	}
	if changed("no-request-log") {
		src.RequestLog.Enabled = !f.noRequestLog
		src.MarkSet("requestLog.enabled")
	}
	src.RequestLog.Size = f.requestLog
	src.Log.Level = f.logLevel
	src.Log.Format = f.logFormat
	src.Log.File = f.logFile
	return src
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer, error) {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: w,
		File:   cfg.Log.File,
	})
}

func runServe(ctx context.Context, cfg *config.Config, stderr io.Writer) error {
	logger, closer, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	srv, err := gateway.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
