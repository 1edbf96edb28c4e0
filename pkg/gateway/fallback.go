package gateway

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	apihttp "github.com/getmockd/mockgate/pkg/httputil"
	"github.com/getmockd/mockgate/pkg/logging"
	"github.com/getmockd/mockgate/pkg/metrics"
)

// NotFoundHandler answers requests that no module captured and no backend
// serves.
func NotFoundHandler(m *metrics.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.ObserveFallback(metrics.FallbackNotFound)
		apihttp.WriteNotFound(w, "not_found", "no mock module or backend for "+r.URL.Path)
	})
}

// ProxyHandler forwards requests that are not intercepted to backend.
func ProxyHandler(backend *url.URL, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(backend)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("backend request failed", "path", r.URL.Path, "backend", backend.String(), "error", err)
			apihttp.WriteBadGateway(w, "backend_unavailable", err.Error())
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.ObserveFallback(metrics.FallbackProxy)
		rp.ServeHTTP(w, r)
	})
}
