// Package metrics exposes mockgate's Prometheus metrics.
//
// Metrics are registered on a private registry so that several gateways can
// live in one process (tests do this). The registry also carries the Go
// runtime and process collectors.
//
//   - mockgate_dispatch_total: dispatches by variant and outcome
//   - mockgate_dispatch_duration_seconds: time to schedule resumption, by variant
//   - mockgate_suspended_contexts: contexts suspended and not yet resumed
//   - mockgate_module_loads_total: module resolutions by result (loaded, cached, failed)
//   - mockgate_fallback_total: non-intercepted requests by fallback (proxy, not_found)
//
// Usage:
//
//	m := metrics.New()
//	d := dispatch.New(registry, dispatch.WithObserver(m))
//	http.Handle("/__mockgate/metrics", m.Handler())
package metrics
