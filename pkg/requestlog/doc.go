// Package requestlog keeps a bounded history of the requests the gateway
// dispatched to mock modules, for inspection while developing a front end.
//
// It is distinct from operational logging (which uses log/slog): entries
// carry the request and the mock response as the browser saw them.
//
//	store := requestlog.NewMemoryStore(200)
//	store.Log(&requestlog.Entry{Variant: "data", Method: "POST", Path: "/data/user/list"})
//	recent := store.List(&requestlog.Filter{Limit: 10})
package requestlog
