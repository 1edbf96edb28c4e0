// Package gateway is the HTTP front of mockgate.
//
// A Gateway decides for every request whether a mock module answers it. It
// serves its own health and metrics endpoints, then tries the upload
// predicate, each page route and the data predicate in that order. Captured
// requests are buffered into a request context and run through the
// dispatcher; everything else goes to the fallback, a reverse proxy to the
// configured backend or a JSON 404.
//
// Server assembles a Gateway from configuration and runs it with optional
// CORS and a module file watcher.
package gateway
