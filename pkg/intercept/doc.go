// Package intercept decides which requests are captured by mock modules.
//
// A Predicate inspects an incoming request. Data gates the JSON data
// namespace with whitelist and blacklist overrides, Page matches configured
// HTML routes and Upload matches multipart upload requests. All of them
// require the debug marker (ed or enable_debug) in the Referer query.
package intercept
