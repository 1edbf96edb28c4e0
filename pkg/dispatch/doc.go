// Package dispatch runs intercepted requests through mock modules.
//
// A Dispatcher suspends the request context, resolves the module for the
// request path, invokes the selected handler and writes the shaped response
// back into the context before resuming it. The data, page and upload
// variants share one dispatch routine and differ only in how they read the
// request and shape the handler result.
//
// Every path through a dispatch resumes the context exactly once: a miss
// resumes with 404, a handler fault (error, panic or unserializable result)
// with 500, and a success after the module's timeout, if any.
package dispatch
