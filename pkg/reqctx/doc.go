// Package reqctx holds the per-request state shared between the gateway and
// the dispatcher.
//
// A Context starts Flowing. The dispatcher suspends it with Stop before any
// work that may complete later, and every exit path resumes it with Start.
// Resumption goes through a one-shot token, so a second Start is a no-op and
// the gateway, which waits on Done, is released exactly once.
package reqctx
