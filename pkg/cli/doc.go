// Package cli implements the mockgate command line: serve, validate,
// resolve, config and version.
package cli
