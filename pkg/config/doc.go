// Package config loads mockgate's configuration.
//
// Values are layered with the following precedence, highest first:
//
//  1. command-line flags (applied by the CLI)
//  2. MOCKGATE_* environment variables
//  3. the configuration file (mockgate.yaml in the working directory, or the
//     file named by --config)
//  4. defaults
//
// Sources records which layer supplied each key.
package config
