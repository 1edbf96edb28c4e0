// Package util provides small helpers shared across mockgate packages.
package util
