package module

import "errors"

var (
	// ErrNotFound reports that no module could be resolved for a path. It also
	// wraps load failures: a module that does not parse is treated as absent.
	ErrNotFound = errors.New("mock module not found")

	// ErrHandlerNotFound reports that a module has no handler for a key.
	ErrHandlerNotFound = errors.New("mock handler not found")

	// ErrInvalidDefinition reports a definition that failed to parse, validate
	// or compile.
	ErrInvalidDefinition = errors.New("invalid mock module definition")
)
