package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrHandlerFault reports that a handler failed, panicked or returned a
	// result that could not be written.
	ErrHandlerFault = errors.New("mock handler fault")

	// ErrUploadDecode reports a multipart body that could not be decoded.
	ErrUploadDecode = errors.New("upload decode failed")
)

// FaultError describes a handler fault.
type FaultError struct {
	Identity string
	Key      string
	Err      error
}

func (e *FaultError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("module %s: %v", e.Identity, e.Err)
	}
	return fmt.Sprintf("module %s handler %s: %v", e.Identity, e.Key, e.Err)
}

// Unwrap exposes both ErrHandlerFault and the underlying cause.
func (e *FaultError) Unwrap() []error {
	return []error{ErrHandlerFault, e.Err}
}
