package gapi

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by operations that need the provider auth instance
	// before the client has been initialised.
	ErrNotInitialized = errors.New("gapi not initialized")

	// ErrProviderInit is matched by every *ProviderInitError.
	ErrProviderInit = errors.New("gapi client initialization failed")

	// ErrProviderOperation is matched by every *ProviderError.
	ErrProviderOperation = errors.New("gapi provider operation failed")

	ErrMissingOfflineCode = errors.New("offline access code missing from result")
	ErrMissingGlobal      = errors.New("gapi global not available")
)

// ProviderError is returned when a provider call (sign in, sign out, disconnect,
// token reload, offline grant) fails.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("gapi %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProviderOperation, e.Err}
}

// ProviderInitError is returned to every caller waiting on a failed client initialisation.
type ProviderInitError struct {
	Step string
	Err  error
}

func (e *ProviderInitError) Error() string {
	return fmt.Sprintf("gapi client initialization failed at %s: %v", e.Step, e.Err)
}

func (e *ProviderInitError) Unwrap() []error {
	return []error{ErrProviderInit, e.Err}
}
