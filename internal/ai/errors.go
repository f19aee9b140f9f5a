package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingCredential is returned when no credential was supplied
	ErrMissingCredential = errors.New("missing credential")
	// ErrEmptyInput is returned when a text-only request has a blank message
	ErrEmptyInput = errors.New("empty input")
	// ErrUnsupportedImage is returned for uploads that are not a supported image format
	ErrUnsupportedImage = errors.New("unsupported image format")
	// ErrImageTooLarge is returned for uploads that exceed the configured size limit
	ErrImageTooLarge = errors.New("image too large")
)

// NoAvailableModelError is returned by the resolver when none of the candidate models could be constructed
type NoAvailableModelError struct {
	Capability Capability
	Attempted  []string
}

func (e *NoAvailableModelError) Error() string {
	kind := "models"
	if e.Capability == CapabilityVision {
		kind = "vision models"
	}
	if len(e.Attempted) == 0 {
		return fmt.Sprintf("No available %s found", kind)
	}
	return fmt.Sprintf("No available %s found (tried: %s)", kind, strings.Join(e.Attempted, ", "))
}

// ProviderError wraps a failure raised by the provider while listing models or generating content. Its message is
// the cause's message, unchanged, so that it can be shown to the user verbatim.
type ProviderError struct {
	Op  string // "generate" or "list"
	Err error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
