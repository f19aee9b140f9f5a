// Package ai talks to the remote generative model provider: it resolves which model to use, composes the payload
// for a request and adapts the provider SDK to a small interface.
package ai

import "context"

// ModelInfo describes a model exposed by the provider
type ModelInfo struct {
	ID          string
	DisplayName string
}

// Payload is the content of a single generation request: a text prompt and an optional image
type Payload struct {
	Prompt string
	Image  *Image // May be nil

	// MaxTokens overrides the provider's default output limit when positive
	MaxTokens int64
}

// HasImage reports whether the payload carries an image
func (p Payload) HasImage() bool {
	return p.Image != nil
}

// Provider is a handle to the remote provider, bound to a single credential
type Provider interface {
	// ModelAvailable returns nil if a handle to the given model can be constructed under this provider's credential
	ModelAvailable(ctx context.Context, model string) error
	// ListModels returns every model that supports content generation
	ListModels(ctx context.Context) ([]ModelInfo, error)
	// Generate sends the payload to the given model and returns the response text
	Generate(ctx context.Context, model string, payload Payload) (string, error)
}

// ProviderFactory constructs a Provider scoped to one credential. Implementations must not share credential state
// between the providers they return.
type ProviderFactory interface {
	NewProvider(credential string) Provider
}
