package chat

import (
	"errors"

	"github.com/cchalm/multimodal-chat/internal/ai"
)

const (
	warningMarker = "⚠️ "
	errorMarker   = "❌ "
	successMarker = "✅ "

	MissingCredentialMessage = warningMarker + "Please provide your Anthropic API key in the settings above."
	MissingInputMessage      = warningMarker + "Please provide either a text message or an image."

	analysisMissingCredentialMessage = warningMarker + "Please provide your API key first."
	analysisMissingImageMessage      = warningMarker + "Please upload an image."

	keyMissingMessage = warningMarker + "Please enter an API key first."
	keyNoModelsReport = warningMarker + "API key works but no models found."
	keyValidHeader    = successMarker + "API Key is Valid!\n\nAvailable models:\n"
	keyFailedPrefix   = errorMarker + "API Key Test Failed: "

	// maxListedModels bounds the credential check report
	maxListedModels = 15
)

// Render appends one turn for the given input and output and returns the new transcript
func Render(message string, hasImage bool, output string, failed bool, transcript Transcript) Transcript {
	return transcript.Append(Turn{
		Message:  message,
		HasImage: hasImage,
		Output:   output,
		Failed:   failed,
	})
}

// failureReport converts an error from model resolution or generation into the text shown to the user
func failureReport(err error) string {
	var noModel *ai.NoAvailableModelError
	if errors.As(err, &noModel) {
		return errorMarker + err.Error()
	}
	return errorMarker + "Error: " + err.Error()
}

// validationReport converts a local input validation error into the text shown to the user
func validationReport(err error) string {
	switch {
	case errors.Is(err, ai.ErrMissingCredential):
		return MissingCredentialMessage
	case errors.Is(err, ai.ErrEmptyInput):
		return MissingInputMessage
	default:
		return warningMarker + err.Error()
	}
}
