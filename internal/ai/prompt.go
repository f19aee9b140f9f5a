package ai

import (
	"strings"
)

const (
	// DefaultImagePrompt is used when an image is sent without accompanying text
	DefaultImagePrompt = "Describe this image in detail."
	// AnalysisPrompt is the fixed instruction of the image analysis path
	AnalysisPrompt = "Analyze this image in detail: describe subjects, scene, colors, composition, any visible text, mood, and potential context or use cases."
)

// Exchange is a prior conversation turn as seen by the composer. Either side may be empty, e.g. for a turn whose
// input was an image with no text, or a turn whose output was a failure report.
type Exchange struct {
	User      string
	Assistant string
}

func (e Exchange) complete() bool {
	return strings.TrimSpace(e.User) != "" && strings.TrimSpace(e.Assistant) != ""
}

// ContextPolicy controls how much conversation history is prefixed to a text prompt
type ContextPolicy struct {
	// Window is the number of most recent turns sampled for context
	Window int
	// SkipIncompleteTurns drops sampled turns with an empty side. Skipped turns still count against Window.
	SkipIncompleteTurns bool
}

var DefaultContextPolicy = ContextPolicy{Window: 2, SkipIncompleteTurns: true}

// Composer builds provider payloads from user input
type Composer struct {
	policy ContextPolicy
}

func NewComposer(policy ContextPolicy) Composer {
	return Composer{policy: policy}
}

// Compose builds the payload for a message, an optional image and the conversation so far (oldest first).
// Image payloads never carry history. Text payloads require a non-blank message.
func (c Composer) Compose(message string, image *Image, history []Exchange) (Payload, error) {
	if image != nil {
		prompt := message
		if strings.TrimSpace(prompt) == "" {
			prompt = DefaultImagePrompt
		}
		return Payload{Prompt: prompt, Image: image}, nil
	}

	if strings.TrimSpace(message) == "" {
		return Payload{}, ErrEmptyInput
	}

	prefix := c.historyPrefix(history)
	if prefix == "" {
		return Payload{Prompt: message}, nil
	}
	return Payload{Prompt: prefix + "\nUser: " + message}, nil
}

func (c Composer) historyPrefix(history []Exchange) string {
	if c.policy.Window <= 0 || len(history) == 0 {
		return ""
	}
	window := history[max(0, len(history)-c.policy.Window):]

	var sb strings.Builder
	for _, ex := range window {
		if c.policy.SkipIncompleteTurns && !ex.complete() {
			continue
		}
		sb.WriteString("User: ")
		sb.WriteString(ex.User)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(ex.Assistant)
		sb.WriteString("\n")
	}
	return sb.String()
}
