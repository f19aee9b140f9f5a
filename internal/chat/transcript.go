// Package chat holds conversation state and the user-facing actions of the chat front end: sending a message,
// analyzing an image and checking a credential.
package chat

import (
	"slices"
	"strings"

	"github.com/cchalm/multimodal-chat/internal/ai"
)

// ImagePlaceholder is displayed in place of the user's input when an image was sent without text
const ImagePlaceholder = "[Image uploaded]"

// Turn is one exchange in a conversation. Turns are values and are never modified once appended to a transcript.
type Turn struct {
	Message  string // The user's text, possibly blank
	HasImage bool
	Output   string
	Failed   bool // Output is a warning or failure report rather than a model response
}

// Label is the user side of the turn as displayed in the transcript
func (t Turn) Label() string {
	if strings.TrimSpace(t.Message) == "" {
		return ImagePlaceholder
	}
	return t.Message
}

// exchange returns the turn as conversation context. Sides that carry no real content are left empty so that the
// composer can skip them.
func (t Turn) exchange() ai.Exchange {
	ex := ai.Exchange{User: t.Message}
	if !t.Failed {
		ex.Assistant = t.Output
	}
	return ex
}

// Transcript is an append-only, ordered sequence of turns. The zero value is an empty transcript.
type Transcript struct {
	turns []Turn
}

// Append returns a new transcript with turn added at the end. The receiver is unchanged.
func (tr Transcript) Append(turn Turn) Transcript {
	turns := make([]Turn, len(tr.turns), len(tr.turns)+1)
	copy(turns, tr.turns)
	return Transcript{turns: append(turns, turn)}
}

// Clear returns an empty transcript
func (tr Transcript) Clear() Transcript {
	return Transcript{}
}

func (tr Transcript) Len() int {
	return len(tr.turns)
}

// Turns returns a copy of the turns, oldest first
func (tr Transcript) Turns() []Turn {
	return slices.Clone(tr.turns)
}

// Exchanges returns the transcript as composer context, oldest first
func (tr Transcript) Exchanges() []ai.Exchange {
	exchanges := make([]ai.Exchange, 0, len(tr.turns))
	for _, t := range tr.turns {
		exchanges = append(exchanges, t.exchange())
	}
	return exchanges
}
