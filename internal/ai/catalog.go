package ai

import (
	"slices"

	"github.com/anthropics/anthropic-sdk-go"
)

// Capability is what a candidate model list is expected to support
type Capability int

const (
	CapabilityText Capability = iota
	CapabilityVision
)

func (c Capability) String() string {
	switch c {
	case CapabilityText:
		return "text"
	case CapabilityVision:
		return "vision"
	default:
		return "unknown"
	}
}

// CandidateList is an immutable, ordered list of model identifiers, most preferred first
type CandidateList struct {
	capability Capability
	models     []string
}

// NewCandidateList creates a candidate list. Blank and duplicate identifiers are dropped.
func NewCandidateList(capability Capability, models ...string) CandidateList {
	clean := make([]string, 0, len(models))
	for _, m := range models {
		if m == "" || slices.Contains(clean, m) {
			continue
		}
		clean = append(clean, m)
	}
	return CandidateList{capability: capability, models: clean}
}

func (cl CandidateList) Capability() Capability {
	return cl.capability
}

// Models returns a copy of the candidate identifiers in preference order
func (cl CandidateList) Models() []string {
	return slices.Clone(cl.models)
}

func (cl CandidateList) Len() int {
	return len(cl.models)
}

var (
	// TextCandidates are tried in order for text-only chat
	TextCandidates = NewCandidateList(CapabilityText,
		string(anthropic.ModelClaudeSonnet4_5),
		string(anthropic.ModelClaudeSonnet4_0),
		string(anthropic.ModelClaude3_7SonnetLatest),
		string(anthropic.ModelClaudeHaiku4_5),
		string(anthropic.ModelClaude3_5HaikuLatest),
	)
	// VisionCandidates are tried in order for requests carrying an image
	VisionCandidates = NewCandidateList(CapabilityVision,
		string(anthropic.ModelClaudeSonnet4_5),
		string(anthropic.ModelClaudeSonnet4_0),
		string(anthropic.ModelClaude3_7SonnetLatest),
		string(anthropic.ModelClaudeHaiku4_5),
		string(anthropic.ModelClaude_3_Haiku_20240307),
	)
)
