package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateList_DropsBlankAndDuplicates(t *testing.T) {
	cl := NewCandidateList(CapabilityText, "a", "", "b", "a")
	assert.Equal(t, []string{"a", "b"}, cl.Models())
	assert.Equal(t, 2, cl.Len())
}

func TestCandidateList_ModelsReturnsCopy(t *testing.T) {
	cl := NewCandidateList(CapabilityText, "a", "b")
	models := cl.Models()
	models[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, cl.Models())
}

func TestBuiltinCandidateLists(t *testing.T) {
	assert.Equal(t, CapabilityText, TextCandidates.Capability())
	assert.Equal(t, CapabilityVision, VisionCandidates.Capability())
	assert.NotZero(t, TextCandidates.Len())
	assert.NotZero(t, VisionCandidates.Len())
}
