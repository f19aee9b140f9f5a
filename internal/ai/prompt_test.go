package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testImage() *Image {
	return &Image{MediaType: "image/png", Data: []byte("png")}
}

func TestCompose_BareMessage(t *testing.T) {
	payload, err := NewComposer(DefaultContextPolicy).Compose("Hello", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Hello", payload.Prompt)
	require.False(t, payload.HasImage())
}

func TestCompose_EmptyMessageWithoutImage(t *testing.T) {
	for _, message := range []string{"", "   ", "\n\t"} {
		_, err := NewComposer(DefaultContextPolicy).Compose(message, nil, nil)
		require.ErrorIs(t, err, ErrEmptyInput)
	}
}

func TestCompose_TwoPriorTurns(t *testing.T) {
	history := []Exchange{
		{User: "What is Go?", Assistant: "A programming language."},
		{User: "Who made it?", Assistant: "Google."},
	}

	payload, err := NewComposer(DefaultContextPolicy).Compose("When?", nil, history)
	require.NoError(t, err)

	expected := "User: What is Go?\nAssistant: A programming language.\n" +
		"User: Who made it?\nAssistant: Google.\n" +
		"\nUser: When?"
	require.Equal(t, expected, payload.Prompt)
}

func TestCompose_WindowOnlySamplesLastTwoTurns(t *testing.T) {
	history := []Exchange{
		{User: "first", Assistant: "one"},
		{User: "second", Assistant: "two"},
		{User: "third", Assistant: "three"},
	}

	payload, err := NewComposer(DefaultContextPolicy).Compose("fourth", nil, history)
	require.NoError(t, err)
	require.NotContains(t, payload.Prompt, "first")
	require.Contains(t, payload.Prompt, "User: second\nAssistant: two\nUser: third\nAssistant: three\n")
}

func TestCompose_IncompleteTurnsDoNotShiftWindow(t *testing.T) {
	history := []Exchange{
		{User: "old", Assistant: "older answer"},
		{User: "", Assistant: "a description of an image"},
		{User: "latest", Assistant: "latest answer"},
	}

	payload, err := NewComposer(DefaultContextPolicy).Compose("next", nil, history)
	require.NoError(t, err)
	require.Equal(t, "User: latest\nAssistant: latest answer\n\nUser: next", payload.Prompt)
}

func TestCompose_AllSampledTurnsIncomplete(t *testing.T) {
	history := []Exchange{
		{User: "complete", Assistant: "answer"},
		{User: "failed", Assistant: ""},
		{User: "", Assistant: "image answer"},
	}

	payload, err := NewComposer(DefaultContextPolicy).Compose("next", nil, history)
	require.NoError(t, err)
	require.Equal(t, "next", payload.Prompt)
}

func TestCompose_KeepIncompleteTurns(t *testing.T) {
	policy := ContextPolicy{Window: 1, SkipIncompleteTurns: false}
	history := []Exchange{{User: "", Assistant: "image answer"}}

	payload, err := NewComposer(policy).Compose("next", nil, history)
	require.NoError(t, err)
	require.Equal(t, "User: \nAssistant: image answer\n\nUser: next", payload.Prompt)
}

func TestCompose_ZeroWindow(t *testing.T) {
	history := []Exchange{{User: "a", Assistant: "b"}}

	payload, err := NewComposer(ContextPolicy{Window: 0}).Compose("next", nil, history)
	require.NoError(t, err)
	require.Equal(t, "next", payload.Prompt)
}

func TestCompose_ImageWithoutMessage(t *testing.T) {
	img := testImage()
	history := []Exchange{{User: "a", Assistant: "b"}}

	payload, err := NewComposer(DefaultContextPolicy).Compose("  ", img, history)
	require.NoError(t, err)
	require.Equal(t, DefaultImagePrompt, payload.Prompt)
	require.Same(t, img, payload.Image)
}

func TestCompose_ImageWithMessageHasNoHistory(t *testing.T) {
	history := []Exchange{{User: "a", Assistant: "b"}}

	payload, err := NewComposer(DefaultContextPolicy).Compose("What plant is this?", testImage(), history)
	require.NoError(t, err)
	require.Equal(t, "What plant is this?", payload.Prompt)
	require.True(t, payload.HasImage())
}
