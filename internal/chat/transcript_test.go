package chat

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchalm/multimodal-chat/internal/ai"
)

func transcriptOf(n int) Transcript {
	var tr Transcript
	for i := range n {
		tr = tr.Append(Turn{Message: fmt.Sprintf("q%d", i), Output: fmt.Sprintf("a%d", i)})
	}
	return tr
}

func TestAppend_PreservesPrefix(t *testing.T) {
	for n := range 5 {
		before := transcriptOf(n)
		after := before.Append(Turn{Message: "new", Output: "turn"})

		require.Equal(t, before.Len()+1, after.Len())
		require.True(t, slices.Equal(before.Turns(), after.Turns()[:before.Len()]))
		require.Equal(t, "new", after.Turns()[n].Message)
	}
}

func TestAppend_DoesNotAliasReceiver(t *testing.T) {
	base := transcriptOf(2)
	a := base.Append(Turn{Message: "a"})
	b := base.Append(Turn{Message: "b"})

	assert.Equal(t, "a", a.Turns()[2].Message)
	assert.Equal(t, "b", b.Turns()[2].Message)
	assert.Equal(t, 2, base.Len())
}

func TestTurns_ReturnsCopy(t *testing.T) {
	tr := transcriptOf(1)
	turns := tr.Turns()
	turns[0].Output = "mutated"
	assert.Equal(t, "a0", tr.Turns()[0].Output)
}

func TestClear_AlwaysEmpty(t *testing.T) {
	for n := range 4 {
		cleared := transcriptOf(n).Clear()
		require.Equal(t, 0, cleared.Len())
		require.Equal(t, 0, cleared.Clear().Len())
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "hello", Turn{Message: "hello"}.Label())
	assert.Equal(t, ImagePlaceholder, Turn{Message: "  ", HasImage: true}.Label())
	assert.Equal(t, ImagePlaceholder, Turn{}.Label())
}

func TestExchanges_HideFailedOutput(t *testing.T) {
	tr := Transcript{}.
		Append(Turn{Message: "hi", Output: "hello"}).
		Append(Turn{Message: "again", Output: "❌ Error: boom", Failed: true}).
		Append(Turn{HasImage: true, Output: "a cat"})

	assert.Equal(t, []ai.Exchange{
		{User: "hi", Assistant: "hello"},
		{User: "again", Assistant: ""},
		{User: "", Assistant: "a cat"},
	}, tr.Exchanges())
}

func TestRender_AppendsExactlyOneTurn(t *testing.T) {
	tr := Render("", true, "a description", false, transcriptOf(3))
	require.Equal(t, 4, tr.Len())
	last := tr.Turns()[3]
	assert.Equal(t, ImagePlaceholder, last.Label())
	assert.Equal(t, "a description", last.Output)
}
