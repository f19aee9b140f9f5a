package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves the models in available and fails everything else
type fakeProvider struct {
	available   map[string]bool
	generateErr error
	probed      []string
	checked     []string
}

func (fp *fakeProvider) ModelAvailable(_ context.Context, model string) error {
	fp.checked = append(fp.checked, model)
	if fp.available[model] {
		return nil
	}
	return errors.New("model not found")
}

func (fp *fakeProvider) ListModels(_ context.Context) ([]ModelInfo, error) {
	return nil, nil
}

func (fp *fakeProvider) Generate(_ context.Context, model string, payload Payload) (string, error) {
	fp.probed = append(fp.probed, model)
	if fp.generateErr != nil {
		return "", fp.generateErr
	}
	return "pong", nil
}

func TestResolve_FirstAvailableWins(t *testing.T) {
	provider := &fakeProvider{available: map[string]bool{"b": true, "c": true}}
	candidates := NewCandidateList(CapabilityText, "a", "b", "c")

	model, err := NewResolver().Resolve(context.Background(), provider, candidates)
	require.NoError(t, err)
	assert.Equal(t, "b", model)
	assert.Equal(t, []string{"a", "b"}, provider.checked)
	assert.Empty(t, provider.probed)
}

func TestResolve_NoneAvailable(t *testing.T) {
	provider := &fakeProvider{}
	candidates := NewCandidateList(CapabilityVision, "a", "b")

	_, err := NewResolver().Resolve(context.Background(), provider, candidates)

	var noModel *NoAvailableModelError
	require.ErrorAs(t, err, &noModel)
	assert.Equal(t, []string{"a", "b"}, noModel.Attempted)
	assert.Equal(t, CapabilityVision, noModel.Capability)
	assert.Equal(t, "No available vision models found (tried: a, b)", err.Error())
}

func TestResolve_EmptyCandidateList(t *testing.T) {
	_, err := NewResolver().Resolve(context.Background(), &fakeProvider{}, NewCandidateList(CapabilityText))

	var noModel *NoAvailableModelError
	require.ErrorAs(t, err, &noModel)
	assert.Equal(t, "No available models found", err.Error())
}

func TestResolve_ProbeRejectsModelsThatCannotGenerate(t *testing.T) {
	provider := &fakeProvider{
		available:   map[string]bool{"a": true},
		generateErr: errors.New("overloaded"),
	}

	_, err := NewResolver(WithProbe(true)).Resolve(context.Background(), provider, NewCandidateList(CapabilityText, "a"))

	var noModel *NoAvailableModelError
	require.ErrorAs(t, err, &noModel)
	assert.Equal(t, []string{"a"}, provider.probed)
}

func TestResolve_ProbeAcceptsModelsThatGenerate(t *testing.T) {
	provider := &fakeProvider{available: map[string]bool{"a": true}}

	model, err := NewResolver(WithProbe(true)).Resolve(context.Background(), provider, NewCandidateList(CapabilityText, "a"))
	require.NoError(t, err)
	assert.Equal(t, "a", model)
	assert.Equal(t, []string{"a"}, provider.probed)
}

func TestResolve_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &fakeProvider{}
	_, err := NewResolver().Resolve(ctx, provider, NewCandidateList(CapabilityText, "a", "b"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, provider.checked)
}

func TestResolve_ObserverSeesEveryAttempt(t *testing.T) {
	type attempt struct {
		model     string
		available bool
	}
	var attempts []attempt
	observer := func(_ Capability, model string, available bool) {
		attempts = append(attempts, attempt{model, available})
	}
	provider := &fakeProvider{available: map[string]bool{"b": true}}

	_, err := NewResolver(WithAttemptObserver(observer)).Resolve(context.Background(), provider, NewCandidateList(CapabilityText, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []attempt{{"a", false}, {"b", true}}, attempts)
}
