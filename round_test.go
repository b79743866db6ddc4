package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrompt() *Prompt {
	return &Prompt{
		Question: "What is the capital of France?",
		Choices:  []string{"Paris", "Lyon", "Nice", "Lille"},
		Answer:   "Paris",
	}
}

func TestRound_StartsIdle(t *testing.T) {
	var r Round

	assert.Equal(t, RoundIdle, r.Status())
	assert.Nil(t, r.Prompt())
}

func TestRound_SubmitWithoutQuestion(t *testing.T) {
	var r Round

	_, err := r.Submit("conn-1", 3)
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestRound_RevealWithoutQuestion(t *testing.T) {
	var r Round

	_, err := r.Reveal()
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestRound_ClosesWhenEveryoneAnswers(t *testing.T) {
	var r Round
	r.Open(testPrompt())

	over, err := r.Submit("a", 3)
	require.NoError(t, err)
	assert.False(t, over)

	over, err = r.Submit("b", 3)
	require.NoError(t, err)
	assert.False(t, over)

	over, err = r.Submit("c", 3)
	require.NoError(t, err)
	assert.True(t, over)
	assert.Equal(t, RoundClosed, r.Status())
}

func TestRound_SubmitIsIdempotent(t *testing.T) {
	var r Round
	r.Open(testPrompt())

	over, err := r.Submit("a", 2)
	require.NoError(t, err)
	assert.False(t, over)

	// Resubmission by the same player does not close a two-player round.
	over, err = r.Submit("a", 2)
	require.NoError(t, err)
	assert.False(t, over)

	over, err = r.Submit("b", 2)
	require.NoError(t, err)
	assert.True(t, over)
}

func TestRound_DropPlayerShrinksDenominator(t *testing.T) {
	var r Round
	r.Open(testPrompt())

	_, err := r.Submit("a", 3)
	require.NoError(t, err)
	_, err = r.Submit("b", 3)
	require.NoError(t, err)
	assert.Equal(t, RoundOpen, r.Status())

	// The unanswered third player disconnects; the round must not stay
	// open waiting for them.
	r.DropPlayer("c", 2)
	assert.Equal(t, RoundClosed, r.Status())
}

func TestRound_DropAnsweredPlayer(t *testing.T) {
	var r Round
	r.Open(testPrompt())

	_, err := r.Submit("a", 3)
	require.NoError(t, err)

	r.DropPlayer("a", 2)
	assert.Equal(t, RoundOpen, r.Status(), "one of two remaining players still has to answer")

	over, err := r.Submit("b", 2)
	require.NoError(t, err)
	assert.False(t, over)

	over, err = r.Submit("c", 2)
	require.NoError(t, err)
	assert.True(t, over)
}

func TestRound_RevealResetsToIdle(t *testing.T) {
	var r Round
	r.Open(testPrompt())

	answer, err := r.Reveal()
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer)
	assert.Equal(t, RoundIdle, r.Status())
	assert.Nil(t, r.Prompt())

	// A stray answer after the reveal is rejected.
	_, err = r.Submit("a", 2)
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestRound_RevealValidWhileClosed(t *testing.T) {
	var r Round
	r.Open(testPrompt())

	over, err := r.Submit("a", 1)
	require.NoError(t, err)
	require.True(t, over)

	answer, err := r.Reveal()
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer)
}

func TestRound_PromptStableWhileActive(t *testing.T) {
	var r Round
	prompt := testPrompt()
	r.Open(prompt)

	assert.Same(t, prompt, r.Prompt())

	_, err := r.Submit("a", 1)
	require.NoError(t, err)
	assert.Same(t, prompt, r.Prompt(), "closed rounds keep their prompt until reveal")
}

func TestRound_SubmitAfterClose(t *testing.T) {
	var r Round
	r.Open(testPrompt())

	over, err := r.Submit("a", 1)
	require.NoError(t, err)
	require.True(t, over)

	// A late joiner answering a closed round still sees it as over.
	over, err = r.Submit("b", 2)
	require.NoError(t, err)
	assert.True(t, over)
}
