/*
Copyright © 2026 Salma <salma247@pm.me>
*/

package main

// RoundStatus tracks where a room's round is in its lifecycle.
type RoundStatus int

const (
	RoundIdle RoundStatus = iota
	RoundOpen
	RoundClosed
)

// Prompt is one question plus its correct answer. The answer is never
// serialized to clients; it only leaves the server via revealAnswer.
type Prompt struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices,omitempty"`
	Answer   string   `json:"-"`
}

// Round is the per-room question state machine:
// Idle -> Open (question issued) -> Closed (everyone answered) -> Idle (revealed).
//
// Round is not safe for concurrent use on its own; the Coordinator
// serializes access to it.
type Round struct {
	status   RoundStatus
	prompt   *Prompt
	answered map[string]struct{}
}

func (r *Round) Status() RoundStatus {
	return r.status
}

// Open stores a freshly fetched prompt and opens the round. Callers must
// only do this from Idle; re-requesting an in-progress question returns
// the existing prompt instead (see Prompt()).
func (r *Round) Open(prompt *Prompt) {
	r.status = RoundOpen
	r.prompt = prompt
	r.answered = make(map[string]struct{})
}

// Prompt returns the active prompt, or nil when the round is idle.
func (r *Round) Prompt() *Prompt {
	if r.status == RoundIdle {
		return nil
	}
	return r.prompt
}

// Submit records an answer from a player. Resubmission by the same player
// does not double count. The round closes once every currently-present
// player has answered, where members is the membership count at submission
// time: a player who left mid-round shrinks the denominator rather than
// wedging the round open.
func (r *Round) Submit(playerID string, members int) (bool, error) {
	if r.status == RoundIdle {
		return false, ErrNoActiveRound
	}

	r.answered[playerID] = struct{}{}

	if r.status == RoundOpen && len(r.answered) >= members {
		r.status = RoundClosed
	}

	return r.status == RoundClosed, nil
}

// Reveal returns the correct answer and resets the round to Idle, so a
// stray answer arriving after the reveal is rejected with ErrNoActiveRound
// and the next question request starts a fresh round.
func (r *Round) Reveal() (string, error) {
	if r.status == RoundIdle {
		return "", ErrNoActiveRound
	}

	answer := r.prompt.Answer
	r.Reset()

	return answer, nil
}

// Reset returns the round to Idle, discarding the prompt and answer set.
func (r *Round) Reset() {
	r.status = RoundIdle
	r.prompt = nil
	r.answered = nil
}

// DropPlayer removes a departed player from the answered set and
// re-evaluates whether the round should close, so a room never waits on
// someone who already disconnected.
func (r *Round) DropPlayer(playerID string, remaining int) {
	if r.status != RoundOpen {
		return
	}

	delete(r.answered, playerID)

	if remaining > 0 && len(r.answered) >= remaining {
		r.status = RoundClosed
	}
}
