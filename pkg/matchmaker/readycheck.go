// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
)

// ReadyCheckState is the lifecycle state of a proposed game's confirmation.
type ReadyCheckState int

const (
	ReadyCheckPending ReadyCheckState = iota
	ReadyCheckAccepted
	ReadyCheckDeclined
	ReadyCheckTimedOut
)

func (s ReadyCheckState) String() string {
	switch s {
	case ReadyCheckPending:
		return "pending"
	case ReadyCheckAccepted:
		return "accepted"
	case ReadyCheckDeclined:
		return "declined"
	case ReadyCheckTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// AckState is one participant's answer within a ready check.
type AckState int

const (
	AckPending AckState = iota
	AckAccepted
	AckDeclined
)

// ReadyCheckOutcome is the terminal result of a ready check.
type ReadyCheckOutcome struct {
	State ReadyCheckState

	// Decliner is set for ReadyCheckDeclined.
	Decliner string

	// Dropped lists the players to remove from the server's queues: the
	// non-ackers on a timeout, everyone on a forced cleanup.
	Dropped []string

	// Err is set when an internal failure forced the timeout-equivalent
	// cleanup.
	Err error
}

// ReadyCheck negotiates one proposed game with its 10 participants.
//
// Acknowledgement events may arrive concurrently; they are serialized under
// the internal mutex so the first decline wins and the acceptance-threshold
// crossing is observed exactly once. Once a terminal state is reached every
// later event is ignored.
type ReadyCheck struct {
	ID        string
	ChannelID string
	Deadline  time.Time

	// Candidate is the proposed game being confirmed.
	Candidate models.CandidateGame

	threshold int

	mu       sync.Mutex
	acks     map[string]AckState
	accepted int
	state    ReadyCheckState
	decliner string
	done     chan struct{}
}

// NewReadyCheck starts a pending ready check for the candidate's players.
// threshold is the number of accepts required; the safe default is every
// participant.
func NewReadyCheck(id string, candidate models.CandidateGame, threshold int, deadline time.Time) *ReadyCheck {
	playerIDs := candidate.PlayerIDs()
	if threshold <= 0 || threshold > len(playerIDs) {
		threshold = len(playerIDs)
	}

	acks := make(map[string]AckState, len(playerIDs))
	for _, playerID := range playerIDs {
		acks[playerID] = AckPending
	}

	return &ReadyCheck{
		ID:        id,
		ChannelID: candidate.ChannelID,
		Deadline:  deadline,
		Candidate: candidate,
		threshold: threshold,
		acks:      acks,
		done:      make(chan struct{}),
	}
}

// SubmitAck records one participant's answer. Accepting twice is a no-op;
// any event after a terminal transition returns
// models.ErrReadyCheckResolved and changes nothing; unknown players are
// rejected with models.ErrNotParticipant.
func (rc *ReadyCheck) SubmitAck(playerID string, accept bool) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.state != ReadyCheckPending {
		return fmt.Errorf("ready check %s: %w", rc.ID, models.ErrReadyCheckResolved)
	}
	current, ok := rc.acks[playerID]
	if !ok {
		return fmt.Errorf("ready check %s, player %q: %w", rc.ID, playerID, models.ErrNotParticipant)
	}

	if !accept {
		rc.acks[playerID] = AckDeclined
		rc.decliner = playerID
		rc.resolveLocked(ReadyCheckDeclined)
		return nil
	}

	if current == AckAccepted {
		return nil
	}
	rc.acks[playerID] = AckAccepted
	rc.accepted++
	if rc.accepted >= rc.threshold {
		rc.resolveLocked(ReadyCheckAccepted)
	}
	return nil
}

// resolveLocked takes the terminal transition. Callers hold rc.mu.
func (rc *ReadyCheck) resolveLocked(state ReadyCheckState) {
	rc.state = state
	close(rc.done)
}

// State returns the current lifecycle state.
func (rc *ReadyCheck) State() ReadyCheckState {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.state
}

// AckStates returns a copy of every participant's current answer.
func (rc *ReadyCheck) AckStates() map[string]AckState {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	states := make(map[string]AckState, len(rc.acks))
	for id, state := range rc.acks {
		states[id] = state
	}
	return states
}

// Wait blocks until the ready check resolves: every needed accept arrived,
// someone declined, the deadline elapsed, or ctx failed. A ctx failure is
// the internal-failure path and resolves like a timeout that drops all
// participants, so a broken event stream can never wedge the queue.
func (rc *ReadyCheck) Wait(ctx context.Context) ReadyCheckOutcome {
	timer := time.NewTimer(time.Until(rc.Deadline))
	defer timer.Stop()

	select {
	case <-rc.done:
		return rc.outcome(nil)
	case <-timer.C:
		rc.expire()
		return rc.outcome(nil)
	case <-ctx.Done():
		rc.abort()
		return rc.outcome(ctx.Err())
	}
}

// expire transitions to TimedOut unless a terminal state won the race.
func (rc *ReadyCheck) expire() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.state != ReadyCheckPending {
		return
	}
	rc.resolveLocked(ReadyCheckTimedOut)
}

// abort forces the timeout-equivalent terminal state and marks every
// participant as droppable.
func (rc *ReadyCheck) abort() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.state != ReadyCheckPending {
		return
	}
	for id := range rc.acks {
		rc.acks[id] = AckPending
	}
	rc.accepted = 0
	rc.resolveLocked(ReadyCheckTimedOut)
}

func (rc *ReadyCheck) outcome(err error) ReadyCheckOutcome {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	out := ReadyCheckOutcome{State: rc.state, Decliner: rc.decliner, Err: err}
	if rc.state == ReadyCheckTimedOut {
		for _, id := range rc.Candidate.PlayerIDs() {
			if rc.acks[id] != AckAccepted {
				out.Dropped = append(out.Dropped, id)
			}
		}
	}
	return out
}
