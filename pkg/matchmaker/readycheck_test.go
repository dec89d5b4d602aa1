// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/testsetup"
)

func testCandidate() models.CandidateGame {
	entries := testsetup.FullQueue("chan-1", "server-1", time.Now())
	participants := make([]models.GameParticipant, 0, models.GameSize)
	for i, e := range entries {
		side := models.SideBlue
		if i%2 == 1 {
			side = models.SideRed
		}
		participants = append(participants, models.GameParticipant{
			PlayerID: e.PlayerID,
			Name:     e.PlayerName,
			Side:     side,
			Role:     e.Role,
			Mu:       25,
			Sigma:    25.0 / 3.0,
		})
	}
	return models.CandidateGame{
		ServerID:           "server-1",
		ChannelID:          "chan-1",
		BlueWinProbability: 0.5,
		Participants:       participants,
		Entries:            entries,
	}
}

func pendingCheck(t *testing.T, threshold int) *ReadyCheck {
	t.Helper()
	return NewReadyCheck("rc-1", testCandidate(), threshold, time.Now().Add(time.Minute))
}

func TestSubmitAck_allAcceptResolvesAccepted(t *testing.T) {
	rc := pendingCheck(t, 0)

	for _, id := range rc.Candidate.PlayerIDs() {
		require.NoError(t, rc.SubmitAck(id, true))
	}

	assert.Equal(t, ReadyCheckAccepted, rc.State())

	outcome := rc.Wait(context.Background())
	assert.Equal(t, ReadyCheckAccepted, outcome.State)
	assert.Empty(t, outcome.Dropped)
}

func TestSubmitAck_thresholdBelowFullCount(t *testing.T) {
	rc := pendingCheck(t, 8)

	ids := rc.Candidate.PlayerIDs()
	for _, id := range ids[:7] {
		require.NoError(t, rc.SubmitAck(id, true))
	}
	assert.Equal(t, ReadyCheckPending, rc.State())

	require.NoError(t, rc.SubmitAck(ids[7], true))
	assert.Equal(t, ReadyCheckAccepted, rc.State())
}

func TestSubmitAck_firstDeclineWins(t *testing.T) {
	rc := pendingCheck(t, 0)
	ids := rc.Candidate.PlayerIDs()

	require.NoError(t, rc.SubmitAck(ids[0], true))
	require.NoError(t, rc.SubmitAck(ids[1], false))

	outcome := rc.Wait(context.Background())
	assert.Equal(t, ReadyCheckDeclined, outcome.State)
	assert.Equal(t, ids[1], outcome.Decliner)

	// everything after the terminal transition is ignored
	err := rc.SubmitAck(ids[2], false)
	assert.ErrorIs(t, err, models.ErrReadyCheckResolved)
	assert.Equal(t, ids[1], rc.decliner)
}

func TestSubmitAck_duplicateAcceptIsNoOp(t *testing.T) {
	rc := pendingCheck(t, 0)
	ids := rc.Candidate.PlayerIDs()

	require.NoError(t, rc.SubmitAck(ids[0], true))
	require.NoError(t, rc.SubmitAck(ids[0], true))

	states := rc.AckStates()
	assert.Equal(t, AckAccepted, states[ids[0]])
	assert.Equal(t, ReadyCheckPending, rc.State())
}

func TestSubmitAck_unknownPlayer(t *testing.T) {
	rc := pendingCheck(t, 0)

	err := rc.SubmitAck("stranger", true)
	assert.ErrorIs(t, err, models.ErrNotParticipant)
}

func TestWait_timeoutDropsNonAckers(t *testing.T) {
	candidate := testCandidate()
	rc := NewReadyCheck("rc-1", candidate, 0, time.Now().Add(20*time.Millisecond))
	ids := candidate.PlayerIDs()

	require.NoError(t, rc.SubmitAck(ids[0], true))
	require.NoError(t, rc.SubmitAck(ids[1], true))

	outcome := rc.Wait(context.Background())

	assert.Equal(t, ReadyCheckTimedOut, outcome.State)
	assert.Len(t, outcome.Dropped, models.GameSize-2)
	assert.NotContains(t, outcome.Dropped, ids[0])
	assert.NotContains(t, outcome.Dropped, ids[1])
}

func TestWait_contextFailureDropsEveryone(t *testing.T) {
	rc := pendingCheck(t, 0)
	ids := rc.Candidate.PlayerIDs()
	require.NoError(t, rc.SubmitAck(ids[0], true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := rc.Wait(ctx)

	assert.Equal(t, ReadyCheckTimedOut, outcome.State)
	assert.Error(t, outcome.Err)
	assert.Len(t, outcome.Dropped, models.GameSize, "an internal failure must not strand anyone in the queue")
}

func TestSubmitAck_concurrent(t *testing.T) {
	rc := pendingCheck(t, 0)
	ids := rc.Candidate.PlayerIDs()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(playerID string) {
			defer wg.Done()
			_ = rc.SubmitAck(playerID, true)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, ReadyCheckAccepted, rc.State())
	outcome := rc.Wait(context.Background())
	assert.Equal(t, ReadyCheckAccepted, outcome.State)
}
