// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/config"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/queue"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/store/memstore"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/testsetup"
)

const (
	testChannel = "chan-1"
	testServer  = "server-1"
)

func newHandler(t *testing.T) (*queue.Handler, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	return queue.NewHandler(st, &config.Config{}), st
}

func player(id string) models.Player {
	return testsetup.Player(id, testServer)
}

func TestEnqueue(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	err := h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false)
	require.NoError(t, err)

	entries, err := st.ListQueueEntries(scope, testChannel)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].PlayerID)
	assert.Equal(t, models.RoleTop, entries[0].Role)
	assert.Equal(t, testServer, entries[0].ServerID)
}

func TestEnqueue_invalidRole(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, _ := newHandler(t)

	err := h.Enqueue(scope, player("a"), models.Role("FEED"), testChannel, false)
	assert.ErrorIs(t, err, models.ErrInvalidRole)
}

func TestEnqueue_multipleRolesSamePlayer(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false))
	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleMid, testChannel, false))

	entries, _ := st.ListQueueEntries(scope, testChannel)
	assert.Len(t, entries, 2)
}

func TestEnqueue_refreshKeepsDuoLink(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.LinkDuo(scope, player("a"), player("b"), models.RoleTop, models.RoleJgl, testChannel, false))
	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false))

	entries, _ := st.ListPlayerEntries(scope, "a")
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].DuoPlayerID)
	assert.Equal(t, models.RoleJgl, entries[0].DuoRole)
}

func TestEnqueue_jumpAheadBackdates(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	queue.Now = func() time.Time { return now }
	defer func() { queue.Now = time.Now }()

	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, testChannel, true))
	require.NoError(t, h.Enqueue(scope, player("b"), models.RoleTop, testChannel, false))

	entries, _ := st.ListQueueEntries(scope, testChannel)
	byPlayer := make(map[string]models.QueueEntry)
	for _, e := range entries {
		byPlayer[e.PlayerID] = e
	}
	assert.Equal(t, now, byPlayer["b"].QueueTime)
	assert.Equal(t, now.Add(-24*time.Hour), byPlayer["a"].QueueTime)
}

func TestEnqueue_blockedByUnscoredGame(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	_, err := st.CreateGame(scope, models.Game{
		ServerID: testServer,
		Participants: []models.GameParticipant{
			{PlayerID: "a", Side: models.SideBlue, Role: models.RoleTop},
		},
	})
	require.NoError(t, err)

	err = h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false)
	assert.ErrorIs(t, err, models.ErrPlayerInUnscoredGame)
}

func TestEnqueue_allowedAfterGameScored(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	gameID, err := st.CreateGame(scope, models.Game{
		ServerID: testServer,
		Participants: []models.GameParticipant{
			{PlayerID: "a", Side: models.SideBlue, Role: models.RoleTop},
		},
	})
	require.NoError(t, err)
	require.NoError(t, st.SetWinner(scope, gameID, models.SideBlue))

	assert.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false))
}

func TestEnqueue_blockedDuringReadyCheck(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false))
	require.NoError(t, st.SetReadyCheckID(scope, testChannel, []string{"a"}, "rc-1"))

	err := h.Enqueue(scope, player("a"), models.RoleMid, testChannel, false)
	assert.ErrorIs(t, err, models.ErrPlayerInReadyCheck)
}

func TestDequeue(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false))
	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleMid, testChannel, false))
	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, "chan-2", false))

	require.NoError(t, h.Dequeue(scope, "a", testChannel))

	entries, _ := st.ListPlayerEntries(scope, "a")
	require.Len(t, entries, 1)
	assert.Equal(t, "chan-2", entries[0].ChannelID)
}

func TestDequeue_globalRemovesEverywhere(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false))
	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, "chan-2", false))

	require.NoError(t, h.Dequeue(scope, "a", ""))

	entries, _ := st.ListPlayerEntries(scope, "a")
	assert.Empty(t, entries)
}

func TestDequeue_blockedDuringReadyCheck(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false))
	require.NoError(t, st.SetReadyCheckID(scope, testChannel, []string{"a"}, "rc-1"))

	err := h.Dequeue(scope, "a", testChannel)
	assert.ErrorIs(t, err, models.ErrPlayerInReadyCheck)
}

func TestLinkDuo(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.LinkDuo(scope, player("a"), player("b"), models.RoleBot, models.RoleSup, testChannel, false))

	entries, _ := st.ListQueueEntries(scope, testChannel)
	require.Len(t, entries, 2)
	byPlayer := make(map[string]models.QueueEntry)
	for _, e := range entries {
		byPlayer[e.PlayerID] = e
	}
	assert.Equal(t, "b", byPlayer["a"].DuoPlayerID)
	assert.Equal(t, models.RoleSup, byPlayer["a"].DuoRole)
	assert.Equal(t, "a", byPlayer["b"].DuoPlayerID)
	assert.Equal(t, models.RoleBot, byPlayer["b"].DuoRole)
}

func TestLinkDuo_sameRoleRejectedBeforeMutation(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleMid, testChannel, false))

	err := h.LinkDuo(scope, player("a"), player("b"), models.RoleBot, models.RoleBot, testChannel, false)
	assert.ErrorIs(t, err, models.ErrSameRoleDuo)

	// the pre-existing entry must be untouched
	entries, _ := st.ListQueueEntries(scope, testChannel)
	require.Len(t, entries, 1)
	assert.Equal(t, models.RoleMid, entries[0].Role)
}

func TestLinkDuo_replacesPreviousEntries(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleMid, testChannel, false))
	require.NoError(t, h.LinkDuo(scope, player("a"), player("b"), models.RoleBot, models.RoleSup, testChannel, false))

	entries, _ := st.ListPlayerEntries(scope, "a")
	require.Len(t, entries, 1)
	assert.Equal(t, models.RoleBot, entries[0].Role)
}

func TestRemoveDuo(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	require.NoError(t, h.LinkDuo(scope, player("a"), player("b"), models.RoleBot, models.RoleSup, testChannel, false))
	require.NoError(t, h.RemoveDuo(scope, "a", testChannel))

	entries, _ := st.ListQueueEntries(scope, testChannel)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.HasDuo(), "duo link should be cleared for %s", e.PlayerID)
	}
}

func TestStartReadyCheck_requiresFullGame(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, _ := newHandler(t)

	err := h.StartReadyCheck(scope, []string{"a", "b"}, testChannel, "rc-1")
	assert.ErrorIs(t, err, models.ErrIncompleteTeams)
}

func TestReadyCheckLifecycle(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	playerIDs := make([]string, 0, models.GameSize)
	for _, e := range testsetup.FullQueue(testChannel, testServer, time.Now()) {
		require.NoError(t, st.UpsertQueueEntry(scope, e))
		playerIDs = append(playerIDs, e.PlayerID)
	}

	require.NoError(t, h.StartReadyCheck(scope, playerIDs, testChannel, "rc-1"))

	entries, _ := st.ListQueueEntries(scope, testChannel)
	for _, e := range entries {
		assert.Equal(t, "rc-1", e.ReadyCheckID)
	}

	// accepting consumes every entry of the 10 players on the server
	require.NoError(t, h.ValidateReadyCheck(scope, "rc-1", playerIDs, testServer))
	entries, _ = st.ListQueueEntries(scope, testChannel)
	assert.Empty(t, entries)
}

func TestCancelReadyCheck_declineDropsDecliner(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	playerIDs := make([]string, 0, models.GameSize)
	for _, e := range testsetup.FullQueue(testChannel, testServer, time.Now()) {
		require.NoError(t, st.UpsertQueueEntry(scope, e))
		playerIDs = append(playerIDs, e.PlayerID)
	}
	require.NoError(t, h.StartReadyCheck(scope, playerIDs, testChannel, "rc-1"))

	decliner := playerIDs[3]
	require.NoError(t, h.CancelReadyCheck(scope, "rc-1", []string{decliner}, "", testServer))

	entries, _ := st.ListQueueEntries(scope, testChannel)
	assert.Len(t, entries, models.GameSize-1)
	for _, e := range entries {
		assert.NotEqual(t, decliner, e.PlayerID)
		assert.Empty(t, e.ReadyCheckID, "surviving entries must be released")
	}
}

func TestCancelReadyCheck_scopesAreExclusive(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, _ := newHandler(t)

	err := h.CancelReadyCheck(scope, "rc-1", []string{"a"}, testChannel, testServer)
	assert.Error(t, err)
}

func TestCancelAllReadyChecks(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, st := newHandler(t)

	e := testsetup.Entry(testChannel, testServer, "a", models.RoleTop, time.Now())
	e.ReadyCheckID = "rc-stale"
	require.NoError(t, st.UpsertQueueEntry(scope, e))

	require.NoError(t, h.CancelAllReadyChecks(scope))

	entries, _ := st.ListQueueEntries(scope, testChannel)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ReadyCheckID)
}

func TestActiveChannels(t *testing.T) {
	scope := testsetup.NewTestScope()
	h, _ := newHandler(t)

	require.NoError(t, h.Enqueue(scope, player("a"), models.RoleTop, testChannel, false))
	require.NoError(t, h.Enqueue(scope, player("b"), models.RoleTop, "chan-2", false))

	channels, err := h.ActiveChannels(scope)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{testChannel, "chan-2"}, channels)
}
