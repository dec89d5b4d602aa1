// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/config"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/store/memstore"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/testsetup"
)

func createTestGame(t *testing.T, st *memstore.Store, scope *envelope.Scope) models.Game {
	t.Helper()
	game := testCandidate().ToGame(time.Now())
	gameID, err := st.CreateGame(scope, game)
	require.NoError(t, err)
	game.ID = gameID
	return game
}

func TestReportWin(t *testing.T) {
	scope := testsetup.NewTestScope()
	mm, st := newTestMatchmaker(&config.Config{}, nil)
	game := createTestGame(t, st, scope)

	reporter := game.Team(models.SideBlue)[0]
	scored, err := mm.ReportWin(scope, reporter.PlayerID, "server-1")
	require.NoError(t, err)
	assert.Equal(t, models.SideBlue, scored.Winner)

	// winners gained skill, losers lost it, relative to the pre-game snapshot
	for _, p := range game.Team(models.SideBlue) {
		r, err := st.GetRating(scope, p.PlayerID, p.Role)
		require.NoError(t, err)
		assert.Greater(t, r.Mu, p.Mu, "winner %s", p.PlayerID)
		assert.LessOrEqual(t, r.Sigma, p.Sigma)
	}
	for _, p := range game.Team(models.SideRed) {
		r, err := st.GetRating(scope, p.PlayerID, p.Role)
		require.NoError(t, err)
		assert.Less(t, r.Mu, p.Mu, "loser %s", p.PlayerID)
	}
}

func TestReportWin_redSideReporter(t *testing.T) {
	scope := testsetup.NewTestScope()
	mm, st := newTestMatchmaker(&config.Config{}, nil)
	game := createTestGame(t, st, scope)

	reporter := game.Team(models.SideRed)[2]
	scored, err := mm.ReportWin(scope, reporter.PlayerID, "server-1")
	require.NoError(t, err)
	assert.Equal(t, models.SideRed, scored.Winner)
}

func TestReportWin_secondReportFails(t *testing.T) {
	scope := testsetup.NewTestScope()
	mm, st := newTestMatchmaker(&config.Config{}, nil)
	game := createTestGame(t, st, scope)

	reporter := game.Participants[0]
	_, err := mm.ReportWin(scope, reporter.PlayerID, "server-1")
	require.NoError(t, err)

	_, err = mm.ReportWin(scope, reporter.PlayerID, "server-1")
	assert.ErrorIs(t, err, models.ErrGameAlreadyScored)
}

func TestReportWin_noGameOnRecord(t *testing.T) {
	scope := testsetup.NewTestScope()
	mm, _ := newTestMatchmaker(&config.Config{}, nil)

	_, err := mm.ReportWin(scope, "stranger", "server-1")
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}

func TestReportWin_scoresMostRecentGame(t *testing.T) {
	scope := testsetup.NewTestScope()
	mm, st := newTestMatchmaker(&config.Config{}, nil)

	first := createTestGame(t, st, scope)
	reporter := first.Participants[0]
	_, err := mm.ReportWin(scope, reporter.PlayerID, "server-1")
	require.NoError(t, err)

	second := createTestGame(t, st, scope)
	scored, err := mm.ReportWin(scope, reporter.PlayerID, "server-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, scored.ID)
	assert.NotEqual(t, first.ID, scored.ID)
}

func TestCancelGame(t *testing.T) {
	scope := testsetup.NewTestScope()
	mm, st := newTestMatchmaker(&config.Config{}, nil)
	game := createTestGame(t, st, scope)

	require.NoError(t, mm.CancelGame(scope, game.ID))

	_, err := st.GetGame(scope, game.ID)
	assert.ErrorIs(t, err, models.ErrGameNotFound)

	// cancelled games no longer block re-queueing
	p := game.Participants[0]
	err = mm.Enqueue(scope, testsetup.Player(p.PlayerID, "server-1"), p.Role, "chan-1", false)
	assert.NoError(t, err)
}

func TestCancelGame_scoredGameRefused(t *testing.T) {
	scope := testsetup.NewTestScope()
	mm, st := newTestMatchmaker(&config.Config{}, nil)
	game := createTestGame(t, st, scope)

	_, err := mm.ReportWin(scope, game.Participants[0].PlayerID, "server-1")
	require.NoError(t, err)

	err = mm.CancelGame(scope, game.ID)
	assert.ErrorIs(t, err, models.ErrGameAlreadyScored)
}

func TestCancelGame_missing(t *testing.T) {
	scope := testsetup.NewTestScope()
	mm, _ := newTestMatchmaker(&config.Config{}, nil)

	err := mm.CancelGame(scope, "nope")
	assert.ErrorIs(t, err, models.ErrGameNotFound)
}
