// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"fmt"

	pie "github.com/elliotchance/pie/v2"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/rating"
)

// ReportWin scores the reporting player's most recent game on the server as
// a win for that player's side, then applies the rating update to all 10
// participants from the ratings they had when the game started.
//
// The winner is recorded before the ratings move, so a crash between the
// two leaves a scored game rather than a replayable one; a second report
// for the same game fails with models.ErrGameAlreadyScored.
func (m *Matchmaker) ReportWin(rootScope *envelope.Scope, playerID, serverID string) (models.Game, error) {
	scope := rootScope.NewChildScope("Matchmaker.ReportWin")
	defer scope.Finish()
	scope.SetAttributes(envelope.ServerTag, serverID)

	game, participant, err := m.store.GetLastGame(scope, playerID, serverID)
	if err != nil {
		return models.Game{}, fmt.Errorf("get last game: %w", err)
	}
	if game == nil || participant == nil {
		return models.Game{}, fmt.Errorf("player %q has no game on record: %w", playerID, models.ErrGameNotFound)
	}
	if game.IsScored() {
		return models.Game{}, fmt.Errorf("game %s: %w", game.ID, models.ErrGameAlreadyScored)
	}

	winner := participant.Side
	scope.SetAttributes(envelope.GameTag, game.ID)

	if err := m.store.SetWinner(scope, game.ID, winner); err != nil {
		return models.Game{}, fmt.Errorf("set winner: %w", err)
	}
	game.Winner = winner

	if err := m.applyRatingUpdate(scope, *game); err != nil {
		return models.Game{}, err
	}

	scope.Log.Infof("game %s scored, %s side wins (expected blue winrate was %.1f%%)",
		game.ID, winner, game.BlueWinProbability*100)
	return *game, nil
}

// CancelGame discards an unscored game so its result is never applied, for
// games that were remade or abandoned.
func (m *Matchmaker) CancelGame(rootScope *envelope.Scope, gameID string) error {
	scope := rootScope.NewChildScope("Matchmaker.CancelGame")
	defer scope.Finish()
	scope.SetAttributes(envelope.GameTag, gameID)

	game, err := m.store.GetGame(scope, gameID)
	if err != nil {
		return fmt.Errorf("get game: %w", err)
	}
	if game.IsScored() {
		return fmt.Errorf("game %s: %w", gameID, models.ErrGameAlreadyScored)
	}

	if err := m.store.DeleteGame(scope, gameID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	scope.Log.Infof("game %s cancelled", gameID)
	return nil
}

// LastGame returns the player's most recent game on the server, for result
// commands that want to show what would be scored.
func (m *Matchmaker) LastGame(scope *envelope.Scope, playerID, serverID string) (*models.Game, error) {
	game, _, err := m.store.GetLastGame(scope, playerID, serverID)
	return game, err
}

// applyRatingUpdate recomputes and saves every participant's rating from
// the pre-game snapshot frozen in the game record.
func (m *Matchmaker) applyRatingUpdate(scope *envelope.Scope, game models.Game) error {
	ratingsOf := func(side models.Side) []models.Rating {
		return pie.Map(game.Team(side), func(p models.GameParticipant) models.Rating {
			return p.Rating()
		})
	}

	blue, red := rating.Update(
		ratingsOf(models.SideBlue),
		ratingsOf(models.SideRed),
		game.Winner,
		m.cfg.RatingSigmaFloor(),
	)

	for _, updated := range append(blue, red...) {
		if err := m.store.SaveRating(scope, updated); err != nil {
			return fmt.Errorf("save rating for %s/%s: %w", updated.PlayerID, updated.Role, err)
		}
	}
	return nil
}
