// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

// Package rating implements the skill model: a TrueSkill-compatible
// per-role rating, a closed-form win-probability estimate for a proposed
// 5v5 split, and the post-game update applied once a winner is known.
package rating

import (
	"math"

	openskill "github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/constants"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/mathutil"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
)

// New returns the default rating for a player who has never played the role.
func New(playerID string, role models.Role) models.Rating {
	return models.Rating{
		PlayerID: playerID,
		Role:     role,
		Mu:       constants.DefaultMu,
		Sigma:    constants.DefaultSigma,
	}
}

// WinProbability estimates the chance that blue beats red.
//
// Each side's aggregate skill is Normal(sum mu, sum sigma^2); beta adds the
// per-player performance variance of a single game. The estimate is
// Phi(deltaMu / sqrt(size*beta^2 + sum sigma^2)) and is symmetric:
// WinProbability(red, blue) == 1 - WinProbability(blue, red).
func WinProbability(blue, red []models.Rating, beta float64) float64 {
	if beta <= 0 {
		beta = constants.DefaultBeta
	}

	var deltaMu, sumSigmaSquared float64
	for _, r := range blue {
		deltaMu += r.Mu
		sumSigmaSquared += r.Sigma * r.Sigma
	}
	for _, r := range red {
		deltaMu -= r.Mu
		sumSigmaSquared += r.Sigma * r.Sigma
	}

	size := float64(len(blue) + len(red))
	denominator := math.Sqrt(size*beta*beta + sumSigmaSquared)

	return distuv.UnitNormal.CDF(deltaMu / denominator)
}

// Update returns the post-game ratings for both sides, winners listed by
// the winner argument. The underlying openskill update moves winners' mu up
// and losers' mu down, scaled by how surprising the result was. Sigma never
// increases and never drops below sigmaFloor.
//
// Applying Update twice for the same game is a caller error; the scheduler
// guards against double scoring.
func Update(blue, red []models.Rating, winner models.Side, sigmaFloor float64) (newBlue, newRed []models.Rating) {
	if sigmaFloor <= 0 {
		sigmaFloor = constants.SigmaFloor
	}

	first, second := blue, red
	if winner == models.SideRed {
		first, second = red, blue
	}

	teams := []types.Team{toTeam(first), toTeam(second)}
	rated := openskill.Rate(teams, &types.OpenSkillOptions{})

	first = fromTeam(first, rated[0], sigmaFloor)
	second = fromTeam(second, rated[1], sigmaFloor)

	if winner == models.SideRed {
		return second, first
	}
	return first, second
}

func toTeam(side []models.Rating) types.Team {
	team := make(types.Team, 0, len(side))
	for _, r := range side {
		team = append(team, types.Rating{Mu: r.Mu, Sigma: r.Sigma})
	}
	return team
}

func fromTeam(side []models.Rating, rated types.Team, sigmaFloor float64) []models.Rating {
	updated := make([]models.Rating, len(side))
	for i, r := range side {
		r.Mu = rated[i].Mu
		// the update is meant to only ever gain information
		r.Sigma = mathutil.Clamp(rated[i].Sigma, sigmaFloor, side[i].Sigma)
		updated[i] = r
	}
	return updated
}
