// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/constants"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
)

func team(mu, sigma float64) []models.Rating {
	side := make([]models.Rating, models.TeamSize)
	for i, role := range models.Roles {
		side[i] = models.Rating{PlayerID: "p", Role: role, Mu: mu, Sigma: sigma}
	}
	return side
}

func TestWinProbability(t *testing.T) {
	tests := []struct {
		name string
		blue []models.Rating
		red  []models.Rating
		want float64
	}{
		{
			name: "identical teams are a coin flip",
			blue: team(constants.DefaultMu, constants.DefaultSigma),
			red:  team(constants.DefaultMu, constants.DefaultSigma),
			want: 0.5,
		},
		{
			name: "stronger blue side is favored",
			blue: team(30, 2),
			red:  team(25, 2),
			want: 0.9, // well above a coin flip, exact value checked below
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WinProbability(tt.blue, tt.red, constants.DefaultBeta)
			if tt.want == 0.5 {
				assert.InDelta(t, 0.5, got, 1e-9)
			} else {
				assert.Greater(t, got, tt.want)
				assert.Less(t, got, 1.0)
			}
		})
	}
}

func TestWinProbability_symmetry(t *testing.T) {
	blue := []models.Rating{
		{Mu: 28, Sigma: 3}, {Mu: 21, Sigma: 8}, {Mu: 25, Sigma: 8.33},
		{Mu: 31, Sigma: 1.2}, {Mu: 19, Sigma: 5},
	}
	red := []models.Rating{
		{Mu: 25, Sigma: 8.33}, {Mu: 25, Sigma: 8.33}, {Mu: 27, Sigma: 2},
		{Mu: 23, Sigma: 4}, {Mu: 26, Sigma: 6},
	}

	forward := WinProbability(blue, red, constants.DefaultBeta)
	backward := WinProbability(red, blue, constants.DefaultBeta)
	assert.InDelta(t, 1.0, forward+backward, 1e-9)
}

func TestWinProbability_uncertaintyDampens(t *testing.T) {
	// the same mu edge should look less decisive when sigma is high
	confident := WinProbability(team(28, 1), team(25, 1), constants.DefaultBeta)
	uncertain := WinProbability(team(28, constants.DefaultSigma), team(25, constants.DefaultSigma), constants.DefaultBeta)

	assert.Greater(t, confident, uncertain)
	assert.Greater(t, uncertain, 0.5)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name   string
		winner models.Side
	}{
		{name: "blue wins", winner: models.SideBlue},
		{name: "red wins", winner: models.SideRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blue := team(constants.DefaultMu, constants.DefaultSigma)
			red := team(constants.DefaultMu, constants.DefaultSigma)

			newBlue, newRed := Update(blue, red, tt.winner, constants.SigmaFloor)

			winners, losers := newBlue, newRed
			if tt.winner == models.SideRed {
				winners, losers = newRed, newBlue
			}
			for i := range winners {
				assert.Greater(t, winners[i].Mu, constants.DefaultMu)
				assert.Less(t, losers[i].Mu, constants.DefaultMu)
			}
		})
	}
}

func TestUpdate_sigmaNeverIncreases(t *testing.T) {
	blue := team(25, 4)
	red := team(25, 4)

	newBlue, newRed := Update(blue, red, models.SideBlue, constants.SigmaFloor)

	for _, side := range [][]models.Rating{newBlue, newRed} {
		for _, r := range side {
			assert.LessOrEqual(t, r.Sigma, 4.0)
			assert.GreaterOrEqual(t, r.Sigma, constants.SigmaFloor)
		}
	}
}

func TestUpdate_sigmaFloor(t *testing.T) {
	// a veteran at the floor stays at the floor
	blue := team(27, 0.5)
	red := team(25, 0.5)

	newBlue, _ := Update(blue, red, models.SideBlue, 0.5)

	for _, r := range newBlue {
		assert.GreaterOrEqual(t, r.Sigma, 0.5)
	}
}

func TestUpdate_preservesIdentity(t *testing.T) {
	blue := team(25, 8)
	red := team(25, 8)

	newBlue, newRed := Update(blue, red, models.SideRed, constants.SigmaFloor)

	for i := range blue {
		assert.Equal(t, blue[i].PlayerID, newBlue[i].PlayerID)
		assert.Equal(t, blue[i].Role, newBlue[i].Role)
		assert.Equal(t, red[i].Role, newRed[i].Role)
	}
}

func TestUpdate_upsetMovesMore(t *testing.T) {
	// an expected win barely moves ratings, an upset moves them further
	favBlue, _ := Update(team(30, 2), team(20, 2), models.SideBlue, constants.SigmaFloor)
	upsBlue, _ := Update(team(20, 2), team(30, 2), models.SideBlue, constants.SigmaFloor)

	expectedGain := favBlue[0].Mu - 30
	upsetGain := upsBlue[0].Mu - 20
	assert.Greater(t, upsetGain, expectedGain)
}

func TestNew(t *testing.T) {
	r := New("p1", models.RoleJgl)
	assert.Equal(t, "p1", r.PlayerID)
	assert.Equal(t, models.RoleJgl, r.Role)
	assert.Equal(t, constants.DefaultMu, r.Mu)
	assert.Equal(t, constants.DefaultSigma, r.Sigma)
	assert.InDelta(t, 500.0, r.MMR(), 1e-9)
}
