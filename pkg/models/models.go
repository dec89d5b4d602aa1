// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/copystructure"
	"github.com/sirupsen/logrus"
)

// GameSize is the number of players in a full game, TeamSize per side.
const (
	GameSize = 10
	TeamSize = 5
)

// Player is a member of one server, identified by the host platform's id.
type Player struct {
	ID       string `json:"id"`
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
}

// ShortName truncates the player name for display layers.
func (p Player) ShortName() string {
	if len(p.Name) > 15 {
		return p.Name[:15]
	}
	return p.Name
}

// Rating is a player's skill estimate for a single role, modelled as a
// normal distribution with mean Mu and standard deviation Sigma.
type Rating struct {
	PlayerID string  `json:"player_id"`
	Role     Role    `json:"role"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma"`
}

// MMR is the conservative display rating used by the stats layer.
func (r Rating) MMR() float64 {
	return 20 * (r.Mu - 3*r.Sigma + 25)
}

// QueueEntry is one player waiting for one role in one channel's queue.
// A player may hold entries for several roles in the same channel.
type QueueEntry struct {
	ChannelID  string    `json:"channel_id"`
	ServerID   string    `json:"server_id"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Role       Role      `json:"role"`
	QueueTime  time.Time `json:"queue_time"`

	// DuoPlayerID/DuoRole reference the symmetric duo partner's entry,
	// empty when the entry is solo.
	DuoPlayerID string `json:"duo_player_id,omitempty"`
	DuoRole     Role   `json:"duo_role,omitempty"`

	// ReadyCheckID is non-empty while the entry is locked into an active
	// ready check. Locked entries are excluded from new matching rounds.
	ReadyCheckID string `json:"ready_check_id,omitempty"`
}

// HasDuo reports whether the entry is linked to a partner entry.
func (e QueueEntry) HasDuo() bool {
	return e.DuoPlayerID != ""
}

// Key identifies the entry within its channel. Entries are unique per
// (channel, player, role).
func (e QueueEntry) Key() string {
	return fmt.Sprintf("%s/%s/%s", e.ChannelID, e.PlayerID, e.Role)
}

func (e QueueEntry) String() string {
	return fmt.Sprintf("%s - %s", e.PlayerName, e.Role)
}

// GameParticipant is one player slot of a game, frozen with the rating the
// player had when the game was proposed.
type GameParticipant struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Side     Side    `json:"side"`
	Role     Role    `json:"role"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma"`
}

// Rating rebuilds the pre-game rating object for this participant.
func (p GameParticipant) Rating() Rating {
	return Rating{PlayerID: p.PlayerID, Role: p.Role, Mu: p.Mu, Sigma: p.Sigma}
}

// MMR is the conservative display rating at the time the game started.
func (p GameParticipant) MMR() float64 {
	return 20 * (p.Mu - 3*p.Sigma + 25)
}

// Game is a 10-player match. Winner stays empty until the game is scored
// through ReportWin; once set it is immutable except through CancelGame.
type Game struct {
	ID                 string            `json:"id"`
	ServerID           string            `json:"server_id"`
	Start              time.Time         `json:"start"`
	BlueWinProbability float64           `json:"blue_win_probability"`
	Winner             Side              `json:"winner,omitempty"`
	Participants       []GameParticipant `json:"participants"`
}

// Team returns the participants of one side, in role order.
func (g Game) Team(side Side) []GameParticipant {
	team := make([]GameParticipant, 0, TeamSize)
	for _, role := range Roles {
		for _, p := range g.Participants {
			if p.Side == side && p.Role == role {
				team = append(team, p)
			}
		}
	}
	return team
}

// PlayerIDs lists the ids of all 10 participants.
func (g Game) PlayerIDs() []string {
	ids := make([]string, 0, len(g.Participants))
	for _, p := range g.Participants {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

// Participant returns the slot of the given player, or nil.
func (g Game) Participant(playerID string) *GameParticipant {
	for i := range g.Participants {
		if g.Participants[i].PlayerID == playerID {
			return &g.Participants[i]
		}
	}
	return nil
}

// IsScored reports whether a winner has been recorded.
func (g Game) IsScored() bool {
	return g.Winner != ""
}

// MatchmakingScore is the distance of the predicted blue winrate from a
// coin flip. Lower is more balanced.
func (g Game) MatchmakingScore() float64 {
	score := 0.5 - g.BlueWinProbability
	if score < 0 {
		score = -score
	}
	return score
}

// Copy returns a deep copy of the game.
func (g Game) Copy() Game {
	copied, err := copystructure.Copy(g)
	if err != nil {
		logrus.Warn("failed to copy game:", err)
	}
	gameCopy, _ := copied.(Game)
	return gameCopy
}

// CandidateGame is a proposed 10-player split produced by the team search.
// It becomes a durable Game only once its ready check is accepted.
type CandidateGame struct {
	ServerID           string
	ChannelID          string
	BlueWinProbability float64

	// Participants hold one entry per (side, role) slot; duo-linked players
	// are always on the same side.
	Participants []GameParticipant

	// Entries are the queue entries the split was built from, used to lock
	// and release the queue around the ready check.
	Entries []QueueEntry
}

// MatchmakingScore mirrors Game.MatchmakingScore for the candidate.
func (c CandidateGame) MatchmakingScore() float64 {
	score := 0.5 - c.BlueWinProbability
	if score < 0 {
		score = -score
	}
	return score
}

// PlayerIDs lists the ids of the 10 proposed players.
func (c CandidateGame) PlayerIDs() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

// ToGame freezes the candidate into an unscored Game record.
func (c CandidateGame) ToGame(start time.Time) Game {
	participants := make([]GameParticipant, len(c.Participants))
	copy(participants, c.Participants)
	return Game{
		ServerID:           c.ServerID,
		Start:              start,
		BlueWinProbability: c.BlueWinProbability,
		Participants:       participants,
	}
}
