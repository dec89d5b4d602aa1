// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package gormstore

import (
	"time"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
)

// playerRow mirrors one known player of a server.
type playerRow struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	ServerID  string `gorm:"index;type:varchar(64)"`
	Name      string
	UpdatedAt time.Time
}

func (playerRow) TableName() string { return "players" }

// queueEntryRow is one queued (channel, player, role) slot.
type queueEntryRow struct {
	ChannelID    string `gorm:"primaryKey;type:varchar(64)"`
	PlayerID     string `gorm:"primaryKey;type:varchar(64)"`
	Role         string `gorm:"primaryKey;type:varchar(8)"`
	ServerID     string `gorm:"index;type:varchar(64)"`
	PlayerName   string
	QueueTime    time.Time `gorm:"index"`
	DuoPlayerID  string    `gorm:"type:varchar(64)"`
	DuoRole      string    `gorm:"type:varchar(8)"`
	ReadyCheckID string    `gorm:"index;type:varchar(64)"`
}

func (queueEntryRow) TableName() string { return "queue_players" }

// gameRow is one 10-player match; Winner stays empty until scored.
type gameRow struct {
	ID                 string `gorm:"primaryKey;type:varchar(64)"`
	ServerID           string `gorm:"index;type:varchar(64)"`
	Start              time.Time
	BlueWinProbability float64
	Winner             string           `gorm:"type:varchar(8)"`
	Participants       []participantRow `gorm:"foreignKey:GameID"`
	CreatedAt          time.Time        `gorm:"autoCreateTime;index"`
}

func (gameRow) TableName() string { return "games" }

// participantRow freezes one player slot with the pre-game rating.
type participantRow struct {
	GameID   string `gorm:"primaryKey;type:varchar(64)"`
	PlayerID string `gorm:"primaryKey;index;type:varchar(64)"`
	Name     string
	Side     string `gorm:"type:varchar(8)"`
	Role     string `gorm:"type:varchar(8)"`
	Mu       float64
	Sigma    float64
}

func (participantRow) TableName() string { return "game_participants" }

// ratingRow is the current per-role skill estimate of a player.
type ratingRow struct {
	PlayerID  string `gorm:"primaryKey;type:varchar(64)"`
	Role      string `gorm:"primaryKey;type:varchar(8)"`
	Mu        float64
	Sigma     float64
	UpdatedAt time.Time
}

func (ratingRow) TableName() string { return "player_ratings" }

func toEntryRow(e models.QueueEntry) queueEntryRow {
	return queueEntryRow{
		ChannelID:    e.ChannelID,
		PlayerID:     e.PlayerID,
		Role:         string(e.Role),
		ServerID:     e.ServerID,
		PlayerName:   e.PlayerName,
		QueueTime:    e.QueueTime,
		DuoPlayerID:  e.DuoPlayerID,
		DuoRole:      string(e.DuoRole),
		ReadyCheckID: e.ReadyCheckID,
	}
}

func fromEntryRow(r queueEntryRow) models.QueueEntry {
	return models.QueueEntry{
		ChannelID:    r.ChannelID,
		ServerID:     r.ServerID,
		PlayerID:     r.PlayerID,
		PlayerName:   r.PlayerName,
		Role:         models.Role(r.Role),
		QueueTime:    r.QueueTime,
		DuoPlayerID:  r.DuoPlayerID,
		DuoRole:      models.Role(r.DuoRole),
		ReadyCheckID: r.ReadyCheckID,
	}
}

func toGameRow(g models.Game) gameRow {
	row := gameRow{
		ID:                 g.ID,
		ServerID:           g.ServerID,
		Start:              g.Start,
		BlueWinProbability: g.BlueWinProbability,
		Winner:             string(g.Winner),
	}
	for _, p := range g.Participants {
		row.Participants = append(row.Participants, participantRow{
			GameID:   g.ID,
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Side:     string(p.Side),
			Role:     string(p.Role),
			Mu:       p.Mu,
			Sigma:    p.Sigma,
		})
	}
	return row
}

func fromGameRow(r gameRow) models.Game {
	game := models.Game{
		ID:                 r.ID,
		ServerID:           r.ServerID,
		Start:              r.Start,
		BlueWinProbability: r.BlueWinProbability,
		Winner:             models.Side(r.Winner),
	}
	for _, p := range r.Participants {
		game.Participants = append(game.Participants, models.GameParticipant{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Side:     models.Side(p.Side),
			Role:     models.Role(p.Role),
			Mu:       p.Mu,
			Sigma:    p.Sigma,
		})
	}
	return game
}
