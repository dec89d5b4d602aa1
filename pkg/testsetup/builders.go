// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"fmt"
	"time"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
)

// Player builds a test player on the given server.
func Player(id, serverID string) models.Player {
	return models.Player{ID: id, ServerID: serverID, Name: "player-" + id}
}

// Entry builds a solo queue entry.
func Entry(channelID, serverID, playerID string, role models.Role, queueTime time.Time) models.QueueEntry {
	return models.QueueEntry{
		ChannelID:  channelID,
		ServerID:   serverID,
		PlayerID:   playerID,
		PlayerName: "player-" + playerID,
		Role:       role,
		QueueTime:  queueTime,
	}
}

// FullQueue builds a queue with exactly two players per role, queued one
// second apart in deterministic order, enough for exactly one game.
func FullQueue(channelID, serverID string, base time.Time) []models.QueueEntry {
	var entries []models.QueueEntry
	i := 0
	for _, role := range models.Roles {
		for n := 0; n < 2; n++ {
			playerID := fmt.Sprintf("p%02d", i)
			entries = append(entries, Entry(channelID, serverID, playerID, role, base.Add(time.Duration(i)*time.Second)))
			i++
		}
	}
	return entries
}
