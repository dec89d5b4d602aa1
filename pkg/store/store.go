// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

// Package store defines the persistence boundary the matchmaking core
// depends on. The host owns the data; the core only reads and writes it
// through this interface, and relies on the store's transaction discipline
// as its only cross-loop synchronization point.
package store

import (
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/common"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
)

// QueueEntryFilter selects queue entries for deletion. Zero fields are
// ignored; set fields are combined with AND.
type QueueEntryFilter struct {
	ChannelID    string
	ServerID     string
	PlayerIDs    []string
	ReadyCheckID string
}

// Matches reports whether the entry satisfies every set field.
func (f QueueEntryFilter) Matches(e models.QueueEntry) bool {
	if f.ChannelID != "" && e.ChannelID != f.ChannelID {
		return false
	}
	if f.ServerID != "" && e.ServerID != f.ServerID {
		return false
	}
	if f.ReadyCheckID != "" && e.ReadyCheckID != f.ReadyCheckID {
		return false
	}
	if len(f.PlayerIDs) > 0 && !common.Contains(f.PlayerIDs, e.PlayerID) {
		return false
	}
	return true
}

// Store is the host persistence collaborator.
//
// Implementations must be safe for concurrent use: per-channel scheduler
// loops and queue mutation calls may hit it at the same time.
type Store interface {
	// ListQueueEntries returns every entry of the channel, including ones
	// locked into a ready check.
	ListQueueEntries(scope *envelope.Scope, channelID string) ([]models.QueueEntry, error)

	// ListPlayerEntries returns every entry of the player across channels.
	ListPlayerEntries(scope *envelope.Scope, playerID string) ([]models.QueueEntry, error)

	// UpsertQueueEntry inserts the entry or replaces the existing one with
	// the same (channel, player, role) key.
	UpsertQueueEntry(scope *envelope.Scope, entry models.QueueEntry) error

	// DeleteQueueEntries removes all entries matching the filter and clears
	// any duo link pointing at a removed entry. Returns the removed count.
	DeleteQueueEntries(scope *envelope.Scope, filter QueueEntryFilter) (int, error)

	// SetReadyCheckID locks the given players' entries in the channel to a
	// ready check; empty readyCheckID releases them without changing their
	// queue times.
	SetReadyCheckID(scope *envelope.Scope, channelID string, playerIDs []string, readyCheckID string) error

	// ClearReadyCheckID releases every entry locked to the ready check.
	ClearReadyCheckID(scope *envelope.Scope, readyCheckID string) error

	// ClearAllReadyChecks releases every locked entry, used on host restart.
	ClearAllReadyChecks(scope *envelope.Scope) error

	// ActiveChannels lists the channels that currently have queued players.
	ActiveChannels(scope *envelope.Scope) ([]string, error)

	// UpsertPlayer records the player, also refreshing name changes.
	UpsertPlayer(scope *envelope.Scope, player models.Player) error

	// GetRating returns the player's rating for the role, creating and
	// persisting the default rating if none exists yet.
	GetRating(scope *envelope.Scope, playerID string, role models.Role) (models.Rating, error)

	// SaveRating persists an updated rating.
	SaveRating(scope *envelope.Scope, rating models.Rating) error

	// CreateGame persists an unscored game and returns its id.
	CreateGame(scope *envelope.Scope, game models.Game) (string, error)

	// GetGame returns the game by id, models.ErrGameNotFound if missing.
	GetGame(scope *envelope.Scope, gameID string) (models.Game, error)

	// DeleteGame discards a game record, models.ErrGameNotFound if missing.
	DeleteGame(scope *envelope.Scope, gameID string) error

	// SetWinner records the result of a game. Fails with
	// models.ErrGameAlreadyScored if a winner is already set.
	SetWinner(scope *envelope.Scope, gameID string, winner models.Side) error

	// GetLastGame returns the most recent game the player took part in on
	// the server and the player's participant slot, or nil, nil when the
	// player never played.
	GetLastGame(scope *envelope.Scope, playerID, serverID string) (*models.Game, *models.GameParticipant, error)
}
