// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

// Package memstore is the in-memory store.Store, used by tests and by
// hosts that don't need matchmaking state to survive a restart.
package memstore

import (
	"fmt"
	"sync"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/common"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/rating"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/store"
)

type ratingKey struct {
	playerID string
	role     models.Role
}

// Store keeps everything in maps under one mutex. Games are deep-copied on
// the way out so callers can't mutate participants behind the lock; queue
// entries are plain value types and copy by assignment.
type Store struct {
	mu      sync.Mutex
	players map[string]models.Player
	entries map[string]models.QueueEntry
	ratings map[ratingKey]models.Rating
	games   map[string]models.Game

	// gameSeq orders games by creation so GetLastGame doesn't depend on
	// start-time resolution.
	gameSeq map[string]int
	nextSeq int
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		players: make(map[string]models.Player),
		entries: make(map[string]models.QueueEntry),
		ratings: make(map[ratingKey]models.Rating),
		games:   make(map[string]models.Game),
		gameSeq: make(map[string]int),
	}
}

func (s *Store) ListQueueEntries(_ *envelope.Scope, channelID string) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.QueueEntry
	for _, e := range s.entries {
		if e.ChannelID == channelID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListPlayerEntries(_ *envelope.Scope, playerID string) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.QueueEntry
	for _, e := range s.entries {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) UpsertQueueEntry(_ *envelope.Scope, entry models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Key()] = entry
	return nil
}

func (s *Store) DeleteQueueEntries(_ *envelope.Scope, filter store.QueueEntryFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	removed := make(map[string]bool)
	for key, e := range s.entries {
		if filter.Matches(e) {
			count++
			removed[e.PlayerID] = true
			delete(s.entries, key)
		}
	}

	// a duo link pointing at a removed entry is dangling, clear it
	for key, e := range s.entries {
		if e.HasDuo() && removed[e.DuoPlayerID] {
			if _, stillQueued := s.entries[models.QueueEntry{
				ChannelID: e.ChannelID,
				PlayerID:  e.DuoPlayerID,
				Role:      e.DuoRole,
			}.Key()]; !stillQueued {
				e.DuoPlayerID, e.DuoRole = "", ""
				s.entries[key] = e
			}
		}
	}

	return count, nil
}

func (s *Store) SetReadyCheckID(_ *envelope.Scope, channelID string, playerIDs []string, readyCheckID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		ids[id] = true
	}
	for key, e := range s.entries {
		if e.ChannelID == channelID && ids[e.PlayerID] {
			e.ReadyCheckID = readyCheckID
			s.entries[key] = e
		}
	}
	return nil
}

func (s *Store) ClearReadyCheckID(_ *envelope.Scope, readyCheckID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if e.ReadyCheckID == readyCheckID {
			e.ReadyCheckID = ""
			s.entries[key] = e
		}
	}
	return nil
}

func (s *Store) ClearAllReadyChecks(_ *envelope.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if e.ReadyCheckID != "" {
			e.ReadyCheckID = ""
			s.entries[key] = e
		}
	}
	return nil
}

func (s *Store) ActiveChannels(_ *envelope.Scope) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var channels []string
	for _, e := range s.entries {
		if !seen[e.ChannelID] {
			seen[e.ChannelID] = true
			channels = append(channels, e.ChannelID)
		}
	}
	return channels, nil
}

func (s *Store) UpsertPlayer(_ *envelope.Scope, player models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.players[player.ID] = player
	return nil
}

func (s *Store) GetRating(_ *envelope.Scope, playerID string, role models.Role) (models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ratingKey{playerID: playerID, role: role}
	if r, ok := s.ratings[key]; ok {
		return r, nil
	}
	r := rating.New(playerID, role)
	s.ratings[key] = r
	return r, nil
}

func (s *Store) SaveRating(_ *envelope.Scope, r models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratings[ratingKey{playerID: r.PlayerID, role: r.Role}] = r
	return nil
}

func (s *Store) CreateGame(_ *envelope.Scope, game models.Game) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game.ID = common.GenerateUUID()
	s.games[game.ID] = game.Copy()
	s.nextSeq++
	s.gameSeq[game.ID] = s.nextSeq
	return game.ID, nil
}

func (s *Store) GetGame(_ *envelope.Scope, gameID string) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[gameID]
	if !ok {
		return models.Game{}, fmt.Errorf("game %q: %w", gameID, models.ErrGameNotFound)
	}
	return game.Copy(), nil
}

func (s *Store) DeleteGame(_ *envelope.Scope, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[gameID]; !ok {
		return fmt.Errorf("game %q: %w", gameID, models.ErrGameNotFound)
	}
	delete(s.games, gameID)
	delete(s.gameSeq, gameID)
	return nil
}

func (s *Store) SetWinner(_ *envelope.Scope, gameID string, winner models.Side) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game %q: %w", gameID, models.ErrGameNotFound)
	}
	if game.IsScored() {
		return fmt.Errorf("game %q: %w", gameID, models.ErrGameAlreadyScored)
	}
	game.Winner = winner
	s.games[gameID] = game
	return nil
}

func (s *Store) GetLastGame(_ *envelope.Scope, playerID, serverID string) (*models.Game, *models.GameParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last models.Game
	lastSeq := 0
	for id, game := range s.games {
		if game.ServerID != serverID {
			continue
		}
		if game.Participant(playerID) == nil {
			continue
		}
		if s.gameSeq[id] > lastSeq {
			lastSeq = s.gameSeq[id]
			last = game
		}
	}
	if lastSeq == 0 {
		return nil, nil, nil
	}

	copied := last.Copy()
	return &copied, copied.Participant(playerID), nil
}
