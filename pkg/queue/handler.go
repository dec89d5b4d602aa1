// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package queue

import (
	"fmt"
	"time"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/config"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/store"
)

// Now is the handler clock, overridable in tests.
var Now = time.Now

// Handler implements the queue mutation operations the host command layer
// calls. All state lives in the host store; the handler only enforces the
// guards around it.
type Handler struct {
	store store.Store
	cfg   *config.Config
}

func NewHandler(st store.Store, cfg *config.Config) *Handler {
	return &Handler{store: st, cfg: cfg}
}

// IsInReadyCheck reports whether any of the player's entries, in any
// channel, is locked into an active ready check.
func (h *Handler) IsInReadyCheck(scope *envelope.Scope, playerID string) (bool, error) {
	entries, err := h.store.ListPlayerEntries(scope, playerID)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.ReadyCheckID != "" {
			return true, nil
		}
	}
	return false, nil
}

// Enqueue adds the player to the channel queue for the role.
//
// It fails with models.ErrPlayerInUnscoredGame while the player's last game
// on the server has no winner, and with models.ErrPlayerInReadyCheck while
// the player is locked into a ready check anywhere. Re-enqueuing an
// existing (channel, player, role) entry refreshes its queue time and keeps
// its duo link. jumpAhead backdates the entry so returning players go to
// the front.
func (h *Handler) Enqueue(scope *envelope.Scope, player models.Player, role models.Role, channelID string, jumpAhead bool) error {
	if !role.IsValid() {
		return fmt.Errorf("enqueue %q as %q: %w", player.ID, role, models.ErrInvalidRole)
	}

	if err := h.checkCanQueue(scope, player.ID, player.ServerID); err != nil {
		return err
	}

	// also refreshes name changes
	if err := h.store.UpsertPlayer(scope, player); err != nil {
		return err
	}

	queueTime := Now()
	if jumpAhead {
		queueTime = queueTime.Add(-h.cfg.JumpAheadOffset())
	}

	entry := models.QueueEntry{
		ChannelID:  channelID,
		ServerID:   player.ServerID,
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Role:       role,
		QueueTime:  queueTime,
	}

	// keep the duo link when the player refreshes an existing entry
	if existing, ok, err := h.findEntry(scope, channelID, player.ID, role); err != nil {
		return err
	} else if ok {
		entry.DuoPlayerID = existing.DuoPlayerID
		entry.DuoRole = existing.DuoRole
	}

	return h.store.UpsertQueueEntry(scope, entry)
}

func (h *Handler) checkCanQueue(scope *envelope.Scope, playerID, serverID string) error {
	game, _, err := h.store.GetLastGame(scope, playerID, serverID)
	if err != nil {
		return err
	}
	if game != nil && !game.IsScored() {
		return fmt.Errorf("player %q: %w", playerID, models.ErrPlayerInUnscoredGame)
	}

	inReadyCheck, err := h.IsInReadyCheck(scope, playerID)
	if err != nil {
		return err
	}
	if inReadyCheck {
		return fmt.Errorf("player %q: %w", playerID, models.ErrPlayerInReadyCheck)
	}
	return nil
}

func (h *Handler) findEntry(scope *envelope.Scope, channelID, playerID string, role models.Role) (models.QueueEntry, bool, error) {
	entries, err := h.store.ListPlayerEntries(scope, playerID)
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	for _, e := range entries {
		if e.ChannelID == channelID && e.Role == role {
			return e, true, nil
		}
	}
	return models.QueueEntry{}, false, nil
}

// Dequeue removes the player from all roles in the channel, or from every
// queue everywhere when channelID is empty (admin reset path, which also
// bypasses the ready-check guard).
func (h *Handler) Dequeue(scope *envelope.Scope, playerID, channelID string) error {
	if channelID != "" {
		inReadyCheck, err := h.IsInReadyCheck(scope, playerID)
		if err != nil {
			return err
		}
		if inReadyCheck {
			return fmt.Errorf("player %q: %w", playerID, models.ErrPlayerInReadyCheck)
		}
	}

	_, err := h.store.DeleteQueueEntries(scope, store.QueueEntryFilter{
		ChannelID: channelID,
		PlayerIDs: []string{playerID},
	})
	return err
}

// RemovePlayers drops the given players from the channel queue without any
// guard, used when a game starts.
func (h *Handler) RemovePlayers(scope *envelope.Scope, playerIDs []string, channelID string) error {
	_, err := h.store.DeleteQueueEntries(scope, store.QueueEntryFilter{
		ChannelID: channelID,
		PlayerIDs: playerIDs,
	})
	return err
}

// Reset clears the channel queue, or every queue when channelID is empty.
func (h *Handler) Reset(scope *envelope.Scope, channelID string) error {
	_, err := h.store.DeleteQueueEntries(scope, store.QueueEntryFilter{ChannelID: channelID})
	return err
}

// LinkDuo queues both players for their roles in the channel and links
// their entries symmetrically. Fails with models.ErrSameRoleDuo before any
// mutation when both picked the same role; the enqueue guards are also
// checked for both players up front so a rejection leaves the queue
// untouched.
func (h *Handler) LinkDuo(scope *envelope.Scope, first, second models.Player, firstRole, secondRole models.Role, channelID string, jumpAhead bool) error {
	if firstRole == secondRole {
		return fmt.Errorf("%q + %q: %w", first.ID, second.ID, models.ErrSameRoleDuo)
	}
	if !firstRole.IsValid() || !secondRole.IsValid() {
		return models.ErrInvalidRole
	}

	if err := h.checkCanQueue(scope, first.ID, first.ServerID); err != nil {
		return err
	}
	if err := h.checkCanQueue(scope, second.ID, second.ServerID); err != nil {
		return err
	}

	// drop any previous entries of the pair in this channel first
	if err := h.RemovePlayers(scope, []string{first.ID, second.ID}, channelID); err != nil {
		return err
	}

	if err := h.Enqueue(scope, first, firstRole, channelID, jumpAhead); err != nil {
		return err
	}
	if err := h.Enqueue(scope, second, secondRole, channelID, jumpAhead); err != nil {
		return err
	}

	firstEntry, ok, err := h.findEntry(scope, channelID, first.ID, firstRole)
	if err != nil || !ok {
		return firstOf(err, models.ErrEntryNotFound)
	}
	secondEntry, ok, err := h.findEntry(scope, channelID, second.ID, secondRole)
	if err != nil || !ok {
		return firstOf(err, models.ErrEntryNotFound)
	}

	firstEntry.DuoPlayerID, firstEntry.DuoRole = second.ID, secondRole
	secondEntry.DuoPlayerID, secondEntry.DuoRole = first.ID, firstRole

	if err := h.store.UpsertQueueEntry(scope, firstEntry); err != nil {
		return err
	}
	return h.store.UpsertQueueEntry(scope, secondEntry)
}

// RemoveDuo clears duo links involving the player for all roles in the
// channel, in both directions.
func (h *Handler) RemoveDuo(scope *envelope.Scope, playerID, channelID string) error {
	entries, err := h.store.ListQueueEntries(scope, channelID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.PlayerID != playerID && e.DuoPlayerID != playerID {
			continue
		}
		if !e.HasDuo() {
			continue
		}
		e.DuoPlayerID, e.DuoRole = "", ""
		if err := h.store.UpsertQueueEntry(scope, e); err != nil {
			return err
		}
	}
	return nil
}

// StartReadyCheck locks the 10 proposed players' channel entries to the
// ready check id so they are excluded from further matching rounds.
func (h *Handler) StartReadyCheck(scope *envelope.Scope, playerIDs []string, channelID, readyCheckID string) error {
	if len(playerIDs) != models.GameSize {
		return fmt.Errorf("ready check needs %d players, got %d: %w", models.GameSize, len(playerIDs), models.ErrIncompleteTeams)
	}
	return h.store.SetReadyCheckID(scope, channelID, playerIDs, readyCheckID)
}

// ValidateReadyCheck consumes the accepted game's queue entries: all 10
// players are dropped from every queue on the server.
func (h *Handler) ValidateReadyCheck(scope *envelope.Scope, readyCheckID string, playerIDs []string, serverID string) error {
	if err := h.store.ClearReadyCheckID(scope, readyCheckID); err != nil {
		return err
	}
	_, err := h.store.DeleteQueueEntries(scope, store.QueueEntryFilter{
		ServerID:  serverID,
		PlayerIDs: playerIDs,
	})
	return err
}

// CancelReadyCheck releases every entry locked to the ready check, keeping
// their original queue times, then drops idsToDrop: channel-scoped for a
// decline, server-scoped for a timeout. Exactly one scope may be set.
func (h *Handler) CancelReadyCheck(scope *envelope.Scope, readyCheckID string, idsToDrop []string, channelID, serverID string) error {
	if channelID != "" && serverID != "" {
		return fmt.Errorf("cancel ready check %q: channel and server scope are mutually exclusive", readyCheckID)
	}

	if err := h.store.ClearReadyCheckID(scope, readyCheckID); err != nil {
		return err
	}

	if len(idsToDrop) == 0 {
		return nil
	}
	_, err := h.store.DeleteQueueEntries(scope, store.QueueEntryFilter{
		ChannelID: channelID,
		ServerID:  serverID,
		PlayerIDs: idsToDrop,
	})
	return err
}

// CancelAllReadyChecks releases every locked entry, used when the host
// restarts with ready checks dangling.
func (h *Handler) CancelAllReadyChecks(scope *envelope.Scope) error {
	return h.store.ClearAllReadyChecks(scope)
}

// ActiveChannels lists channels with at least one queued player.
func (h *Handler) ActiveChannels(scope *envelope.Scope) ([]string, error) {
	return h.store.ActiveChannels(scope)
}

func firstOf(err error, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}
