// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

// Package matchmaker contains the matchmaking core: the combinatorial team
// search, the ready-check state machine and the per-channel scheduler that
// drives both against the host store.
package matchmaker

import (
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
)

// TickKind is the outcome variant of one matchmaking tick.
type TickKind int

const (
	// TickNoGame means the tick found nothing to propose.
	TickNoGame TickKind = iota

	// TickGameRejected means a best split existed but its matchmaking
	// score was at or above the acceptance threshold; BestScore carries it
	// so the host can surface the near-miss.
	TickGameRejected

	// TickGameAccepted means a proposed game passed its ready check and
	// was committed; Game carries the persisted record.
	TickGameAccepted

	// TickGameDeclined means a participant declined the ready check.
	TickGameDeclined

	// TickGameTimedOut means the ready check deadline elapsed (or an
	// internal failure forced the equivalent cleanup); DroppedPlayers
	// lists who was removed from the server's queues.
	TickGameTimedOut
)

func (k TickKind) String() string {
	switch k {
	case TickNoGame:
		return "no_game"
	case TickGameRejected:
		return "game_rejected"
	case TickGameAccepted:
		return "game_accepted"
	case TickGameDeclined:
		return "game_declined"
	case TickGameTimedOut:
		return "game_timed_out"
	}
	return "unknown"
}

// TickResult reports what a tick did. Only the fields relevant to Kind are
// populated.
type TickResult struct {
	Kind           TickKind
	ReadyCheckID   string
	Game           *models.Game
	BestScore      float64
	Decliner       string
	DroppedPlayers []string
	Reason         string
}

// Notifier receives matchmaking lifecycle events for the presentation
// layer. A blocking Tick spans the whole ready check, so the proposal event
// is delivered here rather than through the tick result.
type Notifier interface {
	GameProposed(scope *envelope.Scope, readyCheckID string, candidate models.CandidateGame)
	GameAccepted(scope *envelope.Scope, game models.Game)
	GameDeclined(scope *envelope.Scope, candidate models.CandidateGame, decliner string)
	GameTimedOut(scope *envelope.Scope, candidate models.CandidateGame, dropped []string)
	GameRejected(scope *envelope.Scope, bestScore float64)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) GameProposed(*envelope.Scope, string, models.CandidateGame) {}
func (NopNotifier) GameAccepted(*envelope.Scope, models.Game)                  {}
func (NopNotifier) GameDeclined(*envelope.Scope, models.CandidateGame, string) {}
func (NopNotifier) GameTimedOut(*envelope.Scope, models.CandidateGame, []string) {
}
func (NopNotifier) GameRejected(*envelope.Scope, float64) {}
