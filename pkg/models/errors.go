// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
)

// ErrorKind groups the sentinel errors into the classes callers act on.
// ConstraintViolation and StateConflict are user-correctable and surfaced
// unchanged; NotFound maps to a missing record; Internal is everything
// unexpected.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindConstraintViolation
	KindStateConflict
	KindNotFound
)

var (
	// ConstraintViolation
	ErrSameRoleDuo       = errors.New("duo partners cannot queue for the same role")
	ErrInvalidRole       = errors.New("role is not part of the fixed role set")
	ErrDuplicateEntry    = errors.New("queue entry already exists for this channel, player and role")
	ErrNotParticipant    = errors.New("player is not a participant of this ready check")
	ErrIncompleteTeams   = errors.New("game requires exactly 5 participants per side")

	// StateConflict
	ErrPlayerInUnscoredGame = errors.New("player's last game has not been scored yet")
	ErrPlayerInReadyCheck   = errors.New("player is locked into an active ready check")
	ErrReadyCheckResolved   = errors.New("ready check already reached a terminal state")
	ErrGameAlreadyScored    = errors.New("game already has a winner recorded")

	// NotFound
	ErrGameNotFound       = errors.New("game not found")
	ErrEntryNotFound      = errors.New("queue entry not found")
	ErrReadyCheckNotFound = errors.New("ready check not found")
)

var errorKindMap = map[error]ErrorKind{
	ErrSameRoleDuo:          KindConstraintViolation,
	ErrInvalidRole:          KindConstraintViolation,
	ErrDuplicateEntry:       KindConstraintViolation,
	ErrNotParticipant:       KindConstraintViolation,
	ErrIncompleteTeams:      KindConstraintViolation,
	ErrPlayerInUnscoredGame: KindStateConflict,
	ErrPlayerInReadyCheck:   KindStateConflict,
	ErrReadyCheckResolved:   KindStateConflict,
	ErrGameAlreadyScored:    KindStateConflict,
	ErrGameNotFound:         KindNotFound,
	ErrEntryNotFound:        KindNotFound,
	ErrReadyCheckNotFound:   KindNotFound,
}

// KindOf classifies err, unwrapping as needed. Unregistered errors are
// treated as internal failures.
func KindOf(err error) ErrorKind {
	for sentinel, kind := range errorKindMap {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}
