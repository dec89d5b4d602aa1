// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package constants

import "time"

// TrueSkill-compatible rating defaults. New ratings start at Mu 25 with a
// third of that as uncertainty; Beta is the per-player performance variance
// used by the win-probability estimator.
const (
	DefaultMu    = 25.0
	DefaultSigma = 25.0 / 3.0
	DefaultBeta  = 25.0 / 6.0

	// SigmaFloor keeps the uncertainty strictly positive after updates.
	SigmaFloor = 0.001
)

// Matchmaking thresholds, all expressed as matchmaking score
// (|0.5 - predicted blue winrate|).
const (
	// DefaultQualityThreshold stops the expanding-window search as soon as
	// a window produces a split at least this balanced.
	DefaultQualityThreshold = 0.1

	// DefaultAcceptanceThreshold is the worst score a game may have and
	// still trigger a ready check (0.2 keeps both sides within 30-70%).
	DefaultAcceptanceThreshold = 0.2

	// DefaultPerfectThreshold short-circuits the whole search; growing the
	// window cannot beat a near coin-flip split.
	DefaultPerfectThreshold = 0.01
)

const (
	DefaultTickInterval      = 5 * time.Second
	DefaultReadyCheckTimeout = 15 * time.Minute

	// DefaultJumpAheadOffset backdates jump-ahead enqueues so returning
	// players re-enter at the front of the queue.
	DefaultJumpAheadOffset = 24 * time.Hour

	// StartingWindowPerRole is the per-role capacity of the reducer's
	// starting window: the 2 oldest players per role, plus forced duos.
	StartingWindowPerRole = 2
)

// No-game reason constants reported to metrics.
const (
	ReasonNotEnoughPerRole = "not_enough_players_per_role"
	ReasonNoValidSplit     = "no_valid_split"
	ReasonScoreAboveLimit  = "best_score_above_acceptance_threshold"
)

// Metric function labels.
const (
	TeamSearchFunction = "findBestGame"
	TickFunction       = "tick"
)
