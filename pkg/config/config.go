// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"time"

	env "github.com/caarlos0/env"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/constants"
)

// Config carries every matchmaking tunable. Zero values fall back to the
// defaults in pkg/constants.
type Config struct {
	TickIntervalSecond      int     `env:"TICK_INTERVAL_SECOND"        envDefault:"0"   envDocs:"seconds between matchmaking ticks per channel (0 means use default from code)"`
	ReadyCheckTimeoutSecond int     `env:"READY_CHECK_TIMEOUT_SECOND"  envDefault:"0"   envDocs:"ready check deadline in seconds (0 means use default from code)"`
	QualityThreshold        float64 `env:"GAME_QUALITY_THRESHOLD"      envDefault:"0"   envDocs:"matchmaking score below which the expanding-window search stops early (0 means use default from code)"`
	AcceptanceThreshold     float64 `env:"GAME_ACCEPTANCE_THRESHOLD"   envDefault:"0"   envDocs:"worst matchmaking score that still starts a ready check (0 means use default from code)"`
	PerfectThreshold        float64 `env:"GAME_PERFECT_THRESHOLD"      envDefault:"0"   envDocs:"matchmaking score below which the whole search short-circuits (0 means use default from code)"`
	ValidationThreshold     int     `env:"VALIDATION_THRESHOLD"        envDefault:"0"   envDocs:"number of acks required to accept a game (0 means all participants)"`
	JumpAheadHour           int     `env:"JUMP_AHEAD_HOUR"             envDefault:"0"   envDocs:"hours a jump-ahead enqueue is backdated by (0 means use default from code)"`
	Beta                    float64 `env:"RATING_BETA"                 envDefault:"0"   envDocs:"per-player performance variance for win probability (0 means use default from code)"`
	SigmaFloor              float64 `env:"RATING_SIGMA_FLOOR"          envDefault:"0"   envDocs:"lower bound on rating uncertainty after updates (0 means use default from code)"`
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TickInterval returns the effective per-channel tick period.
func (c *Config) TickInterval() time.Duration {
	if c.TickIntervalSecond > 0 {
		return time.Duration(c.TickIntervalSecond) * time.Second
	}
	return constants.DefaultTickInterval
}

// ReadyCheckTimeout returns the effective ready check deadline duration.
func (c *Config) ReadyCheckTimeout() time.Duration {
	if c.ReadyCheckTimeoutSecond > 0 {
		return time.Duration(c.ReadyCheckTimeoutSecond) * time.Second
	}
	return constants.DefaultReadyCheckTimeout
}

// GameQualityThreshold returns the early-stop score for the window search.
func (c *Config) GameQualityThreshold() float64 {
	if c.QualityThreshold > 0 {
		return c.QualityThreshold
	}
	return constants.DefaultQualityThreshold
}

// GameAcceptanceThreshold returns the worst score that still proposes a game.
func (c *Config) GameAcceptanceThreshold() float64 {
	if c.AcceptanceThreshold > 0 {
		return c.AcceptanceThreshold
	}
	return constants.DefaultAcceptanceThreshold
}

// GamePerfectThreshold returns the whole-search short-circuit score.
func (c *Config) GamePerfectThreshold() float64 {
	if c.PerfectThreshold > 0 {
		return c.PerfectThreshold
	}
	return constants.DefaultPerfectThreshold
}

// AcksRequired returns the ack count that accepts a game of the given size.
// The safe default is every participant.
func (c *Config) AcksRequired(participantCount int) int {
	if c.ValidationThreshold > 0 && c.ValidationThreshold <= participantCount {
		return c.ValidationThreshold
	}
	return participantCount
}

// JumpAheadOffset returns how far back jump-ahead enqueues are dated.
func (c *Config) JumpAheadOffset() time.Duration {
	if c.JumpAheadHour > 0 {
		return time.Duration(c.JumpAheadHour) * time.Hour
	}
	return constants.DefaultJumpAheadOffset
}

// RatingBeta returns the effective performance variance constant.
func (c *Config) RatingBeta() float64 {
	if c.Beta > 0 {
		return c.Beta
	}
	return constants.DefaultBeta
}

// RatingSigmaFloor returns the effective uncertainty lower bound.
func (c *Config) RatingSigmaFloor() float64 {
	if c.SigmaFloor > 0 {
		return c.SigmaFloor
	}
	return constants.SigmaFloor
}
