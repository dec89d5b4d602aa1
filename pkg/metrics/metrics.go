// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MatchmakingMetrics interface {
	QueueSize(channelID string, size int)
	SearchElapsedTime(channelID, function string, elapsedTime time.Duration)
	AddNoGameReason(channelID string, reason string)
	ReadyCheckOutcome(channelID string, outcome string)
	GameFound(channelID string, score float64)
}

func NewMetrics(registry *prometheus.Registry) MatchmakingMetrics {
	return setupPrometheusMetrics(registry)
}

// NewNopMetrics returns a sink that discards every observation, for hosts
// that don't scrape.
func NewNopMetrics() MatchmakingMetrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) QueueSize(string, int)                           {}
func (nopMetrics) SearchElapsedTime(string, string, time.Duration) {}
func (nopMetrics) AddNoGameReason(string, string)                  {}
func (nopMetrics) ReadyCheckOutcome(string, string)                {}
func (nopMetrics) GameFound(string, float64)                       {}
