// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	playersInQueue    prometheus.GaugeVec
	searchElapsedTime prometheus.HistogramVec
	noGameReasons     prometheus.CounterVec
	readyCheckOutcome prometheus.CounterVec
	gameScore         prometheus.HistogramVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	playersInQueue := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ihg_mm_players_in_queue",
			Help: "A gauge of the number of players queued per channel",
		}, []string{"channel"})

	//nolint:promlinter
	searchElapsedTime := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ihg_mm_team_search_elapsed_time_ms",
			Help:    "A histogram of team search functions elapsed time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"channel", "function"})

	noGameReasons := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ihg_mm_no_game_reasons",
			Help: "A counter of ticks that produced no game, by reason",
		}, []string{"channel", "reason"})

	readyCheckOutcome := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ihg_mm_ready_check_outcomes",
			Help: "A counter of ready check terminal states",
		}, []string{"channel", "outcome"})

	//nolint:promlinter
	gameScore := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ihg_mm_game_matchmaking_score",
			Help:    "A histogram of the matchmaking score of committed games",
			Buckets: prometheus.LinearBuckets(0, 0.02, 11),
		}, []string{"channel"})

	return prometheusMetrics{
		playersInQueue:    *playersInQueue,
		searchElapsedTime: *searchElapsedTime,
		noGameReasons:     *noGameReasons,
		readyCheckOutcome: *readyCheckOutcome,
		gameScore:         *gameScore,
	}
}

func (metrics prometheusMetrics) QueueSize(channelID string, size int) {
	metrics.playersInQueue.With(prometheus.Labels{"channel": channelID}).Set(float64(size))
}

func (metrics prometheusMetrics) SearchElapsedTime(channelID, function string, elapsedTime time.Duration) {
	metrics.searchElapsedTime.With(prometheus.Labels{"channel": channelID, "function": function}).Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddNoGameReason(channelID string, reason string) {
	metrics.noGameReasons.With(prometheus.Labels{"channel": channelID, "reason": reason}).Add(float64(1))
}

func (metrics prometheusMetrics) ReadyCheckOutcome(channelID string, outcome string) {
	metrics.readyCheckOutcome.With(prometheus.Labels{"channel": channelID, "outcome": outcome}).Add(float64(1))
}

func (metrics prometheusMetrics) GameFound(channelID string, score float64) {
	metrics.gameScore.With(prometheus.Labels{"channel": channelID}).Observe(score)
}
