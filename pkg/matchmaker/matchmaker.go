// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/config"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/metrics"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/queue"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/store"
)

// Matchmaker is the entry point the host application embeds. It owns one
// scheduler per queue channel and routes acknowledgement events to the
// right ready check; all durable state stays in the host store.
type Matchmaker struct {
	cfg      *config.Config
	store    store.Store
	queue    *queue.Handler
	metrics  metrics.MatchmakingMetrics
	notifier Notifier
	registry *readyCheckRegistry

	mu    sync.Mutex
	loops map[string]*channelLoop
}

type channelLoop struct {
	scheduler *Scheduler
	cancel    context.CancelFunc
}

// Option configures the Matchmaker.
type Option func(*Matchmaker)

// WithMetrics installs a metrics sink; the default discards everything.
func WithMetrics(m metrics.MatchmakingMetrics) Option {
	return func(mm *Matchmaker) { mm.metrics = m }
}

// WithNotifier installs a presentation notifier; the default discards
// every event.
func WithNotifier(n Notifier) Option {
	return func(mm *Matchmaker) { mm.notifier = n }
}

// New returns a Matchmaker over the given host store.
func New(cfg *config.Config, st store.Store, opts ...Option) *Matchmaker {
	mm := &Matchmaker{
		cfg:      cfg,
		store:    st,
		queue:    queue.NewHandler(st, cfg),
		metrics:  metrics.NewNopMetrics(),
		notifier: NopNotifier{},
		registry: newReadyCheckRegistry(),
		loops:    make(map[string]*channelLoop),
	}
	for _, opt := range opts {
		opt(mm)
	}
	return mm
}

// Queue exposes the queue mutation operations (enqueue, dequeue, duos).
func (m *Matchmaker) Queue() *queue.Handler {
	return m.queue
}

// Recover releases any ready-check locks left dangling by a previous run.
// Hosts call it once on startup before starting channel loops.
func (m *Matchmaker) Recover(scope *envelope.Scope) error {
	return m.queue.CancelAllReadyChecks(scope)
}

// scheduler builds the per-channel scheduler instance. Each channel gets
// its own random source so side-orientation shuffles don't contend.
func (m *Matchmaker) scheduler(channelID, serverID string) *Scheduler {
	return &Scheduler{
		channelID: channelID,
		serverID:  serverID,
		store:     m.store,
		queue:     m.queue,
		cfg:       m.cfg,
		metrics:   m.metrics,
		notifier:  m.notifier,
		registry:  m.registry,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// StartChannel spawns the matchmaking loop for a channel. Starting an
// already-started channel is a no-op.
func (m *Matchmaker) StartChannel(rootScope *envelope.Scope, channelID, serverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.loops[channelID]; ok {
		return
	}

	ctx, cancel := context.WithCancel(rootScope.Ctx)
	loop := &channelLoop{scheduler: m.scheduler(channelID, serverID), cancel: cancel}
	m.loops[channelID] = loop

	go loop.scheduler.Run(rootScope, ctx)
}

// StopChannel stops a channel's loop. An active ready check still resolves
// through its own deadline handling.
func (m *Matchmaker) StopChannel(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loop, ok := m.loops[channelID]; ok {
		loop.cancel()
		delete(m.loops, channelID)
	}
}

// Tick runs a single matchmaking cycle for the channel, for hosts that
// drive ticking themselves instead of using StartChannel. It blocks for
// the full ready check when a game is proposed.
func (m *Matchmaker) Tick(scope *envelope.Scope, channelID, serverID string) (TickResult, error) {
	m.mu.Lock()
	loop, ok := m.loops[channelID]
	m.mu.Unlock()
	if ok {
		return loop.scheduler.Tick(scope)
	}
	return m.scheduler(channelID, serverID).Tick(scope)
}

// SubmitAck records one participant's answer to an active ready check.
// Events for already-resolved checks surface models.ErrReadyCheckResolved
// (or models.ErrReadyCheckNotFound once the check is gone) and change
// nothing.
func (m *Matchmaker) SubmitAck(scope *envelope.Scope, readyCheckID, playerID string, accept bool) error {
	rc, err := m.registry.get(readyCheckID)
	if err != nil {
		return err
	}
	return rc.SubmitAck(playerID, accept)
}

// ActiveReadyCheck returns the pending ready check with the given id, for
// presentation layers that render ack progress.
func (m *Matchmaker) ActiveReadyCheck(readyCheckID string) (*ReadyCheck, error) {
	return m.registry.get(readyCheckID)
}

// Enqueue adds a player to a channel queue, with the usual guards applied.
func (m *Matchmaker) Enqueue(scope *envelope.Scope, player models.Player, role models.Role, channelID string, jumpAhead bool) error {
	return m.queue.Enqueue(scope, player, role, channelID, jumpAhead)
}

// Dequeue removes a player from one channel's queue, or from everywhere
// when channelID is empty.
func (m *Matchmaker) Dequeue(scope *envelope.Scope, playerID, channelID string) error {
	return m.queue.Dequeue(scope, playerID, channelID)
}

// LinkDuo queues two players as a duo for distinct roles.
func (m *Matchmaker) LinkDuo(scope *envelope.Scope, first, second models.Player, firstRole, secondRole models.Role, channelID string, jumpAhead bool) error {
	return m.queue.LinkDuo(scope, first, second, firstRole, secondRole, channelID, jumpAhead)
}

// RemoveDuo clears a player's duo links in the channel.
func (m *Matchmaker) RemoveDuo(scope *envelope.Scope, playerID, channelID string) error {
	return m.queue.RemoveDuo(scope, playerID, channelID)
}

// ResetQueue clears one channel's queue, or every queue when channelID is
// empty. Admin path, no guards.
func (m *Matchmaker) ResetQueue(scope *envelope.Scope, channelID string) error {
	return m.queue.Reset(scope, channelID)
}

// ActiveChannels lists the channels with queued players, so hosts can start
// loops for them after a restart.
func (m *Matchmaker) ActiveChannels(scope *envelope.Scope) ([]string, error) {
	return m.queue.ActiveChannels(scope)
}
