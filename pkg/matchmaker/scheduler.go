// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/common"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/config"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/constants"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/metrics"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/queue"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/store"
)

// Now is the scheduler clock, overridable in tests.
var Now = time.Now

// Scheduler runs the matchmaking loop of one queue channel. Each channel
// owns its own instance; instances share nothing but the host store and the
// ready-check registry, so channels never block each other.
type Scheduler struct {
	channelID string
	serverID  string

	store    store.Store
	queue    *queue.Handler
	cfg      *config.Config
	metrics  metrics.MatchmakingMetrics
	notifier Notifier
	registry *readyCheckRegistry

	rnd *rand.Rand

	mu     sync.Mutex
	active *ReadyCheck
}

// Tick runs one matchmaking cycle: re-fetch the authoritative queue from
// the store, reduce it, search for the best split, and if the split is good
// enough run its ready check to completion and apply the side effects.
//
// Tick blocks for the whole ready check; only this channel's loop waits.
// While a ready check is pending additional Tick calls no-op, so at most
// one check is ever active per channel.
func (s *Scheduler) Tick(rootScope *envelope.Scope) (TickResult, error) {
	scope := rootScope.NewChildScope("Scheduler.Tick")
	defer scope.Finish()
	scope.SetAttributes(envelope.ChannelTag, s.channelID)

	if s.activeReadyCheck() != nil {
		return TickResult{Kind: TickNoGame, Reason: "ready check in progress"}, nil
	}

	entries, err := s.store.ListQueueEntries(scope, s.channelID)
	if err != nil {
		return TickResult{}, fmt.Errorf("list queue entries: %w", err)
	}
	s.metrics.QueueSize(s.channelID, len(entries))

	q := queue.New(s.channelID, entries)
	if q.Len() < models.GameSize {
		return TickResult{Kind: TickNoGame, Reason: constants.ReasonNotEnoughPerRole}, nil
	}

	ratings, err := s.fetchRatings(scope, q)
	if err != nil {
		return TickResult{}, fmt.Errorf("fetch ratings: %w", err)
	}

	searchStart := Now()
	candidate := NewSearch(s.cfg, ratings, s.rnd).FindBestGame(scope, q)
	s.metrics.SearchElapsedTime(s.channelID, constants.TeamSearchFunction, Now().Sub(searchStart))

	if candidate == nil {
		s.metrics.AddNoGameReason(s.channelID, constants.ReasonNoValidSplit)
		return TickResult{Kind: TickNoGame, Reason: constants.ReasonNoValidSplit}, nil
	}

	if candidate.MatchmakingScore() >= s.cfg.GameAcceptanceThreshold() {
		// one side is predicted too far above 50%, tell the host instead
		// of starting anything
		s.metrics.AddNoGameReason(s.channelID, constants.ReasonScoreAboveLimit)
		s.notifier.GameRejected(scope, candidate.MatchmakingScore())
		return TickResult{
			Kind:      TickGameRejected,
			BestScore: candidate.MatchmakingScore(),
			Reason:    constants.ReasonScoreAboveLimit,
		}, nil
	}

	return s.runReadyCheck(scope, *candidate)
}

// Run ticks the channel until ctx is done. Tick errors are logged and the
// loop keeps going; a wedged queue is worse than a noisy log.
func (s *Scheduler) Run(rootScope *envelope.Scope, ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	rootScope.Log.Infof("starting matchmaking loop for channel %s", s.channelID)
	for {
		select {
		case <-ctx.Done():
			rootScope.Log.Infof("stopping matchmaking loop for channel %s", s.channelID)
			return
		case <-ticker.C:
			if _, err := s.Tick(rootScope); err != nil {
				rootScope.Log.Errorf("tick failed for channel %s: %s", s.channelID, err)
			}
		}
	}
}

func (s *Scheduler) fetchRatings(scope *envelope.Scope, q queue.GameQueue) (map[RatingKey]models.Rating, error) {
	ratings := make(map[RatingKey]models.Rating, q.Len())
	for _, e := range q.Entries {
		key := RatingKey{PlayerID: e.PlayerID, Role: e.Role}
		if _, ok := ratings[key]; ok {
			continue
		}
		r, err := s.store.GetRating(scope, e.PlayerID, e.Role)
		if err != nil {
			return nil, err
		}
		ratings[key] = r
	}
	return ratings, nil
}

func (s *Scheduler) activeReadyCheck() *ReadyCheck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Scheduler) setActive(rc *ReadyCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = rc
}

// runReadyCheck drives the candidate through its confirmation and applies
// the queue and game side effects of the terminal state.
func (s *Scheduler) runReadyCheck(rootScope *envelope.Scope, candidate models.CandidateGame) (TickResult, error) {
	scope := rootScope.NewChildScope("Scheduler.runReadyCheck")
	defer scope.Finish()

	readyCheckID := common.GenerateULID()
	scope.SetAttributes(envelope.ReadyCheckTag, readyCheckID)
	scope.SetAttributes(envelope.ParticipantsTag, candidate.PlayerIDs())

	playerIDs := candidate.PlayerIDs()
	if err := s.queue.StartReadyCheck(scope, playerIDs, s.channelID, readyCheckID); err != nil {
		return TickResult{}, fmt.Errorf("start ready check: %w", err)
	}

	rc := NewReadyCheck(readyCheckID, candidate, s.cfg.AcksRequired(len(playerIDs)), Now().Add(s.cfg.ReadyCheckTimeout()))
	s.registry.add(rc)
	s.setActive(rc)
	defer func() {
		s.setActive(nil)
		s.registry.remove(readyCheckID)
	}()

	scope.Log.Infof("game found with %.1f%% blue side expected winrate, starting ready check %s",
		candidate.BlueWinProbability*100, readyCheckID)
	s.notifier.GameProposed(scope, readyCheckID, candidate)

	outcome := rc.Wait(scope.Ctx)
	s.metrics.ReadyCheckOutcome(s.channelID, outcome.State.String())

	switch outcome.State {
	case ReadyCheckAccepted:
		return s.commitGame(scope, candidate, readyCheckID)

	case ReadyCheckDeclined:
		// the decliner leaves the queue entirely, the other 9 go back with
		// their original queue times
		if err := s.queue.CancelReadyCheck(scope, readyCheckID, []string{outcome.Decliner}, "", s.serverID); err != nil {
			return TickResult{}, fmt.Errorf("cancel ready check after decline: %w", err)
		}
		s.notifier.GameDeclined(scope, candidate, outcome.Decliner)
		return TickResult{
			Kind:           TickGameDeclined,
			ReadyCheckID:   readyCheckID,
			Decliner:       outcome.Decliner,
			DroppedPlayers: []string{outcome.Decliner},
		}, nil

	default:
		// timeout, or an internal failure treated the same way: whoever
		// never acknowledged is dropped from every queue on the server
		if outcome.Err != nil {
			scope.Log.Errorf("ready check %s aborted: %s", readyCheckID, outcome.Err)
		}
		if err := s.queue.CancelReadyCheck(scope, readyCheckID, outcome.Dropped, "", s.serverID); err != nil {
			return TickResult{}, fmt.Errorf("cancel ready check after timeout: %w", err)
		}
		s.notifier.GameTimedOut(scope, candidate, outcome.Dropped)
		return TickResult{
			Kind:           TickGameTimedOut,
			ReadyCheckID:   readyCheckID,
			DroppedPlayers: outcome.Dropped,
		}, nil
	}
}

func (s *Scheduler) commitGame(scope *envelope.Scope, candidate models.CandidateGame, readyCheckID string) (TickResult, error) {
	game := candidate.ToGame(Now())
	gameID, err := s.store.CreateGame(scope, game)
	if err != nil {
		// release the players with no penalty, the failure is ours
		if cancelErr := s.queue.CancelReadyCheck(scope, readyCheckID, nil, "", ""); cancelErr != nil {
			scope.Log.Errorf("release after failed commit: %s", cancelErr)
		}
		return TickResult{}, fmt.Errorf("create game: %w", err)
	}
	game.ID = gameID
	scope.SetAttributes(envelope.GameTag, gameID)

	if err := s.queue.ValidateReadyCheck(scope, readyCheckID, candidate.PlayerIDs(), s.serverID); err != nil {
		return TickResult{}, fmt.Errorf("consume queue entries: %w", err)
	}

	s.metrics.GameFound(s.channelID, candidate.MatchmakingScore())
	s.notifier.GameAccepted(scope, game)
	scope.Log.Infof("game %s accepted and committed, awaiting result", gameID)

	return TickResult{
		Kind:         TickGameAccepted,
		ReadyCheckID: readyCheckID,
		Game:         &game,
	}, nil
}
