// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"math/rand"
	"time"

	pie "github.com/elliotchance/pie/v2"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/common"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/config"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/queue"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/rating"
)

// RatingKey identifies a rating by player and role.
type RatingKey struct {
	PlayerID string
	Role     models.Role
}

// Search finds the most balanced 10-player split in a reduced queue.
//
// The search is exhaustive inside an expanding window over the aging-ordered
// candidate list: it enumerates, per role, every ordered pair of candidates
// (ordered because blue/red matters), takes the cartesian product across the
// 5 roles and scores each surviving assignment. Worst case is exponential in
// the window's per-role candidate counts; that is a deliberate design
// constraint, acceptable because inhouse queues stay small (a few dozen
// players at most).
type Search struct {
	ratings map[RatingKey]models.Rating

	beta             float64
	qualityThreshold float64
	perfectThreshold float64

	rnd *rand.Rand
}

// NewSearch builds a search over the given pre-fetched ratings. rnd may be
// nil, in which case a time-seeded source is used.
func NewSearch(cfg *config.Config, ratings map[RatingKey]models.Rating, rnd *rand.Rand) *Search {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Search{
		ratings:          ratings,
		beta:             cfg.RatingBeta(),
		qualityThreshold: cfg.GameQualityThreshold(),
		perfectThreshold: cfg.GamePerfectThreshold(),
		rnd:              rnd,
	}
}

// FindBestGame returns the best candidate split, or nil when no 10-player
// game is structurally possible. Absence of a game is a normal result, not
// an error.
//
// Windows grow from the 10 oldest-biased candidates to the whole queue; the
// first window beating the quality threshold wins so acceptable games fire
// with the shortest possible wait. If no window beats it, the best split
// seen anywhere is returned.
func (s *Search) FindBestGame(rootScope *envelope.Scope, q queue.GameQueue) *models.CandidateGame {
	scope := rootScope.NewChildScope("Search.FindBestGame")
	defer scope.Finish()

	byRole := q.ByRole()
	for _, role := range models.Roles {
		if len(byRole[role]) < minCandidatesPerRole {
			scope.Log.Debugf("no game possible: role %s has %d candidates", role, len(byRole[role]))
			return nil
		}
	}

	scope.Log.Infof("matchmaking started with queue:\n%s", q)

	var best *models.CandidateGame
	for windowSize := models.GameSize; windowSize <= q.Len(); windowSize++ {
		candidate := s.bestSplit(q.Entries[:windowSize], q.ChannelID, q.ServerID)
		if candidate != nil && (best == nil || candidate.MatchmakingScore() < best.MatchmakingScore()) {
			best = candidate
		}
		if best != nil && best.MatchmakingScore() < s.qualityThreshold {
			return best
		}
	}

	return best
}

// a 10-player game needs one candidate per role and side
const minCandidatesPerRole = 2

// bestSplit exhaustively scores every valid blue/red assignment inside the
// window and returns the most balanced one, or nil when the window cannot
// field 2 candidates per role or every assignment violates a constraint.
func (s *Search) bestSplit(window []models.QueueEntry, channelID, serverID string) *models.CandidateGame {
	perRole := make([][]models.QueueEntry, len(models.Roles))
	for i, role := range models.Roles {
		perRole[i] = pie.Filter(window, func(e models.QueueEntry) bool {
			return e.Role == role
		})
		if len(perRole[i]) < minCandidatesPerRole {
			return nil
		}
	}

	// ordered pairs per role: which of the two lands blue vs red matters
	pairs := make([][][]int, len(models.Roles))
	for i := range models.Roles {
		pairs[i] = combin.Permutations(len(perRole[i]), 2)
	}

	var best *models.CandidateGame
	bestScore := 1.0

	blue := make([]models.Rating, models.TeamSize)
	red := make([]models.Rating, models.TeamSize)

	// odometer over the cartesian product of the 5 roles' pair lists
	idx := make([]int, len(models.Roles))
	for {
		// a random side orientation per assignment avoids always picking
		// the first enumerated split when several tie
		flipped := common.CoinFlip(s.rnd)

		if entries, ok := s.assignSides(perRole, pairs, idx, flipped, blue, red); ok {
			p := rating.WinProbability(blue, red, s.beta)
			score := p - 0.5
			if score < 0 {
				score = -score
			}

			if score < bestScore {
				bestScore = score
				best = s.buildCandidate(entries, blue, red, p, channelID, serverID)

				// later, larger windows cannot beat a near coin flip
				if bestScore < s.perfectThreshold {
					return best
				}
			}
		}

		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(pairs[pos]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	return best
}

// assignSides resolves one tuple of per-role pairs into a blue and a red
// rating list. It rejects assignments that split a duo across sides or that
// reuse a player under two queued roles. The returned entries are ordered
// blue TOP..SUP then red TOP..SUP.
func (s *Search) assignSides(perRole [][]models.QueueEntry, pairs [][][]int, idx []int, flipped bool, blue, red []models.Rating) ([]models.QueueEntry, bool) {
	entries := make([]models.QueueEntry, 0, models.GameSize)
	sideOf := make(map[string]models.Side, models.GameSize)

	for roleIdx := range models.Roles {
		pair := pairs[roleIdx][idx[roleIdx]]
		first := perRole[roleIdx][pair[0]]
		second := perRole[roleIdx][pair[1]]

		blueEntry, redEntry := first, second
		if flipped {
			blueEntry, redEntry = second, first
		}

		// a player queued under two roles cannot fill both slots
		if _, seen := sideOf[blueEntry.PlayerID]; seen {
			return nil, false
		}
		sideOf[blueEntry.PlayerID] = models.SideBlue
		if _, seen := sideOf[redEntry.PlayerID]; seen {
			return nil, false
		}
		sideOf[redEntry.PlayerID] = models.SideRed

		blue[roleIdx] = s.ratingOf(blueEntry)
		red[roleIdx] = s.ratingOf(redEntry)
		entries = append(entries, blueEntry, redEntry)
	}

	// duo partners must be in the game, on the same side
	for _, e := range entries {
		if !e.HasDuo() {
			continue
		}
		partnerSide, present := sideOf[e.DuoPlayerID]
		if !present || partnerSide != sideOf[e.PlayerID] {
			return nil, false
		}
	}

	return entries, true
}

func (s *Search) ratingOf(e models.QueueEntry) models.Rating {
	if r, ok := s.ratings[RatingKey{PlayerID: e.PlayerID, Role: e.Role}]; ok {
		return r
	}
	return rating.New(e.PlayerID, e.Role)
}

func (s *Search) buildCandidate(entries []models.QueueEntry, blue, red []models.Rating, blueWinProbability float64, channelID, serverID string) *models.CandidateGame {
	participants := make([]models.GameParticipant, 0, models.GameSize)
	for roleIdx, role := range models.Roles {
		blueEntry := entries[2*roleIdx]
		redEntry := entries[2*roleIdx+1]
		participants = append(participants,
			models.GameParticipant{
				PlayerID: blueEntry.PlayerID,
				Name:     blueEntry.PlayerName,
				Side:     models.SideBlue,
				Role:     role,
				Mu:       blue[roleIdx].Mu,
				Sigma:    blue[roleIdx].Sigma,
			},
			models.GameParticipant{
				PlayerID: redEntry.PlayerID,
				Name:     redEntry.PlayerName,
				Side:     models.SideRed,
				Role:     role,
				Mu:       red[roleIdx].Mu,
				Sigma:    red[roleIdx].Sigma,
			},
		)
	}

	candidateEntries := make([]models.QueueEntry, len(entries))
	copy(candidateEntries, entries)

	return &models.CandidateGame{
		ServerID:           serverID,
		ChannelID:          channelID,
		BlueWinProbability: blueWinProbability,
		Participants:       participants,
		Entries:            candidateEntries,
	}
}
