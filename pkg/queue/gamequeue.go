// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

// Package queue turns the raw per-channel queue into the aging-ordered
// candidate list the team search consumes, and implements every queue
// mutation the host command layer can trigger.
package queue

import (
	"fmt"
	"sort"
	"strings"

	pie "github.com/elliotchance/pie/v2"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/constants"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
)

// GameQueue is the reduced queue state of one channel at one instant.
//
// Entries is a single ordered list: a contiguous prefix holds the "fairest
// immediate" candidates (up to 2 oldest players per role, with duo partners
// forced in), and the remainder trails in enqueue-time order. The team
// search consumes it as an expanding window.
type GameQueue struct {
	ChannelID string
	ServerID  string
	Entries   []models.QueueEntry
}

// New reduces the channel's raw entry set. Entries locked into a ready
// check are excluded from matching. The output always contains exactly the
// remaining multiset of entries, reordered.
func New(channelID string, entries []models.QueueEntry) GameQueue {
	q := GameQueue{ChannelID: channelID}

	available := pie.Filter(entries, func(e models.QueueEntry) bool {
		return e.ReadyCheckID == ""
	})
	if len(available) == 0 {
		return q
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].QueueTime.Before(available[j].QueueTime)
	})
	q.ServerID = available[0].ServerID

	byRole := make(map[models.Role][]models.QueueEntry, len(models.Roles))
	for _, e := range available {
		byRole[e.Role] = append(byRole[e.Role], e)
	}

	// The starting window holds the 2 players per role who have waited the
	// longest. A duo partner is force-added to the partner's role, evicting
	// the most recently selected entry when that role is already full, so
	// duo pairs are always offered together.
	starting := make(map[models.Role][]models.QueueEntry, len(models.Roles))
	for _, role := range models.Roles {
		for _, qp := range byRole[role] {
			if len(starting[role]) >= constants.StartingWindowPerRole {
				continue
			}

			// qp could already be there as someone's forced duo partner
			if !selectedInRole(starting[role], qp.PlayerID) {
				starting[role] = append(starting[role], qp)
			}

			if !qp.HasDuo() {
				continue
			}
			duoRole := qp.DuoRole
			if selectedInRole(starting[duoRole], qp.DuoPlayerID) {
				continue
			}
			partner, ok := findEntry(byRole[duoRole], qp.DuoPlayerID)
			if !ok {
				// dangling link, the partner left or is locked elsewhere
				continue
			}
			if len(starting[duoRole]) >= constants.StartingWindowPerRole {
				starting[duoRole] = starting[duoRole][:len(starting[duoRole])-1]
			}
			starting[duoRole] = append(starting[duoRole], partner)
		}
	}

	window := make([]models.QueueEntry, 0, models.GameSize)
	for _, role := range models.Roles {
		window = append(window, starting[role]...)
	}

	selected := make(map[string]bool, len(window))
	for _, e := range window {
		selected[e.Key()] = true
	}

	// everyone else trails by queue age
	q.Entries = window
	for _, e := range available {
		if !selected[e.Key()] {
			q.Entries = append(q.Entries, e)
		}
	}

	return q
}

func selectedInRole(entries []models.QueueEntry, playerID string) bool {
	return pie.Any(entries, func(e models.QueueEntry) bool {
		return e.PlayerID == playerID
	})
}

func findEntry(entries []models.QueueEntry, playerID string) (models.QueueEntry, bool) {
	for _, e := range entries {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return models.QueueEntry{}, false
}

// Len returns the number of matchable entries.
func (q GameQueue) Len() int {
	return len(q.Entries)
}

// ByRole groups entries per role, preserving the reduced order. Every role
// is present in the result, possibly empty.
func (q GameQueue) ByRole() map[models.Role][]models.QueueEntry {
	byRole := make(map[models.Role][]models.QueueEntry, len(models.Roles))
	for _, role := range models.Roles {
		byRole[role] = pie.Filter(q.Entries, func(e models.QueueEntry) bool {
			return e.Role == role
		})
	}
	return byRole
}

// Duos lists the entries that carry a duo link.
func (q GameQueue) Duos() []models.QueueEntry {
	return pie.Filter(q.Entries, func(e models.QueueEntry) bool {
		return e.HasDuo()
	})
}

func (q GameQueue) String() string {
	byRole := q.ByRole()
	rows := make([]string, 0, len(models.Roles)+1)
	for _, role := range models.Roles {
		names := pie.Map(byRole[role], func(e models.QueueEntry) string {
			return e.PlayerName
		})
		rows = append(rows, fmt.Sprintf("%s\t%s", role, strings.Join(names, " ")))
	}

	duos := pie.Map(q.Duos(), func(e models.QueueEntry) string {
		return fmt.Sprintf("%s %s + %s %s", e.PlayerName, e.Role, e.DuoPlayerID, e.DuoRole)
	})
	rows = append(rows, "DUO\t"+strings.Join(duos, ", "))

	return strings.Join(rows, "\n")
}
