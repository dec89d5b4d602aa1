// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

// Package models contains the data types shared by the queue, matchmaking
// and rating packages, plus the error taxonomy surfaced to callers.
package models

// Role is one of the 5 fixed lanes a player can queue for.
type Role string

const (
	RoleTop Role = "TOP"
	RoleJgl Role = "JGL"
	RoleMid Role = "MID"
	RoleBot Role = "BOT"
	RoleSup Role = "SUP"
)

// Roles lists every role in the fixed iteration order used when building
// the starting queue window. The order carries no gameplay meaning.
var Roles = []Role{RoleTop, RoleJgl, RoleMid, RoleBot, RoleSup}

// IsValid reports whether r is a member of the closed role set.
func (r Role) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Side identifies one of the two teams of a game.
type Side string

const (
	SideBlue Side = "BLUE"
	SideRed  Side = "RED"
)

// Sides in blue-first order, matching the predicted winrate convention
// (probabilities are always expressed as blue's win chance).
var Sides = []Side{SideBlue, SideRed}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBlue {
		return SideRed
	}
	return SideBlue
}

func (s Side) String() string {
	return string(s)
}
