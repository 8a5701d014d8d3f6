// Package ledger implements the append-only, visibility-scoped record of
// everything that happens in a game. Each participant's context view is
// derived from it through Query, which is the single mechanism preventing
// information leakage across team boundaries.
package ledger

import (
	"time"

	"github.com/nightfall-sim/nightfall/internal/game"
)

// EntryType discriminates ledger entries.
type EntryType string

const (
	// EntryMessage is an utterance, public or team-private.
	EntryMessage EntryType = "message"
	// EntryVote is a recorded day-phase vote.
	EntryVote EntryType = "vote"
	// EntryAction is a recorded night action.
	EntryAction EntryType = "action"
	// EntryInnerThought is a participant's private reasoning.
	EntryInnerThought EntryType = "inner_thought"
	// EntryEvent is a structured game event description.
	EntryEvent EntryType = "event"
)

// Valid reports whether the type is one of the known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case EntryMessage, EntryVote, EntryAction, EntryInnerThought, EntryEvent:
		return true
	}
	return false
}

// Scope is a visibility class.
type Scope string

const (
	// ScopePublic entries are visible to every participant.
	ScopePublic Scope = "public"
	// ScopeTeam entries are visible to participants sharing Visibility.Team.
	ScopeTeam Scope = "team"
	// ScopePlayer entries are visible only to Visibility.Player.
	ScopePlayer Scope = "player"
)

// Visibility is an entry's audience.
type Visibility struct {
	Scope  Scope     `json:"scope"`
	Team   game.Team `json:"team,omitempty"`
	Player string    `json:"player,omitempty"`
}

// Public is the all-participants visibility.
func Public() Visibility {
	return Visibility{Scope: ScopePublic}
}

// TeamPrivate is visibility restricted to one team.
func TeamPrivate(team game.Team) Visibility {
	return Visibility{Scope: ScopeTeam, Team: team}
}

// PlayerPrivate is visibility restricted to one participant.
func PlayerPrivate(id string) Visibility {
	return Visibility{Scope: ScopePlayer, Player: id}
}

// valid reports whether the visibility is well-formed.
func (v Visibility) valid() bool {
	switch v.Scope {
	case ScopePublic:
		return true
	case ScopeTeam:
		return v.Team == game.TeamMafia || v.Team == game.TeamVillage
	case ScopePlayer:
		return v.Player != ""
	}
	return false
}

// Includes reports whether a participant on the given team may see the entry.
func (v Visibility) Includes(participantID string, team game.Team) bool {
	switch v.Scope {
	case ScopePublic:
		return true
	case ScopeTeam:
		return v.Team == team
	case ScopePlayer:
		return v.Player == participantID
	}
	return false
}

// Entry is one immutable ledger record. The payload fields are
// type-specific: messages and thoughts use Content; votes and actions use
// Actor/Target/Kind; events use Kind for the event name and Content for the
// human-readable description.
type Entry struct {
	Seq        int        `json:"seq"`
	Type       EntryType  `json:"type"`
	Round      int        `json:"round"`
	Phase      game.Phase `json:"phase"`
	Visibility Visibility `json:"visibility"`
	Timestamp  time.Time  `json:"timestamp"`

	Actor   string `json:"actor,omitempty"`
	Target  string `json:"target,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Content string `json:"content,omitempty"`
}
