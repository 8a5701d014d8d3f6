package game

import "fmt"

// Participant is one autonomous player in the simulation. The role is
// assigned once at setup and never changes; only Status is mutable, and
// only through State.Eliminate.
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Status Status `json:"status"`
}

// Team returns the participant's faction, derived from their role.
func (p *Participant) Team() Team {
	return p.Role.Team()
}

// Alive reports whether the participant has not been eliminated.
func (p *Participant) Alive() bool {
	return p.Status == StatusAlive
}

// Label returns "Name (id)" for logs and events.
func (p *Participant) Label() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.ID)
}

// Vote is one day-phase elimination vote. Target is AbstainTarget when the
// participant abstained (explicitly, on timeout, or after a rejected intent).
type Vote struct {
	Voter  string `json:"voter"`
	Target string `json:"target"`
	Round  int    `json:"round"`
}

// AbstainTarget is the pseudo-target recorded for abstentions.
const AbstainTarget = "abstain"

// Abstained reports whether the vote is an abstention.
func (v Vote) Abstained() bool {
	return v.Target == AbstainTarget || v.Target == ""
}

// ActionKind is a night-action variant.
type ActionKind string

const (
	ActionKill        ActionKind = "kill"
	ActionProtect     ActionKind = "protect"
	ActionInvestigate ActionKind = "investigate"
	// ActionOverride is a Godfather kill submission. It resolves like a kill
	// but takes precedence over the rest of the Mafia team's targets.
	ActionOverride ActionKind = "override"
)

// Valid reports whether the kind is one of the known night actions.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionKill, ActionProtect, ActionInvestigate, ActionOverride:
		return true
	}
	return false
}

// NightAction is one private night-phase intent. At most one per
// role-holder per night.
type NightAction struct {
	Actor  string     `json:"actor"`
	Kind   ActionKind `json:"kind"`
	Target string     `json:"target"`
	Round  int        `json:"round"`
}
