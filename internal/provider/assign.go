package provider

import (
	"github.com/nightfall-sim/nightfall/internal/game"
)

// Assignment maps each participant to the Decider that speaks for them.
type Assignment map[string]Decider

// Assign distributes deciders across a roster round-robin, so a mixed pool
// (several models, or models plus the random decider) spreads evenly. A
// single-element pool assigns everyone the same decider.
func Assign(roster []*game.Participant, pool []Decider) Assignment {
	a := make(Assignment, len(roster))
	if len(pool) == 0 {
		return a
	}
	for i, p := range roster {
		a[p.ID] = pool[i%len(pool)]
	}
	return a
}

// For returns the decider for a participant id, or nil if none is assigned.
func (a Assignment) For(id string) Decider {
	return a[id]
}
