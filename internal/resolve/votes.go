// Package resolve implements the per-round resolution rules: day-vote
// tallying, night-action ordering, and the win-condition evaluation. The
// functions here are pure over their inputs; the engine applies their
// outcomes to the game state.
package resolve

import (
	"sort"

	"github.com/nightfall-sim/nightfall/internal/game"
)

// VoteOutcome is the result of tallying one day phase's votes.
type VoteOutcome struct {
	// Eliminated is the id voted out, or empty when no elimination occurred.
	Eliminated string
	// Tally maps each non-abstain target to its vote count.
	Tally map[string]int
	// Tied lists the targets that shared the plurality when the vote was a
	// tie, sorted by id for deterministic reporting. Empty otherwise.
	Tied []string
	// Abstentions counts the votes that named no target.
	Abstentions int
}

// Votes tallies day-phase elimination votes by plurality among non-abstain
// votes. A tie for the plurality eliminates no one: ties are deliberately a
// null result, reported through Tied, because a deterministic tie-break here
// would let a single vote swing a coordinated elimination. The policy is
// fixed and covered by tests.
func Votes(votes []game.Vote) VoteOutcome {
	out := VoteOutcome{Tally: make(map[string]int)}

	for _, v := range votes {
		if v.Abstained() {
			out.Abstentions++
			continue
		}
		out.Tally[v.Target]++
	}

	if len(out.Tally) == 0 {
		return out
	}

	top := 0
	for _, n := range out.Tally {
		if n > top {
			top = n
		}
	}

	var leaders []string
	for target, n := range out.Tally {
		if n == top {
			leaders = append(leaders, target)
		}
	}
	sort.Strings(leaders)

	if len(leaders) == 1 {
		out.Eliminated = leaders[0]
	} else {
		out.Tied = leaders
	}
	return out
}
