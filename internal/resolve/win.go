package resolve

import "github.com/nightfall-sim/nightfall/internal/game"

// Verdict is the outcome of a win-condition evaluation.
type Verdict struct {
	Over   bool
	Winner game.Team
}

// Win evaluates the terminal conditions. The village-win check runs first:
// the Village wins exactly when zero mafia-team participants remain alive.
// Then the mafia-win check: the Mafia wins exactly when living mafia-team
// count is greater than or equal to living village-team count. If neither
// holds the game continues.
//
// Evaluation is idempotent: unchanged state always yields the same verdict,
// and exactly one team is ever declared the winner.
func Win(state *game.State) Verdict {
	mafia, village := state.AliveCount()

	if mafia == 0 {
		return Verdict{Over: true, Winner: game.TeamVillage}
	}
	if mafia >= village {
		return Verdict{Over: true, Winner: game.TeamMafia}
	}
	return Verdict{}
}
