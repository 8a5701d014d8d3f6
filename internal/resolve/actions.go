package resolve

import (
	"github.com/nightfall-sim/nightfall/internal/game"
)

// Investigation is one resolved detective investigation. Verdict is the
// role reported to the investigator, which is not always the target's true
// role: a Godfather is always reported as a Villager.
type Investigation struct {
	Investigator string
	Target       string
	Verdict      game.Role
	Mafia        bool // whether the verdict is mafia-aligned
}

// NightOutcome is the result of resolving one night's actions.
type NightOutcome struct {
	// KillTarget is the converged mafia kill target, empty if no kill was
	// submitted this night.
	KillTarget string
	// Protected is the doctor's target, empty if no protection was submitted.
	Protected string
	// Killed is the id eliminated this night, empty when the kill was
	// negated by protection or no kill was submitted.
	Killed string
	// Saved reports that the kill was negated because the protected target
	// equaled the converged kill target.
	Saved bool
	// Investigations holds every resolved investigation, in actor roster order.
	Investigations []Investigation
}

// Night resolves simultaneous night actions in the fixed order the game
// requires:
//
//  1. Mafia kill convergence. A Godfather submission takes precedence when
//     present; otherwise the plurality among mafia-team kill submissions
//     wins, with ties broken by roster order (the tied target appearing
//     earliest in the roster wins). The tie-break is deterministic so a
//     replayed game converges identically.
//  2. Doctor protection is fixed before the kill is applied.
//  3. A protected kill target negates the kill: no elimination.
//  4. Detective investigation resolves independently of the kill. A target
//     holding the Godfather role is reported as an innocent Villager — a
//     deliberate deception that game balance depends on.
//
// Night validates nothing; the engine rejects ineligible intents before
// resolution. Actions by non-role-holders are ignored.
func Night(state *game.State, actions []game.NightAction) NightOutcome {
	var out NightOutcome

	out.KillTarget = convergeKill(state, actions)

	for _, a := range actions {
		actor := state.Participant(a.Actor)
		if actor == nil || actor.Role != game.RoleDoctor || a.Kind != game.ActionProtect {
			continue
		}
		out.Protected = a.Target
		break // one doctor, one protection
	}

	if out.KillTarget != "" {
		if out.KillTarget == out.Protected {
			out.Saved = true
		} else {
			out.Killed = out.KillTarget
		}
	}

	for _, a := range actions {
		actor := state.Participant(a.Actor)
		if actor == nil || actor.Role != game.RoleDetective || a.Kind != game.ActionInvestigate {
			continue
		}
		target := state.Participant(a.Target)
		if target == nil {
			continue
		}
		out.Investigations = append(out.Investigations, investigate(actor.ID, target))
	}

	return out
}

// convergeKill reduces the mafia team's kill submissions to one target.
func convergeKill(state *game.State, actions []game.NightAction) string {
	// Godfather override wins outright when submitted.
	for _, a := range actions {
		actor := state.Participant(a.Actor)
		if actor == nil || actor.Role != game.RoleGodfather {
			continue
		}
		if a.Kind == game.ActionOverride || a.Kind == game.ActionKill {
			return a.Target
		}
	}

	// Otherwise plurality among mafia-team kill submissions.
	tally := make(map[string]int)
	for _, a := range actions {
		actor := state.Participant(a.Actor)
		if actor == nil || actor.Team() != game.TeamMafia || a.Kind != game.ActionKill {
			continue
		}
		tally[a.Target]++
	}
	if len(tally) == 0 {
		return ""
	}

	top := 0
	for _, n := range tally {
		if n > top {
			top = n
		}
	}

	// Tie-break: the tied target earliest in roster order wins.
	winner := ""
	winnerIdx := len(state.Roster)
	for target, n := range tally {
		if n != top {
			continue
		}
		if idx := state.RosterIndex(target); idx >= 0 && idx < winnerIdx {
			winner = target
			winnerIdx = idx
		}
	}
	return winner
}

// investigate produces the verdict reported to the detective. The Godfather
// is always reported innocent regardless of true alignment.
func investigate(investigator string, target *game.Participant) Investigation {
	inv := Investigation{
		Investigator: investigator,
		Target:       target.ID,
	}
	if target.Role == game.RoleGodfather {
		inv.Verdict = game.RoleVillager
		inv.Mafia = false
		return inv
	}
	inv.Verdict = target.Role
	inv.Mafia = target.Team() == game.TeamMafia
	return inv
}
