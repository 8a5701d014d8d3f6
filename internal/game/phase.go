package game

// Phase is a state of the round-driving state machine. Phases only advance
// forward; the engine is the sole component that transitions them.
type Phase string

const (
	PhaseSetup           Phase = "setup"
	PhaseDayDiscussion   Phase = "day_discussion"
	PhaseDayVoting       Phase = "day_voting"
	PhaseDayResolution   Phase = "day_resolution"
	PhaseNightAction     Phase = "night_action"
	PhaseNightResolution Phase = "night_resolution"
	PhaseGameOver        Phase = "game_over"
)

// String returns the phase name.
func (p Phase) String() string { return string(p) }

// Valid reports whether the phase is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseSetup, PhaseDayDiscussion, PhaseDayVoting, PhaseDayResolution,
		PhaseNightAction, PhaseNightResolution, PhaseGameOver:
		return true
	}
	return false
}

// Next returns the phase that legally follows p in the round cycle.
// DayResolution and NightResolution may also transition to GameOver, which
// the engine decides after consulting the win evaluator; Next returns the
// non-terminal successor.
func (p Phase) Next() Phase {
	switch p {
	case PhaseSetup:
		return PhaseDayDiscussion
	case PhaseDayDiscussion:
		return PhaseDayVoting
	case PhaseDayVoting:
		return PhaseDayResolution
	case PhaseDayResolution:
		return PhaseNightAction
	case PhaseNightAction:
		return PhaseNightResolution
	case PhaseNightResolution:
		return PhaseDayDiscussion
	default:
		return PhaseGameOver
	}
}

// CanTransitionTo reports whether moving from p to next is a legal
// transition. GameOver is terminal and is reachable only from the two
// resolution phases.
func (p Phase) CanTransitionTo(next Phase) bool {
	if p == PhaseGameOver {
		return false
	}
	if next == PhaseGameOver {
		return p == PhaseDayResolution || p == PhaseNightResolution
	}
	return p.Next() == next
}

// ordinal positions phases within a round for ledger ordering. Setup sorts
// first and GameOver last.
func (p Phase) ordinal() int {
	switch p {
	case PhaseSetup:
		return 0
	case PhaseDayDiscussion:
		return 1
	case PhaseDayVoting:
		return 2
	case PhaseDayResolution:
		return 3
	case PhaseNightAction:
		return 4
	case PhaseNightResolution:
		return 5
	case PhaseGameOver:
		return 6
	default:
		return 7
	}
}

// Before reports whether p occurs earlier in a round than other.
// Used for round-then-phase ordering of ledger queries.
func (p Phase) Before(other Phase) bool {
	return p.ordinal() < other.ordinal()
}
