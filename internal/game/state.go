package game

import (
	"fmt"

	"github.com/nightfall-sim/nightfall/internal/errors"
)

// State is the authoritative game state. It is owned by the engine and
// mutated only on the engine's control goroutine; it carries no locking of
// its own. Roster membership is fixed after setup — only Status changes.
type State struct {
	ID     string
	Round  int
	Phase  Phase
	Roster []*Participant

	// Cumulative history of resolved intents, current and past rounds.
	Votes   []Vote
	Actions []NightAction

	Winner Team // set exactly once, at the GameOver transition
	Over   bool
}

// NewState creates a State at round 0 in the Setup phase with the given
// roster. The roster must be non-empty with unique ids and valid roles.
func NewState(id string, roster []*Participant) (*State, error) {
	if len(roster) == 0 {
		return nil, errors.NewSetupError("roster is empty", errors.ErrSetupInvalid)
	}
	seen := make(map[string]bool, len(roster))
	for _, p := range roster {
		if p.ID == "" {
			return nil, errors.NewSetupError("participant with empty id", errors.ErrSetupInvalid)
		}
		if seen[p.ID] {
			return nil, errors.NewSetupError(
				fmt.Sprintf("duplicate participant id %q", p.ID), errors.ErrSetupInvalid)
		}
		seen[p.ID] = true
		if !p.Role.Valid() {
			return nil, errors.NewSetupError(
				fmt.Sprintf("participant %s has invalid role %q", p.ID, p.Role), errors.ErrSetupInvalid)
		}
	}
	return &State{
		ID:     id,
		Round:  0,
		Phase:  PhaseSetup,
		Roster: roster,
	}, nil
}

// Participant returns the roster entry with the given id, or nil.
func (s *State) Participant(id string) *Participant {
	for _, p := range s.Roster {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Alive returns the living participants in roster order.
func (s *State) Alive() []*Participant {
	alive := make([]*Participant, 0, len(s.Roster))
	for _, p := range s.Roster {
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	return alive
}

// AliveOnTeam returns the living participants of one team in roster order.
func (s *State) AliveOnTeam(team Team) []*Participant {
	var members []*Participant
	for _, p := range s.Roster {
		if p.Alive() && p.Team() == team {
			members = append(members, p)
		}
	}
	return members
}

// AliveCount returns (living mafia-team count, living village-team count).
func (s *State) AliveCount() (mafia, village int) {
	for _, p := range s.Roster {
		if !p.Alive() {
			continue
		}
		if p.Team() == TeamMafia {
			mafia++
		} else {
			village++
		}
	}
	return mafia, village
}

// RosterIndex returns the position of id in the roster, or -1.
// Roster order is the deterministic tie-break order for kill convergence.
func (s *State) RosterIndex(id string) int {
	for i, p := range s.Roster {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Transition advances the phase. An illegal transition is an invariant
// violation: it means the engine's state machine is broken, so it fails
// loudly rather than continuing.
func (s *State) Transition(next Phase) error {
	if !s.Phase.CanTransitionTo(next) {
		return errors.NewInvariantError(
			fmt.Sprintf("cannot transition from %s to %s", s.Phase, next),
			errors.ErrInvalidTransition,
		).WithRound(s.Round).WithPhase(s.Phase.String())
	}
	// Setup -> DayDiscussion starts round 1; each later return to
	// DayDiscussion starts the next round.
	if next == PhaseDayDiscussion {
		s.Round++
	}
	s.Phase = next
	return nil
}

// Eliminate marks a participant eliminated. Eliminating an unknown or
// already-eliminated participant is an invariant violation.
func (s *State) Eliminate(id string) error {
	p := s.Participant(id)
	if p == nil {
		return errors.NewInvariantError(
			fmt.Sprintf("eliminate: participant %q not in roster", id),
			errors.ErrUnknownParticipant,
		).WithRound(s.Round).WithPhase(s.Phase.String())
	}
	if !p.Alive() {
		return errors.NewInvariantError(
			fmt.Sprintf("eliminate: participant %s already eliminated", id),
			errors.ErrParticipantDead,
		).WithRound(s.Round).WithPhase(s.Phase.String())
	}
	p.Status = StatusEliminated
	return nil
}

// Finish records the winning team and moves to GameOver. Exactly one team
// ever wins; calling Finish twice is an invariant violation.
func (s *State) Finish(winner Team) error {
	if s.Over {
		return errors.NewInvariantError("game already finished", errors.ErrGameOver).
			WithRound(s.Round).WithPhase(s.Phase.String())
	}
	if err := s.Transition(PhaseGameOver); err != nil {
		return err
	}
	s.Winner = winner
	s.Over = true
	return nil
}

// RecordVote appends a resolved vote to the cumulative history.
func (s *State) RecordVote(v Vote) {
	s.Votes = append(s.Votes, v)
}

// RecordAction appends a resolved night action to the cumulative history.
func (s *State) RecordAction(a NightAction) {
	s.Actions = append(s.Actions, a)
}
