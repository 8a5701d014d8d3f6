package game

import (
	"fmt"
	"math/rand"

	"github.com/nightfall-sim/nightfall/internal/errors"
)

// RoleCounts is the configured role distribution. Villagers are the
// remainder once the special roles are assigned.
type RoleCounts struct {
	Mafia     int
	Godfather int
	Doctor    int
	Detective int
}

// Special returns the number of non-villager slots.
func (c RoleCounts) Special() int {
	return c.Mafia + c.Godfather + c.Doctor + c.Detective
}

// MafiaTeam returns the number of mafia-aligned slots.
func (c RoleCounts) MafiaTeam() int {
	return c.Mafia + c.Godfather
}

// String renders the counts for error messages.
func (c RoleCounts) String() string {
	return fmt.Sprintf("mafia=%d godfather=%d doctor=%d detective=%d",
		c.Mafia, c.Godfather, c.Doctor, c.Detective)
}

// Validate checks that the counts can produce a playable game for the given
// roster size: every count non-negative, at most one godfather, at least one
// mafia-team member, at least one village-team member, and the special roles
// fitting inside the roster.
func (c RoleCounts) Validate(players int) error {
	if players < 3 {
		return errors.NewSetupError("at least 3 players required", errors.ErrSetupInvalid).
			WithPlayers(players)
	}
	if c.Mafia < 0 || c.Godfather < 0 || c.Doctor < 0 || c.Detective < 0 {
		return errors.NewSetupError("role counts must be non-negative", errors.ErrSetupInvalid).
			WithPlayers(players).WithRoles(c.String())
	}
	if c.Godfather > 1 {
		return errors.NewSetupError("at most one godfather", errors.ErrSetupInvalid).
			WithPlayers(players).WithRoles(c.String())
	}
	if c.MafiaTeam() == 0 {
		return errors.NewSetupError("at least one mafia-team role required", errors.ErrSetupInvalid).
			WithPlayers(players).WithRoles(c.String())
	}
	if c.Special() > players {
		return errors.NewSetupError("role counts exceed player count", errors.ErrSetupInvalid).
			WithPlayers(players).WithRoles(c.String())
	}
	if c.MafiaTeam() >= players-c.MafiaTeam() {
		return errors.NewSetupError("mafia team must start as a minority", errors.ErrSetupInvalid).
			WithPlayers(players).WithRoles(c.String())
	}
	return nil
}

// AssignRoles builds a roster from display names and a role distribution.
// Roles are shuffled with the provided source; ids are "player-1" through
// "player-N" in roster order. The multiset of assigned roles always matches
// the configured counts exactly.
func AssignRoles(names []string, counts RoleCounts, rng *rand.Rand) ([]*Participant, error) {
	if err := counts.Validate(len(names)); err != nil {
		return nil, err
	}

	roles := make([]Role, 0, len(names))
	for range counts.Mafia {
		roles = append(roles, RoleMafia)
	}
	for range counts.Godfather {
		roles = append(roles, RoleGodfather)
	}
	for range counts.Doctor {
		roles = append(roles, RoleDoctor)
	}
	for range counts.Detective {
		roles = append(roles, RoleDetective)
	}
	for len(roles) < len(names) {
		roles = append(roles, RoleVillager)
	}

	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	roster := make([]*Participant, len(names))
	for i, name := range names {
		roster[i] = &Participant{
			ID:     fmt.Sprintf("player-%d", i+1),
			Name:   name,
			Role:   roles[i],
			Status: StatusAlive,
		}
	}
	return roster, nil
}
