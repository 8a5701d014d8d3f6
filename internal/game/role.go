// Package game defines the entity model for a Nightfall simulation:
// roles, teams, phases, participants, and the authoritative game state.
// All state mutation goes through the engine-invoked methods here; nothing
// else in the codebase writes to a participant or the state directly.
package game

// Role is a closed tagged variant. The action set per role is small and
// fixed, so resolvers dispatch on it explicitly rather than through any
// kind of role hierarchy.
type Role string

const (
	RoleVillager  Role = "villager"
	RoleMafia     Role = "mafia"
	RoleDoctor    Role = "doctor"
	RoleDetective Role = "detective"
	RoleGodfather Role = "godfather"
)

// Valid reports whether the role is one of the five known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleVillager, RoleMafia, RoleDoctor, RoleDetective, RoleGodfather:
		return true
	}
	return false
}

// Team returns the faction the role belongs to. The mapping is a pure
// function of role: Mafia and Godfather align with the Mafia team,
// everyone else with the Village.
func (r Role) Team() Team {
	if r == RoleMafia || r == RoleGodfather {
		return TeamMafia
	}
	return TeamVillage
}

// String returns the role name.
func (r Role) String() string { return string(r) }

// Team is one of the two opposing factions.
type Team string

const (
	TeamVillage Team = "village"
	TeamMafia   Team = "mafia"
)

// String returns the team name.
func (t Team) String() string { return string(t) }

// Status is a participant's liveness. The only legal transition is
// Alive to Eliminated; it is never reversed.
type Status string

const (
	StatusAlive      Status = "alive"
	StatusEliminated Status = "eliminated"
)
