// Package feed defines the typed event stream the kernel pushes to the
// presentation layer. Delivery is at-least-once and fire-and-forget: the
// kernel never blocks on a consumer. Subscribers receive events on bounded
// channels with a drop-oldest backpressure policy.
package feed

import (
	"time"

	"github.com/nightfall-sim/nightfall/internal/game"
)

// Event is the interface all feed events implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "phase.changed", "chat.message")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// Round returns the game round the event belongs to.
	Round() int
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Rnd  int       `json:"round"`
}

func (e baseEvent) EventType() string    { return e.Type }
func (e baseEvent) Timestamp() time.Time { return e.Time }
func (e baseEvent) Round() int           { return e.Rnd }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string, round int) baseEvent {
	return baseEvent{
		Type: eventType,
		Time: time.Now(),
		Rnd:  round,
	}
}

// -----------------------------------------------------------------------------
// Game Lifecycle Events
// -----------------------------------------------------------------------------

// GameStartedEvent is emitted once, after roles are assigned.
type GameStartedEvent struct {
	baseEvent
	GameID  string `json:"game_id"`
	Players int    `json:"players"`
}

// NewGameStartedEvent creates a GameStartedEvent.
func NewGameStartedEvent(gameID string, players int) GameStartedEvent {
	return GameStartedEvent{
		baseEvent: newBaseEvent("game.started", 0),
		GameID:    gameID,
		Players:   players,
	}
}

// GameOverEvent is emitted at the GameOver transition.
type GameOverEvent struct {
	baseEvent
	GameID string    `json:"game_id"`
	Winner game.Team `json:"winner"`
	Rounds int       `json:"rounds"`
}

// NewGameOverEvent creates a GameOverEvent.
func NewGameOverEvent(gameID string, winner game.Team, rounds int) GameOverEvent {
	return GameOverEvent{
		baseEvent: newBaseEvent("game.over", rounds),
		GameID:    gameID,
		Winner:    winner,
		Rounds:    rounds,
	}
}

// -----------------------------------------------------------------------------
// Phase Events
// -----------------------------------------------------------------------------

// PhaseChangeEvent is emitted on every phase transition.
type PhaseChangeEvent struct {
	baseEvent
	Previous game.Phase `json:"previous"`
	Current  game.Phase `json:"current"`
}

// NewPhaseChangeEvent creates a PhaseChangeEvent.
func NewPhaseChangeEvent(round int, previous, current game.Phase) PhaseChangeEvent {
	return PhaseChangeEvent{
		baseEvent: newBaseEvent("phase.changed", round),
		Previous:  previous,
		Current:   current,
	}
}

// -----------------------------------------------------------------------------
// Participant Events
// -----------------------------------------------------------------------------

// ChatMessageEvent is emitted for every utterance. TeamOnly marks mafia
// night-chat messages, which the presentation layer renders separately.
type ChatMessageEvent struct {
	baseEvent
	Speaker  string     `json:"speaker"`
	Name     string     `json:"name"`
	Phase    game.Phase `json:"phase"`
	Content  string     `json:"content"`
	TeamOnly bool       `json:"team_only,omitempty"`
}

// NewChatMessageEvent creates a ChatMessageEvent.
func NewChatMessageEvent(round int, phase game.Phase, speaker, name, content string, teamOnly bool) ChatMessageEvent {
	return ChatMessageEvent{
		baseEvent: newBaseEvent("chat.message", round),
		Speaker:   speaker,
		Name:      name,
		Phase:     phase,
		Content:   content,
		TeamOnly:  teamOnly,
	}
}

// VoteCastEvent is emitted for every recorded day vote.
type VoteCastEvent struct {
	baseEvent
	Voter     string `json:"voter"`
	Target    string `json:"target"`
	Abstained bool   `json:"abstained"`
}

// NewVoteCastEvent creates a VoteCastEvent.
func NewVoteCastEvent(round int, voter, target string, abstained bool) VoteCastEvent {
	return VoteCastEvent{
		baseEvent: newBaseEvent("vote.cast", round),
		Voter:     voter,
		Target:    target,
		Abstained: abstained,
	}
}

// NightActionEvent is emitted for every recorded night action. The target
// is included: the feed is an operator surface, not a participant view, so
// it carries full information like the transcript does.
type NightActionEvent struct {
	baseEvent
	Actor  string          `json:"actor"`
	Kind   game.ActionKind `json:"kind"`
	Target string          `json:"target"`
}

// NewNightActionEvent creates a NightActionEvent.
func NewNightActionEvent(round int, actor string, kind game.ActionKind, target string) NightActionEvent {
	return NightActionEvent{
		baseEvent: newBaseEvent("night.action", round),
		Actor:     actor,
		Kind:      kind,
		Target:    target,
	}
}

// EliminationEvent is emitted when a participant is eliminated, by vote or
// by night kill. Role is populated only when role reveal is enabled.
type EliminationEvent struct {
	baseEvent
	Participant string     `json:"participant"`
	Name        string     `json:"name"`
	Phase       game.Phase `json:"phase"`
	Role        game.Role  `json:"role,omitempty"`
	Cause       string     `json:"cause"` // "vote" or "kill"
}

// NewEliminationEvent creates an EliminationEvent.
func NewEliminationEvent(round int, phase game.Phase, participantID, name string, role game.Role, cause string) EliminationEvent {
	return EliminationEvent{
		baseEvent:   newBaseEvent("player.eliminated", round),
		Participant: participantID,
		Name:        name,
		Phase:       phase,
		Role:        role,
		Cause:       cause,
	}
}

// ProtectionEvent is emitted when the doctor's protection negates the
// converged kill. The saved target is not named publicly.
type ProtectionEvent struct {
	baseEvent
}

// NewProtectionEvent creates a ProtectionEvent.
func NewProtectionEvent(round int) ProtectionEvent {
	return ProtectionEvent{
		baseEvent: newBaseEvent("player.protected", round),
	}
}

// VoteTieEvent is emitted when a day vote ties and no one is eliminated.
type VoteTieEvent struct {
	baseEvent
	Tied []string `json:"tied"`
}

// NewVoteTieEvent creates a VoteTieEvent.
func NewVoteTieEvent(round int, tied []string) VoteTieEvent {
	return VoteTieEvent{
		baseEvent: newBaseEvent("vote.tie", round),
		Tied:      tied,
	}
}

// -----------------------------------------------------------------------------
// Provider Events
// -----------------------------------------------------------------------------

// ProviderTimeoutEvent is emitted when a decision provider fails to respond
// and the participant degrades to an abstain or no-op. Informational.
type ProviderTimeoutEvent struct {
	baseEvent
	Participant string     `json:"participant"`
	Phase       game.Phase `json:"phase"`
}

// NewProviderTimeoutEvent creates a ProviderTimeoutEvent.
func NewProviderTimeoutEvent(round int, phase game.Phase, participantID string) ProviderTimeoutEvent {
	return ProviderTimeoutEvent{
		baseEvent:   newBaseEvent("provider.timeout", round),
		Participant: participantID,
		Phase:       phase,
	}
}

// ProviderInvalidEvent is emitted when a provider reply was rejected (for
// example a vote naming an eliminated participant). Informational.
type ProviderInvalidEvent struct {
	baseEvent
	Participant string     `json:"participant"`
	Phase       game.Phase `json:"phase"`
	Reason      string     `json:"reason"`
}

// NewProviderInvalidEvent creates a ProviderInvalidEvent.
func NewProviderInvalidEvent(round int, phase game.Phase, participantID, reason string) ProviderInvalidEvent {
	return ProviderInvalidEvent{
		baseEvent:   newBaseEvent("provider.invalid", round),
		Participant: participantID,
		Phase:       phase,
		Reason:      reason,
	}
}
