// Package provider defines the decision-provider boundary: the interface
// the engine calls to obtain an utterance, a vote, or a night action for a
// participant, plus the bundled implementations (random, scripted replay,
// OpenAI-compatible LLM).
//
// Providers are external collaborators. They may be slow, fail, or return
// garbage; the engine owns the timeout, validation, and abstain fallback.
// A provider is never given more than the participant's own
// visibility-filtered snapshot and ledger view.
package provider

import (
	"context"

	"github.com/nightfall-sim/nightfall/internal/game"
	"github.com/nightfall-sim/nightfall/internal/ledger"
)

// Request carries everything a provider may see when deciding for one
// participant: the participant's identity, the current round and phase, a
// visibility-filtered state snapshot, the participant's ledger view, and
// the ids the engine considers eligible targets for the decision.
type Request struct {
	Participant game.Participant
	Round       int
	Phase       game.Phase
	Snapshot    game.Snapshot
	View        []ledger.Entry
	Candidates  []string
}

// Utterance is a provider's reply to an utterance request. InnerThought is
// optional private reasoning, recorded as a player-private ledger entry.
type Utterance struct {
	Content      string
	InnerThought string
}

// VoteReply is a provider's reply to a vote request. Target may be
// game.AbstainTarget.
type VoteReply struct {
	Target       string
	InnerThought string
}

// ActionReply is a provider's reply to a night-action request.
type ActionReply struct {
	Kind         game.ActionKind
	Target       string
	InnerThought string
}

// Decider produces decisions for one participant. Implementations must be
// safe for concurrent use: the engine may solicit several participants at
// once, and round-robin assignments can hand the same Decider to more than
// one participant.
type Decider interface {
	// Utterance produces a discussion message for the current phase.
	Utterance(ctx context.Context, req Request) (Utterance, error)

	// Vote produces a day-phase elimination vote.
	Vote(ctx context.Context, req Request) (VoteReply, error)

	// NightAction produces a night action appropriate to the participant's
	// role.
	NightAction(ctx context.Context, req Request) (ActionReply, error)
}

// roleAction maps a role to its night-action kind. Villagers (and any
// unknown role) take no night action.
func roleAction(role game.Role) (game.ActionKind, bool) {
	switch role {
	case game.RoleMafia:
		return game.ActionKill, true
	case game.RoleGodfather:
		return game.ActionOverride, true
	case game.RoleDoctor:
		return game.ActionProtect, true
	case game.RoleDetective:
		return game.ActionInvestigate, true
	}
	return "", false
}
