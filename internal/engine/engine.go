// Package engine drives a game from setup to completion. The engine owns
// the authoritative state and the ledger; all mutation happens on the
// single goroutine running the phase loop. Provider solicitation is the
// only concurrent part, and replies are applied sequentially in roster
// order so identical inputs always produce identical games.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nightfall-sim/nightfall/internal/errors"
	"github.com/nightfall-sim/nightfall/internal/feed"
	"github.com/nightfall-sim/nightfall/internal/game"
	"github.com/nightfall-sim/nightfall/internal/ledger"
	"github.com/nightfall-sim/nightfall/internal/logging"
	"github.com/nightfall-sim/nightfall/internal/provider"
	"github.com/nightfall-sim/nightfall/internal/resolve"
)

const (
	// DefaultSolicitTimeout bounds one provider call.
	DefaultSolicitTimeout = 30 * time.Second

	// DefaultMaxRounds aborts a game that refuses to converge. With
	// eliminations most rounds, real games end far earlier.
	DefaultMaxRounds = 30
)

// Config parameterizes one game run.
type Config struct {
	// DiscussionRounds is how many times each living participant speaks
	// during one day discussion phase. Minimum 1.
	DiscussionRounds int

	// MafiaChatRounds is how many rounds of private mafia coordination
	// chat precede the night-action solicitation. Zero disables the chat.
	MafiaChatRounds int

	// AllowSelfVote permits a participant to vote for their own
	// elimination. Off by default; a self-vote is then treated as invalid
	// and becomes an abstention.
	AllowSelfVote bool

	// RevealRoleOnDeath includes the eliminated participant's true role in
	// the public elimination announcement.
	RevealRoleOnDeath bool

	// Parallel solicits independent decisions (votes, night actions)
	// concurrently. Discussion is always sequential so each speaker sees
	// what was said before them.
	Parallel bool

	// SolicitTimeout bounds each provider call. Zero uses
	// DefaultSolicitTimeout.
	SolicitTimeout time.Duration

	// MaxRounds aborts the game if it is still running after this many
	// rounds. Zero uses DefaultMaxRounds.
	MaxRounds int
}

func (c *Config) applyDefaults() {
	if c.DiscussionRounds < 1 {
		c.DiscussionRounds = 1
	}
	if c.SolicitTimeout <= 0 {
		c.SolicitTimeout = DefaultSolicitTimeout
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = DefaultMaxRounds
	}
}

// Result is the outcome of a completed game.
type Result struct {
	Winner game.Team
	Rounds int
}

// Engine runs one game. Create with New, drive with Run. An Engine is not
// reusable across games; Reset prepares a fresh game with the same roster.
type Engine struct {
	cfg       Config
	state     *game.State
	ledger    *ledger.Ledger
	feed      *feed.Feed
	providers provider.Assignment
	log       *logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates an engine for the given roster. The roster is validated the
// same way setup validates it; the feed may be nil for headless use.
func New(gameID string, roster []*game.Participant, providers provider.Assignment, fd *feed.Feed, log *logging.Logger, cfg Config) (*Engine, error) {
	cfg.applyDefaults()

	state, err := game.NewState(gameID, roster)
	if err != nil {
		return nil, err
	}
	for _, p := range roster {
		if providers.For(p.ID) == nil {
			return nil, errors.NewSetupError(
				fmt.Sprintf("participant %s has no decision provider", p.ID),
				errors.ErrSetupInvalid)
		}
	}
	if log == nil {
		log = logging.NopLogger()
	}

	return &Engine{
		cfg:       cfg,
		state:     state,
		ledger:    ledger.New(),
		feed:      fd,
		providers: providers,
		log:       log.WithGame(gameID),
	}, nil
}

// State exposes the engine's state for inspection after Run returns. The
// engine's goroutine owns it while Run is in flight.
func (e *Engine) State() *game.State { return e.state }

// Ledger exposes the engine's ledger. Safe to query concurrently.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// Result returns the outcome of a finished game.
func (e *Engine) Result() (Result, bool) {
	if !e.state.Over {
		return Result{}, false
	}
	return Result{Winner: e.state.Winner, Rounds: e.state.Round}, true
}

// Run drives the phase loop until one team wins or the context is
// canceled. It must be called at most once per game.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		cancel()
		return errors.NewInvariantError("engine already running", errors.ErrInvalidTransition)
	}
	e.running = true
	e.cancel = cancel
	done := make(chan struct{})
	e.done = done
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.cancel = nil
		e.done = nil
		e.mu.Unlock()
		cancel()
		// Closed only after the loop has stopped touching state and
		// ledger; Reset blocks on it before rebuilding them.
		close(done)
	}()

	e.log.Info("game starting", "players", len(e.state.Roster))
	e.publish(feed.NewGameStartedEvent(e.state.ID, len(e.state.Roster)))

	for !e.state.Over {
		if err := ctx.Err(); err != nil {
			return errors.Join(errors.ErrGameAborted, err)
		}
		if e.state.Round > e.cfg.MaxRounds {
			return errors.NewInvariantError(
				fmt.Sprintf("game exceeded %d rounds without a winner", e.cfg.MaxRounds),
				errors.ErrGameAborted).WithRound(e.state.Round)
		}

		var err error
		switch e.state.Phase {
		case game.PhaseSetup:
			err = e.transition(game.PhaseDayDiscussion)
		case game.PhaseDayDiscussion:
			if err = e.runDayDiscussion(ctx); err == nil {
				err = e.transition(game.PhaseDayVoting)
			}
		case game.PhaseDayVoting:
			if err = e.runDayVoting(ctx); err == nil {
				err = e.transition(game.PhaseDayResolution)
			}
		case game.PhaseDayResolution:
			err = e.runDayResolution()
		case game.PhaseNightAction:
			if err = e.runNightAction(ctx); err == nil {
				err = e.transition(game.PhaseNightResolution)
			}
		case game.PhaseNightResolution:
			err = e.runNightResolution()
		default:
			err = errors.NewInvariantError(
				fmt.Sprintf("phase loop reached %s", e.state.Phase),
				errors.ErrInvalidTransition).WithRound(e.state.Round)
		}
		if err != nil {
			return err
		}
	}

	e.log.Info("game over", "winner", e.state.Winner, "rounds", e.state.Round)
	return nil
}

// Reset cancels any in-flight run and discards all progress, restoring a
// fresh game with the same roster and a clean ledger. The half-finished
// game leaves no trace.
func (e *Engine) Reset() error {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	roster := make([]*game.Participant, len(e.state.Roster))
	for i, p := range e.state.Roster {
		fresh := *p
		fresh.Status = game.StatusAlive
		roster[i] = &fresh
	}
	state, err := game.NewState(e.state.ID, roster)
	if err != nil {
		return err
	}
	e.state = state
	e.ledger = ledger.New()
	e.log.Info("game reset")
	return nil
}

// transition advances the phase and publishes the change.
func (e *Engine) transition(next game.Phase) error {
	prev := e.state.Phase
	if err := e.state.Transition(next); err != nil {
		return err
	}
	e.log.WithPhase(string(next)).Debug("phase change", "round", e.state.Round, "from", prev)
	e.publish(feed.NewPhaseChangeEvent(e.state.Round, prev, next))
	return nil
}

// finish records the winner and announces the end of the game.
func (e *Engine) finish(winner game.Team) error {
	if err := e.state.Finish(winner); err != nil {
		return err
	}
	e.appendEvent("game.over", fmt.Sprintf("the %s team wins", winner))
	e.publish(feed.NewGameOverEvent(e.state.ID, winner, e.state.Round))
	return nil
}

// checkWin evaluates the win conditions and finishes the game when one
// holds. It reports whether the game ended.
func (e *Engine) checkWin() (bool, error) {
	v := resolve.Win(e.state)
	if !v.Over {
		return false, nil
	}
	return true, e.finish(v.Winner)
}

// runDayDiscussion solicits public utterances sequentially in roster order,
// repeating for the configured number of discussion rounds. Sequential
// solicitation is deliberate: each speaker's view includes everything said
// before their turn.
func (e *Engine) runDayDiscussion(ctx context.Context) error {
	for range e.cfg.DiscussionRounds {
		for _, p := range e.state.Alive() {
			if err := ctx.Err(); err != nil {
				return errors.Join(errors.ErrGameAborted, err)
			}
			u, err := e.solicitUtterance(ctx, p, nil)
			if err != nil {
				if cerr := ctx.Err(); cerr != nil {
					return errors.Join(errors.ErrGameAborted, cerr)
				}
				e.reportSolicitError(p, err)
				continue
			}
			if u.Content == "" {
				continue
			}
			if err := e.appendUtterance(p, u, ledger.Public()); err != nil {
				return err
			}
			e.publish(feed.NewChatMessageEvent(e.state.Round, e.state.Phase, p.ID, p.Name, u.Content, false))
		}
	}
	return nil
}

// runDayVoting solicits one elimination vote from every living participant
// and applies the replies in roster order. A timeout, a provider failure,
// or an invalid target becomes an abstention; the round never stalls on a
// misbehaving provider.
func (e *Engine) runDayVoting(ctx context.Context) error {
	alive := e.state.Alive()
	replies := e.solicit(ctx, alive, func(ctx context.Context, p *game.Participant) (replyValue, error) {
		req := e.request(p, e.voteCandidates(p))
		v, err := e.providers.For(p.ID).Vote(ctx, req)
		return replyValue{target: v.Target, thought: v.InnerThought}, err
	})

	for i, p := range alive {
		if err := ctx.Err(); err != nil {
			return errors.Join(errors.ErrGameAborted, err)
		}
		r := replies[i]
		target := r.value.target

		switch {
		case r.err != nil:
			e.reportSolicitError(p, r.err)
			target = game.AbstainTarget
		case target != game.AbstainTarget:
			if reason := e.invalidVoteReason(p, target); reason != "" {
				e.publish(feed.NewProviderInvalidEvent(e.state.Round, e.state.Phase, p.ID, reason))
				e.log.Warn("invalid vote treated as abstention",
					"participant", p.ID, "target", target, "reason", reason)
				target = game.AbstainTarget
			}
		}

		vote := game.Vote{Voter: p.ID, Target: target, Round: e.state.Round}
		e.state.RecordVote(vote)
		if err := e.appendIntent(ledger.Entry{
			Type:       ledger.EntryVote,
			Visibility: ledger.Public(),
			Actor:      p.ID,
			Target:     target,
		}, p, r.value.thought); err != nil {
			return err
		}
		e.publish(feed.NewVoteCastEvent(e.state.Round, p.ID, target, vote.Abstained()))
	}
	return nil
}

// runDayResolution tallies the round's votes, applies an elimination when
// the plurality is unambiguous, and evaluates the win conditions.
func (e *Engine) runDayResolution() error {
	out := resolve.Votes(e.roundVotes())

	switch {
	case out.Eliminated != "":
		if err := e.eliminate(out.Eliminated, "vote"); err != nil {
			return err
		}
	case len(out.Tied) > 0:
		e.appendEvent("vote.tie", "the vote was tied; no one was eliminated")
		e.publish(feed.NewVoteTieEvent(e.state.Round, out.Tied))
	default:
		e.appendEvent("vote.none", "no votes were cast; no one was eliminated")
	}

	if over, err := e.checkWin(); over || err != nil {
		return err
	}
	return e.transition(game.PhaseNightAction)
}

// runNightAction runs the optional mafia coordination chat, then solicits
// night actions from every living role-holder.
func (e *Engine) runNightAction(ctx context.Context) error {
	if err := e.runMafiaChat(ctx); err != nil {
		return err
	}

	actors := e.nightActors()
	replies := e.solicit(ctx, actors, func(ctx context.Context, p *game.Participant) (replyValue, error) {
		req := e.request(p, e.actionCandidates(p))
		a, err := e.providers.For(p.ID).NightAction(ctx, req)
		return replyValue{kind: a.Kind, target: a.Target, thought: a.InnerThought}, err
	})

	for i, p := range actors {
		if err := ctx.Err(); err != nil {
			return errors.Join(errors.ErrGameAborted, err)
		}
		r := replies[i]
		if r.err != nil {
			e.reportSolicitError(p, r.err)
			continue
		}
		if r.value.target == "" {
			continue
		}
		if reason := e.invalidActionReason(p, r.value.kind, r.value.target); reason != "" {
			e.publish(feed.NewProviderInvalidEvent(e.state.Round, e.state.Phase, p.ID, reason))
			e.log.Warn("invalid night action dropped",
				"participant", p.ID, "kind", string(r.value.kind), "target", r.value.target, "reason", reason)
			continue
		}

		action := game.NightAction{Actor: p.ID, Kind: r.value.kind, Target: r.value.target, Round: e.state.Round}
		e.state.RecordAction(action)
		if err := e.appendIntent(ledger.Entry{
			Type:       ledger.EntryAction,
			Visibility: e.actionVisibility(p),
			Actor:      p.ID,
			Target:     r.value.target,
			Kind:       string(r.value.kind),
		}, p, r.value.thought); err != nil {
			return err
		}
		e.publish(feed.NewNightActionEvent(e.state.Round, p.ID, r.value.kind, r.value.target))
	}
	return nil
}

// runMafiaChat runs the configured rounds of private mafia-team chat,
// sequential in roster order like day discussion.
func (e *Engine) runMafiaChat(ctx context.Context) error {
	if e.cfg.MafiaChatRounds == 0 {
		return nil
	}
	mafia := e.state.AliveOnTeam(game.TeamMafia)
	if len(mafia) < 2 {
		// Nothing to coordinate alone.
		return nil
	}

	for range e.cfg.MafiaChatRounds {
		for _, p := range mafia {
			if err := ctx.Err(); err != nil {
				return errors.Join(errors.ErrGameAborted, err)
			}
			u, err := e.solicitUtterance(ctx, p, e.actionCandidates(p))
			if err != nil {
				if cerr := ctx.Err(); cerr != nil {
					return errors.Join(errors.ErrGameAborted, cerr)
				}
				e.reportSolicitError(p, err)
				continue
			}
			if u.Content == "" {
				continue
			}
			if err := e.appendUtterance(p, u, ledger.TeamPrivate(game.TeamMafia)); err != nil {
				return err
			}
			e.publish(feed.NewChatMessageEvent(e.state.Round, e.state.Phase, p.ID, p.Name, u.Content, true))
		}
	}
	return nil
}

// runNightResolution applies the night's converged actions, delivers
// investigation results, and evaluates the win conditions.
func (e *Engine) runNightResolution() error {
	out := resolve.Night(e.state, e.roundActions())

	switch {
	case out.Killed != "":
		if err := e.eliminate(out.Killed, "kill"); err != nil {
			return err
		}
	case out.Saved:
		e.appendEvent("night.saved", "an attack was thwarted last night")
		e.publish(feed.NewProtectionEvent(e.state.Round))
	default:
		e.appendEvent("night.quiet", "the night passed without bloodshed")
	}

	for _, inv := range out.Investigations {
		verdict := fmt.Sprintf("your investigation of %s found: %s", inv.Target, inv.Verdict)
		if err := e.ledgerAppend(ledger.Entry{
			Type:       ledger.EntryEvent,
			Visibility: ledger.PlayerPrivate(inv.Investigator),
			Actor:      inv.Investigator,
			Target:     inv.Target,
			Kind:       "investigation.result",
			Content:    verdict,
		}); err != nil {
			return err
		}
	}

	if over, err := e.checkWin(); over || err != nil {
		return err
	}
	return e.transition(game.PhaseDayDiscussion)
}

// eliminate applies one elimination and announces it. The public
// announcement includes the true role only when configured to reveal it.
func (e *Engine) eliminate(id, cause string) error {
	p := e.state.Participant(id)
	if err := e.state.Eliminate(id); err != nil {
		return err
	}

	role := game.Role("")
	desc := fmt.Sprintf("%s was eliminated", p.Name)
	if e.cfg.RevealRoleOnDeath {
		role = p.Role
		desc = fmt.Sprintf("%s was eliminated; they were a %s", p.Name, p.Role)
	}
	e.log.Info("participant eliminated", "participant", id, "cause", cause)
	e.appendEvent("player.eliminated", desc)
	e.publish(feed.NewEliminationEvent(e.state.Round, e.state.Phase, id, p.Name, role, cause))
	return nil
}

// roundVotes returns the votes recorded for the current round.
func (e *Engine) roundVotes() []game.Vote {
	var votes []game.Vote
	for _, v := range e.state.Votes {
		if v.Round == e.state.Round {
			votes = append(votes, v)
		}
	}
	return votes
}

// roundActions returns the night actions recorded for the current round.
func (e *Engine) roundActions() []game.NightAction {
	var actions []game.NightAction
	for _, a := range e.state.Actions {
		if a.Round == e.state.Round {
			actions = append(actions, a)
		}
	}
	return actions
}

// nightActors returns the living participants whose roles act at night, in
// roster order.
func (e *Engine) nightActors() []*game.Participant {
	var actors []*game.Participant
	for _, p := range e.state.Alive() {
		if p.Role != game.RoleVillager {
			actors = append(actors, p)
		}
	}
	return actors
}

// voteCandidates returns the ids a participant may vote to eliminate.
func (e *Engine) voteCandidates(voter *game.Participant) []string {
	var ids []string
	for _, p := range e.state.Alive() {
		if p.ID == voter.ID && !e.cfg.AllowSelfVote {
			continue
		}
		ids = append(ids, p.ID)
	}
	return ids
}

// actionCandidates returns the ids a role-holder may target tonight.
// Mafia-team kills exclude teammates; the detective cannot investigate
// themselves; the doctor may protect anyone, themselves included.
func (e *Engine) actionCandidates(actor *game.Participant) []string {
	var ids []string
	for _, p := range e.state.Alive() {
		switch actor.Role {
		case game.RoleMafia, game.RoleGodfather:
			if p.Team() == game.TeamMafia {
				continue
			}
		case game.RoleDetective:
			if p.ID == actor.ID {
				continue
			}
		}
		ids = append(ids, p.ID)
	}
	return ids
}

// invalidVoteReason reports why a vote target is ineligible, or empty.
func (e *Engine) invalidVoteReason(voter *game.Participant, target string) string {
	t := e.state.Participant(target)
	switch {
	case t == nil:
		return "unknown target"
	case !t.Alive():
		return "target already eliminated"
	case t.ID == voter.ID && !e.cfg.AllowSelfVote:
		return "self-vote not permitted"
	}
	return ""
}

// invalidActionReason reports why a night action is ineligible, or empty.
func (e *Engine) invalidActionReason(actor *game.Participant, kind game.ActionKind, target string) string {
	wantKind, ok := roleActionKind(actor.Role)
	if !ok {
		return "role takes no night action"
	}
	if kind != wantKind {
		return fmt.Sprintf("role %s cannot perform %s", actor.Role, kind)
	}

	t := e.state.Participant(target)
	switch {
	case t == nil:
		return "unknown target"
	case !t.Alive():
		return "target already eliminated"
	}
	switch actor.Role {
	case game.RoleMafia, game.RoleGodfather:
		if t.Team() == game.TeamMafia {
			return "cannot target a teammate"
		}
	case game.RoleDetective:
		if t.ID == actor.ID {
			return "cannot investigate yourself"
		}
	}
	return ""
}

// actionVisibility scopes a night-action intent entry: mafia kills are
// team-visible, doctor and detective intents are private to the actor.
func (e *Engine) actionVisibility(actor *game.Participant) ledger.Visibility {
	if actor.Team() == game.TeamMafia {
		return ledger.TeamPrivate(game.TeamMafia)
	}
	return ledger.PlayerPrivate(actor.ID)
}

// roleActionKind mirrors the role-to-action mapping providers use.
func roleActionKind(role game.Role) (game.ActionKind, bool) {
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

// appendUtterance records a message entry plus the optional inner thought.
func (e *Engine) appendUtterance(p *game.Participant, u provider.Utterance, vis ledger.Visibility) error {
	if err := e.ledgerAppend(ledger.Entry{
		Type:       ledger.EntryMessage,
		Visibility: vis,
		Actor:      p.ID,
		Content:    u.Content,
	}); err != nil {
		return err
	}
	return e.appendThought(p, u.InnerThought)
}

// appendIntent records a vote or action entry plus the optional thought.
func (e *Engine) appendIntent(entry ledger.Entry, p *game.Participant, thought string) error {
	if err := e.ledgerAppend(entry); err != nil {
		return err
	}
	return e.appendThought(p, thought)
}

// appendThought records private reasoning visible only to its author.
func (e *Engine) appendThought(p *game.Participant, thought string) error {
	if thought == "" {
		return nil
	}
	return e.ledgerAppend(ledger.Entry{
		Type:       ledger.EntryInnerThought,
		Visibility: ledger.PlayerPrivate(p.ID),
		Actor:      p.ID,
		Content:    thought,
	})
}

// appendEvent records a public narrative event entry.
func (e *Engine) appendEvent(kind, content string) {
	// Public events cannot fail validation; an error here is a bug.
	if err := e.ledgerAppend(ledger.Entry{
		Type:       ledger.EntryEvent,
		Visibility: ledger.Public(),
		Kind:       kind,
		Content:    content,
	}); err != nil {
		e.log.Error("event entry rejected", "kind", kind, "error", err.Error())
	}
}

// ledgerAppend stamps the current round and phase onto an entry.
func (e *Engine) ledgerAppend(entry ledger.Entry) error {
	entry.Round = e.state.Round
	entry.Phase = e.state.Phase
	return e.ledger.Append(entry)
}

// publish sends a feed event when a feed is attached.
func (e *Engine) publish(ev feed.Event) {
	if e.feed != nil {
		e.feed.Publish(ev)
	}
}

// reportSolicitError logs and publishes a failed solicitation.
func (e *Engine) reportSolicitError(p *game.Participant, err error) {
	if errors.IsTimeout(err) {
		e.log.Warn("provider timed out", "participant", p.ID, "phase", string(e.state.Phase))
		e.publish(feed.NewProviderTimeoutEvent(e.state.Round, e.state.Phase, p.ID))
		return
	}
	e.log.Warn("provider failed", "participant", p.ID, "error", err.Error())
	e.publish(feed.NewProviderInvalidEvent(e.state.Round, e.state.Phase, p.ID, err.Error()))
}
