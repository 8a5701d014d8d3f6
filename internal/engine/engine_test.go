package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/nightfall-sim/nightfall/internal/errors"
	"github.com/nightfall-sim/nightfall/internal/feed"
	"github.com/nightfall-sim/nightfall/internal/game"
	"github.com/nightfall-sim/nightfall/internal/ledger"
	"github.com/nightfall-sim/nightfall/internal/provider"
)

// fiveRoster is a fixed 5-player roster: one mafia against a doctor, a
// detective, and two villagers.
func fiveRoster() []*game.Participant {
	return []*game.Participant{
		{ID: "player-1", Name: "Avery", Role: game.RoleVillager, Status: game.StatusAlive},
		{ID: "player-2", Name: "Blake", Role: game.RoleVillager, Status: game.StatusAlive},
		{ID: "player-3", Name: "Casey", Role: game.RoleMafia, Status: game.StatusAlive},
		{ID: "player-4", Name: "Drew", Role: game.RoleDoctor, Status: game.StatusAlive},
		{ID: "player-5", Name: "Emery", Role: game.RoleDetective, Status: game.StatusAlive},
	}
}

func sameDecider(roster []*game.Participant, d provider.Decider) provider.Assignment {
	return provider.Assign(roster, []provider.Decider{d})
}

// scriptedGame builds the scripted two-round game used by several tests:
// round 1 everyone abstains, the mafia's night kill is negated by the
// doctor's protection, and round 2 the village votes the mafia out.
func scriptedGame() []ledger.Entry {
	vote := func(round int, actor, target string) ledger.Entry {
		return ledger.Entry{Type: ledger.EntryVote, Round: round, Phase: game.PhaseDayVoting, Actor: actor, Target: target}
	}
	action := func(round int, actor, kind, target string) ledger.Entry {
		return ledger.Entry{Type: ledger.EntryAction, Round: round, Phase: game.PhaseNightAction, Actor: actor, Kind: kind, Target: target}
	}

	var entries []ledger.Entry
	for _, id := range []string{"player-1", "player-2", "player-3", "player-4", "player-5"} {
		entries = append(entries, vote(1, id, game.AbstainTarget))
	}
	entries = append(entries,
		action(1, "player-3", "kill", "player-1"),
		action(1, "player-4", "protect", "player-1"),
		action(1, "player-5", "investigate", "player-3"),
	)
	for _, id := range []string{"player-1", "player-2", "player-4", "player-5"} {
		entries = append(entries, vote(2, id, "player-3"))
	}
	entries = append(entries, vote(2, "player-3", "player-1"))
	return entries
}

func runToCompletion(t *testing.T, e *Engine) Result {
	t.Helper()
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	res, ok := e.Result()
	if !ok {
		t.Fatalf("Result() not available after Run returned nil")
	}
	return res
}

func TestEngine_ScriptedGameVillageWins(t *testing.T) {
	roster := fiveRoster()
	script := provider.NewScript(scriptedGame())
	e, err := New("game-1", roster, sameDecider(roster, script), nil, nil, Config{
		RevealRoleOnDeath: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := runToCompletion(t, e)
	if res.Winner != game.TeamVillage {
		t.Errorf("winner = %s, want village", res.Winner)
	}
	if res.Rounds != 2 {
		t.Errorf("rounds = %d, want 2", res.Rounds)
	}

	// The protected target survived the night.
	if p := e.State().Participant("player-1"); !p.Alive() {
		t.Errorf("protected player-1 should be alive")
	}
	if p := e.State().Participant("player-3"); p.Alive() {
		t.Errorf("voted-out player-3 should be eliminated")
	}
	if got := script.Remaining(); got != 0 {
		t.Errorf("script has %d unconsumed intents after replay", got)
	}
}

func TestEngine_TieEliminatesNoOne(t *testing.T) {
	roster := fiveRoster()
	e, err := New("game-tie", roster, sameDecider(roster, provider.NewScript(scriptedGame())), nil, nil, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runToCompletion(t, e)

	// Round 1 was all abstentions; nobody may be eliminated before the
	// night resolves.
	for _, entry := range e.Ledger().History() {
		if entry.Kind == "player.eliminated" && entry.Round == 1 && entry.Phase == game.PhaseDayResolution {
			t.Errorf("round-1 abstention vote produced an elimination: %+v", entry)
		}
	}
}

func TestEngine_InvestigationIsPlayerPrivate(t *testing.T) {
	roster := fiveRoster()
	e, err := New("game-inv", roster, sameDecider(roster, provider.NewScript(scriptedGame())), nil, nil, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runToCompletion(t, e)

	detective := e.State().Participant("player-5")
	var results int
	for _, entry := range e.Ledger().Query(detective) {
		if entry.Kind == "investigation.result" {
			results++
			if entry.Visibility.Scope != ledger.ScopePlayer || entry.Visibility.Player != "player-5" {
				t.Errorf("investigation result not player-private: %+v", entry.Visibility)
			}
		}
	}
	if results != 1 {
		t.Errorf("detective saw %d investigation results, want 1", results)
	}

	villager := e.State().Participant("player-1")
	for _, entry := range e.Ledger().Query(villager) {
		if entry.Kind == "investigation.result" {
			t.Errorf("villager can see an investigation result")
		}
	}
}

func TestEngine_RandomGameTerminates(t *testing.T) {
	names := []string{"Avery", "Blake", "Casey", "Drew", "Emery", "Finley", "Gray", "Harper"}
	roster, err := game.AssignRoles(names, game.RoleCounts{
		Mafia: 1, Godfather: 1, Doctor: 1, Detective: 1,
	}, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}

	e, err := New("game-rand", roster, sameDecider(roster, provider.NewRandom(42)), nil, nil, Config{
		MafiaChatRounds: 1,
		Parallel:        true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := runToCompletion(t, e)
	if res.Winner != game.TeamVillage && res.Winner != game.TeamMafia {
		t.Errorf("winner = %q, want a team", res.Winner)
	}
	if e.State().Phase != game.PhaseGameOver {
		t.Errorf("final phase = %s, want game_over", e.State().Phase)
	}
}

// stallDecider blocks every call until its context expires.
type stallDecider struct{}

func (stallDecider) Utterance(ctx context.Context, _ provider.Request) (provider.Utterance, error) {
	<-ctx.Done()
	return provider.Utterance{}, ctx.Err()
}

func (stallDecider) Vote(ctx context.Context, _ provider.Request) (provider.VoteReply, error) {
	<-ctx.Done()
	return provider.VoteReply{}, ctx.Err()
}

func (stallDecider) NightAction(ctx context.Context, _ provider.Request) (provider.ActionReply, error) {
	<-ctx.Done()
	return provider.ActionReply{}, ctx.Err()
}

func TestEngine_TimeoutDegradesToAbstention(t *testing.T) {
	roster := fiveRoster()

	// player-2 stalls forever; everyone else follows the script. The
	// scripted votes still eliminate the mafia, stalled votes become
	// abstentions, and the game completes.
	script := provider.NewScript(scriptedGame())
	providers := provider.Assignment{}
	for _, p := range roster {
		providers[p.ID] = script
	}
	providers["player-2"] = stallDecider{}

	fd := feed.New(feed.DefaultBuffer)
	events, cancel := fd.Subscribe()
	defer cancel()

	e, err := New("game-stall", roster, providers, fd, nil, Config{
		SolicitTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := runToCompletion(t, e)
	fd.Close()
	if res.Winner != game.TeamVillage {
		t.Errorf("winner = %s, want village despite the stalled provider", res.Winner)
	}

	var timeouts int
	for ev := range events {
		if ev.EventType() == "provider.timeout" {
			timeouts++
		}
	}
	if timeouts == 0 {
		t.Errorf("no provider.timeout events were published")
	}

	// Stalled votes were recorded as abstentions, not dropped.
	var abstained bool
	for _, v := range e.State().Votes {
		if v.Voter == "player-2" && v.Abstained() {
			abstained = true
		}
	}
	if !abstained {
		t.Errorf("stalled participant's vote was not recorded as an abstention")
	}
}

// badTargetDecider always votes for a participant that does not exist.
type badTargetDecider struct{ provider.Decider }

func (d badTargetDecider) Vote(_ context.Context, _ provider.Request) (provider.VoteReply, error) {
	return provider.VoteReply{Target: "player-99"}, nil
}

func TestEngine_InvalidVoteBecomesAbstention(t *testing.T) {
	roster := fiveRoster()
	script := provider.NewScript(scriptedGame())
	providers := provider.Assignment{}
	for _, p := range roster {
		providers[p.ID] = script
	}
	providers["player-2"] = badTargetDecider{Decider: stallDecider{}}

	e, err := New("game-bad", roster, providers, nil, nil, Config{
		SolicitTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runToCompletion(t, e)

	for _, v := range e.State().Votes {
		if v.Voter == "player-2" && !v.Abstained() {
			t.Errorf("invalid vote recorded with target %q, want abstention", v.Target)
		}
	}
}

func TestEngine_ResetDiscardsProgress(t *testing.T) {
	roster := fiveRoster()
	e, err := New("game-reset", roster, sameDecider(roster, provider.NewScript(scriptedGame())), nil, nil, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runToCompletion(t, e)

	if err := e.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	s := e.State()
	if s.Phase != game.PhaseSetup || s.Round != 0 || s.Over {
		t.Errorf("reset state = phase %s round %d over %v, want fresh setup", s.Phase, s.Round, s.Over)
	}
	for _, p := range s.Roster {
		if !p.Alive() {
			t.Errorf("participant %s not revived by reset", p.ID)
		}
	}
	if e.Ledger().Len() != 0 {
		t.Errorf("ledger not cleared by reset: %d entries", e.Ledger().Len())
	}
}

func TestEngine_MafiaChatStaysTeamPrivate(t *testing.T) {
	names := []string{"Avery", "Blake", "Casey", "Drew", "Emery", "Finley", "Gray", "Harper"}
	roster, err := game.AssignRoles(names, game.RoleCounts{
		Mafia: 2, Godfather: 1, Doctor: 1, Detective: 1,
	}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}

	e, err := New("game-chat", roster, sameDecider(roster, provider.NewRandom(7)), nil, nil, Config{
		MafiaChatRounds: 2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runToCompletion(t, e)

	var villager *game.Participant
	for _, p := range e.State().Roster {
		if p.Team() == game.TeamVillage {
			villager = p
			break
		}
	}
	for _, entry := range e.Ledger().Query(villager) {
		if entry.Type == ledger.EntryMessage && entry.Phase == game.PhaseNightAction {
			t.Errorf("villager %s can see mafia night chat: %+v", villager.ID, entry)
		}
	}

	var teamChat int
	for _, entry := range e.Ledger().History() {
		if entry.Type == ledger.EntryMessage && entry.Phase == game.PhaseNightAction {
			teamChat++
			if entry.Visibility.Scope != ledger.ScopeTeam {
				t.Errorf("night chat entry not team-scoped: %+v", entry.Visibility)
			}
		}
	}
	if teamChat == 0 {
		t.Errorf("no mafia chat was recorded with 3 mafia and 2 chat rounds")
	}
}

// gateDecider signals when its first vote is solicited and then blocks
// until the call is canceled, holding the run mid-voting.
type gateDecider struct {
	provider.Decider
	entered chan struct{}
	once    sync.Once
}

func (d *gateDecider) Vote(ctx context.Context, _ provider.Request) (provider.VoteReply, error) {
	d.once.Do(func() { close(d.entered) })
	<-ctx.Done()
	return provider.VoteReply{}, ctx.Err()
}

func TestEngine_ResetDuringRunLeavesNoTrace(t *testing.T) {
	roster := fiveRoster()
	d := &gateDecider{Decider: provider.NewRandom(3), entered: make(chan struct{})}
	e, err := New("game-reset-live", roster, sameDecider(roster, d), nil, nil, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- e.Run(context.Background()) }()

	<-d.entered
	if err := e.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := <-runErr; !errors.Is(err, errors.ErrGameAborted) {
		t.Errorf("Run returned %v, want ErrGameAborted", err)
	}

	s := e.State()
	if s.Phase != game.PhaseSetup || s.Round != 0 || s.Over {
		t.Errorf("post-reset state = phase %s round %d over %v, want fresh setup", s.Phase, s.Round, s.Over)
	}
	if len(s.Votes) != 0 {
		t.Errorf("post-reset state holds %d votes from the canceled run", len(s.Votes))
	}
	if n := e.Ledger().Len(); n != 0 {
		t.Errorf("post-reset ledger holds %d entries from the canceled run", n)
	}
}

// refusingDecider fails every utterance outright, without timing out.
type refusingDecider struct{ provider.Decider }

func (d refusingDecider) Utterance(_ context.Context, _ provider.Request) (provider.Utterance, error) {
	return provider.Utterance{}, fmt.Errorf("model unavailable")
}

func TestEngine_DiscussionFailureReachesFeed(t *testing.T) {
	roster := fiveRoster()
	providers := sameDecider(roster, provider.NewRandom(5))
	providers["player-2"] = refusingDecider{Decider: provider.NewRandom(5)}

	fd := feed.New(feed.DefaultBuffer)
	events, cancel := fd.Subscribe()
	defer cancel()

	e, err := New("game-refuse", roster, providers, fd, nil, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runToCompletion(t, e)
	fd.Close()

	var invalids int
	for ev := range events {
		if inv, ok := ev.(feed.ProviderInvalidEvent); ok && inv.Participant == "player-2" {
			invalids++
		}
	}
	if invalids == 0 {
		t.Errorf("no provider.invalid event published for the failing speaker")
	}
}
