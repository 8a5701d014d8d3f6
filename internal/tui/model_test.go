package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nightfall-sim/nightfall/internal/feed"
	"github.com/nightfall-sim/nightfall/internal/game"
)

func testModel(t *testing.T) Model {
	t.Helper()
	fd := feed.New(16)
	t.Cleanup(fd.Close)
	m := NewModel(fd)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestModel_TracksGameState(t *testing.T) {
	m := testModel(t)

	updated, _ := m.Update(feedEventMsg{event: feed.NewGameStartedEvent("game-1", 8)})
	m = updated.(Model)
	if m.players != 8 || m.alive != 8 {
		t.Errorf("players/alive = %d/%d, want 8/8", m.players, m.alive)
	}

	updated, _ = m.Update(feedEventMsg{event: feed.NewPhaseChangeEvent(1, game.PhaseSetup, game.PhaseDayDiscussion)})
	m = updated.(Model)
	if m.round != 1 || m.phase != game.PhaseDayDiscussion {
		t.Errorf("round/phase = %d/%s", m.round, m.phase)
	}

	updated, _ = m.Update(feedEventMsg{event: feed.NewEliminationEvent(1, game.PhaseDayResolution, "player-3", "Casey", game.RoleMafia, "vote")})
	m = updated.(Model)
	if m.alive != 7 {
		t.Errorf("alive = %d after elimination, want 7", m.alive)
	}

	updated, _ = m.Update(feedEventMsg{event: feed.NewGameOverEvent("game-1", game.TeamVillage, 3)})
	m = updated.(Model)
	if !m.finished || m.winner != game.TeamVillage {
		t.Errorf("finished/winner = %v/%s", m.finished, m.winner)
	}
	if !strings.Contains(m.View(), "village team wins") {
		t.Errorf("status bar missing winner: %q", m.statusBar())
	}
}

func TestModel_LogRendersEvents(t *testing.T) {
	m := testModel(t)

	for _, ev := range []feed.Event{
		feed.NewChatMessageEvent(1, game.PhaseDayDiscussion, "player-1", "Agnes", "I trust no one.", false),
		feed.NewVoteCastEvent(1, "player-2", "player-3", false),
		feed.NewVoteCastEvent(1, "player-4", game.AbstainTarget, true),
		feed.NewVoteTieEvent(1, []string{"player-2", "player-3"}),
	} {
		updated, _ := m.Update(feedEventMsg{event: ev})
		m = updated.(Model)
	}

	view := m.View()
	for _, want := range []string{"Agnes", "I trust no one.", "voted for player-3", "abstained", "tied"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := testModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should produce a quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("q produced %v, want tea.Quit", msg)
	}
}

func TestPhaseLabel(t *testing.T) {
	if got := phaseLabel(game.PhaseNightAction); got != "night" {
		t.Errorf("phaseLabel(night_action) = %q", got)
	}
	if got := phaseLabel(game.Phase("weird")); got != "weird" {
		t.Errorf("unknown phase label = %q", got)
	}
}
