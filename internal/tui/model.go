// Package tui renders a live spectator view of a running game: a
// scrollable event log plus a status bar tracking the round, phase, and
// headcount. The view consumes the spectator feed; it never touches the
// engine's state directly.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nightfall-sim/nightfall/internal/feed"
	"github.com/nightfall-sim/nightfall/internal/game"
)

// feedEventMsg wraps one spectator event for the bubbletea update loop.
type feedEventMsg struct {
	event feed.Event
}

// feedClosedMsg signals that the feed has closed and no more events follow.
type feedClosedMsg struct{}

// Model holds the spectator TUI state
type Model struct {
	events <-chan feed.Event
	cancel func()

	viewport viewport.Model
	lines    []string

	round    int
	phase    game.Phase
	alive    int
	players  int
	winner   game.Team
	finished bool

	width  int
	height int
	ready  bool
}

// NewModel creates a spectator model subscribed to the given feed.
func NewModel(fd *feed.Feed) Model {
	events, cancel := fd.Subscribe()
	return Model{
		events: events,
		cancel: cancel,
		phase:  game.PhaseSetup,
	}
}

// Init starts listening for feed events.
func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent blocks on the feed subscription and delivers the next event
// as a message. Re-issued after every event so the loop keeps draining.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return feedClosedMsg{}
		}
		return feedEventMsg{event: ev}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logHeight := msg.Height - statusBarHeight
		if logHeight < 1 {
			logHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, logHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = logHeight
		}
		m.refreshContent()

	case feedEventMsg:
		m.apply(msg.event)
		m.refreshContent()
		return m, m.waitForEvent()

	case feedClosedMsg:
		if m.finished {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// apply folds one feed event into the model's state and log.
func (m *Model) apply(ev feed.Event) {
	switch e := ev.(type) {
	case feed.GameStartedEvent:
		m.players = e.Players
		m.alive = e.Players
		m.appendLine(titleStyle.Render(fmt.Sprintf("Game %s started with %d players", e.GameID, e.Players)))

	case feed.PhaseChangeEvent:
		m.round = e.Round()
		m.phase = e.Current
		m.appendLine(phaseStyle.Render(fmt.Sprintf("— round %d: %s —", e.Round(), phaseLabel(e.Current))))

	case feed.ChatMessageEvent:
		line := fmt.Sprintf("%s: %s", speakerStyle.Render(e.Name), e.Content)
		if e.TeamOnly {
			line = mafiaChatStyle.Render("[mafia] ") + line
		}
		m.appendLine(line)

	case feed.VoteCastEvent:
		if e.Abstained {
			m.appendLine(voteStyle.Render(fmt.Sprintf("%s abstained", e.Voter)))
		} else {
			m.appendLine(voteStyle.Render(fmt.Sprintf("%s voted for %s", e.Voter, e.Target)))
		}

	case feed.VoteTieEvent:
		m.appendLine(eventStyle.Render("the vote was tied; no one was eliminated"))

	case feed.NightActionEvent:
		m.appendLine(nightStyle.Render(fmt.Sprintf("%s chose %s on %s", e.Actor, e.Kind, e.Target)))

	case feed.EliminationEvent:
		m.alive--
		line := fmt.Sprintf("%s was eliminated", e.Name)
		if e.Role != "" {
			line = fmt.Sprintf("%s was eliminated (%s)", e.Name, e.Role)
		}
		m.appendLine(eliminationStyle.Render(line))

	case feed.ProtectionEvent:
		m.appendLine(eventStyle.Render("an attack was thwarted last night"))

	case feed.ProviderTimeoutEvent:
		m.appendLine(warnStyle.Render(fmt.Sprintf("%s did not answer in time", e.Participant)))

	case feed.ProviderInvalidEvent:
		m.appendLine(warnStyle.Render(fmt.Sprintf("%s gave an invalid reply", e.Participant)))

	case feed.GameOverEvent:
		m.finished = true
		m.winner = e.Winner
		m.round = e.Rounds
		m.appendLine(titleStyle.Render(fmt.Sprintf("Game over: the %s team wins after %d rounds", e.Winner, e.Rounds)))
		m.appendLine(helpStyle.Render("press q to quit"))
	}
}

// appendLine adds a log line and keeps the viewport pinned to the bottom.
func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
}

func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	content := ""
	for _, l := range m.lines {
		content += l + "\n"
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// View renders the event log above the status bar.
func (m Model) View() string {
	if !m.ready {
		return "starting…"
	}
	return m.viewport.View() + "\n" + m.statusBar()
}

func (m Model) statusBar() string {
	status := fmt.Sprintf(" round %d · %s · %d/%d alive ", m.round, phaseLabel(m.phase), m.alive, m.players)
	if m.finished {
		status = fmt.Sprintf(" %s team wins · %d rounds ", m.winner, m.round)
	}
	return statusBarStyle.Width(m.width).Render(status)
}

// phaseLabel renders a phase name for humans.
func phaseLabel(p game.Phase) string {
	switch p {
	case game.PhaseSetup:
		return "setup"
	case game.PhaseDayDiscussion:
		return "day discussion"
	case game.PhaseDayVoting:
		return "day voting"
	case game.PhaseDayResolution:
		return "day resolution"
	case game.PhaseNightAction:
		return "night"
	case game.PhaseNightResolution:
		return "night resolution"
	case game.PhaseGameOver:
		return "game over"
	}
	return string(p)
}
