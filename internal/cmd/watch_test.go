package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nightfall-sim/nightfall/internal/feed"
	"github.com/nightfall-sim/nightfall/internal/game"
)

func envelopeFor(t *testing.T, e feed.Event) feed.Envelope {
	t.Helper()

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return feed.Envelope{Event: e.EventType(), Data: data}
}

func TestFormatEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		event feed.Event
		want  string
	}{
		{
			name:  "game started",
			event: feed.NewGameStartedEvent("game-1", 8),
			want:  "game game-1 started with 8 players",
		},
		{
			name:  "phase change",
			event: feed.NewPhaseChangeEvent(2, game.PhaseDayVoting, game.PhaseDayResolution),
			want:  "— round 2: day_resolution —",
		},
		{
			name:  "public chat",
			event: feed.NewChatMessageEvent(1, game.PhaseDayDiscussion, "player-1", "Agnes", "I trust no one.", false),
			want:  "Agnes: I trust no one.",
		},
		{
			name:  "mafia chat",
			event: feed.NewChatMessageEvent(1, game.PhaseNightAction, "player-3", "Casey", "take the doctor", true),
			want:  "[mafia] Casey: take the doctor",
		},
		{
			name:  "vote",
			event: feed.NewVoteCastEvent(1, "Avery", "Casey", false),
			want:  "Avery voted for Casey",
		},
		{
			name:  "abstention",
			event: feed.NewVoteCastEvent(1, "Avery", game.AbstainTarget, true),
			want:  "Avery abstained",
		},
		{
			name:  "vote tie",
			event: feed.NewVoteTieEvent(1, []string{"player-1", "player-2"}),
			want:  "the vote was tied; no one was eliminated",
		},
		{
			name:  "elimination with role",
			event: feed.NewEliminationEvent(2, game.PhaseDayResolution, "player-3", "Casey", game.RoleMafia, "vote"),
			want:  "Casey was eliminated (mafia)",
		},
		{
			name:  "protection",
			event: feed.NewProtectionEvent(1),
			want:  "an attack was thwarted last night",
		},
		{
			name:  "game over",
			event: feed.NewGameOverEvent("game-1", game.TeamVillage, 3),
			want:  "game over: the village team wins after 3 rounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatEnvelope(envelopeFor(t, tt.event))
			if got != tt.want {
				t.Errorf("formatEnvelope() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatEnvelope_UnknownEventFallsBack(t *testing.T) {
	env := feed.Envelope{Event: "future.event", Data: json.RawMessage(`{"x":1}`)}

	got := formatEnvelope(env)
	if !strings.Contains(got, "future.event") || !strings.Contains(got, `{"x":1}`) {
		t.Errorf("unknown event should print raw payload, got %q", got)
	}
}
