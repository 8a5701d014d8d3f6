package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nightfall-sim/nightfall/internal/feed"
	"github.com/nightfall-sim/nightfall/internal/game"
)

var watchCmd = &cobra.Command{
	Use:   "watch <run-dir|feed.jsonl>",
	Short: "Follow a game's event feed from another terminal",
	Long: `Watch tails a run directory's feed file and prints events as they are
appended, so a game started elsewhere (for example with --headless) can be
spectated live. Interrupt with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, feed.FileName)
	}

	tailer, err := feed.NewTailer(path, func(envelopes []feed.Envelope) {
		for _, env := range envelopes {
			fmt.Println(formatEnvelope(env))
		}
	})
	if err != nil {
		return err
	}
	tailer.Start()
	defer tailer.Stop()

	fmt.Printf("watching %s\n", path)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-cmd.Context().Done():
	}
	return nil
}

// formatEnvelope renders one feed line for the terminal. Unknown event
// types print their raw payload rather than being dropped.
func formatEnvelope(env feed.Envelope) string {
	switch env.Event {
	case "game.started":
		var e struct {
			GameID  string `json:"game_id"`
			Players int    `json:"players"`
		}
		if json.Unmarshal(env.Data, &e) == nil {
			return fmt.Sprintf("game %s started with %d players", e.GameID, e.Players)
		}
	case "phase.changed":
		var e struct {
			Round   int        `json:"round"`
			Current game.Phase `json:"current"`
		}
		if json.Unmarshal(env.Data, &e) == nil {
			return fmt.Sprintf("— round %d: %s —", e.Round, e.Current)
		}
	case "chat.message":
		var e struct {
			Name     string `json:"name"`
			Content  string `json:"content"`
			TeamOnly bool   `json:"team_only"`
		}
		if json.Unmarshal(env.Data, &e) == nil {
			if e.TeamOnly {
				return fmt.Sprintf("[mafia] %s: %s", e.Name, e.Content)
			}
			return fmt.Sprintf("%s: %s", e.Name, e.Content)
		}
	case "vote.cast":
		var e struct {
			Voter     string `json:"voter"`
			Target    string `json:"target"`
			Abstained bool   `json:"abstained"`
		}
		if json.Unmarshal(env.Data, &e) == nil {
			if e.Abstained {
				return fmt.Sprintf("%s abstained", e.Voter)
			}
			return fmt.Sprintf("%s voted for %s", e.Voter, e.Target)
		}
	case "vote.tie":
		return "the vote was tied; no one was eliminated"
	case "night.action":
		var e struct {
			Actor  string `json:"actor"`
			Kind   string `json:"kind"`
			Target string `json:"target"`
		}
		if json.Unmarshal(env.Data, &e) == nil {
			return fmt.Sprintf("%s chose %s on %s", e.Actor, e.Kind, e.Target)
		}
	case "player.eliminated":
		var e struct {
			Name string `json:"name"`
			Role string `json:"role"`
		}
		if json.Unmarshal(env.Data, &e) == nil {
			if e.Role != "" {
				return fmt.Sprintf("%s was eliminated (%s)", e.Name, e.Role)
			}
			return fmt.Sprintf("%s was eliminated", e.Name)
		}
	case "player.protected":
		return "an attack was thwarted last night"
	case "provider.timeout":
		var e struct {
			Participant string `json:"participant"`
		}
		if json.Unmarshal(env.Data, &e) == nil {
			return fmt.Sprintf("%s did not answer in time", e.Participant)
		}
	case "game.over":
		var e struct {
			Winner game.Team `json:"winner"`
			Rounds int       `json:"rounds"`
		}
		if json.Unmarshal(env.Data, &e) == nil {
			return fmt.Sprintf("game over: the %s team wins after %d rounds", e.Winner, e.Rounds)
		}
	}
	return fmt.Sprintf("%s %s", env.Event, string(env.Data))
}
