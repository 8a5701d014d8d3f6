package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nightfall-sim/nightfall/internal/archive"
	"github.com/nightfall-sim/nightfall/internal/config"
	"github.com/nightfall-sim/nightfall/internal/engine"
	"github.com/nightfall-sim/nightfall/internal/provider"
	"github.com/nightfall-sim/nightfall/internal/transcript"
)

var replayGameID string

var replayCmd = &cobra.Command{
	Use:   "replay [transcript.json]",
	Short: "Replay a recorded game and verify it reproduces exactly",
	Long: `Replay re-drives the engine from a transcript's recorded decisions and
verifies that the replayed game matches the recording entry for entry.
The transcript comes from a file argument or from the archive via --game.
A divergence means the transcript was edited or recorded by an
incompatible version, and the command fails loudly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayGameID, "game", "", "replay an archived game by id instead of a file")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	recorded, err := loadReplaySource(cmd, args)
	if err != nil {
		return err
	}

	roster := recorded.Roster()
	script := provider.NewScript(recorded.Entries)
	providers := provider.Assignment{}
	for _, p := range roster {
		providers[p.ID] = script
	}

	eng, err := engine.New(recorded.ID, roster, providers, nil, nil, engine.Config{
		DiscussionRounds:  recorded.Setup.DiscussionRounds,
		MafiaChatRounds:   recorded.Setup.MafiaChatRounds,
		AllowSelfVote:     recorded.Setup.AllowSelfVote,
		RevealRoleOnDeath: recorded.Setup.RevealRoleOnDeath,
	})
	if err != nil {
		return err
	}
	if err := eng.Run(cmd.Context()); err != nil {
		return fmt.Errorf("replay run: %w", err)
	}

	replayed, err := transcript.Record(eng.State(), eng.Ledger().History(), recorded.Setup)
	if err != nil {
		return err
	}
	if err := recorded.Compare(replayed); err != nil {
		return err
	}

	fmt.Printf("replay of game %s verified: the %s team wins after %d rounds (%d entries)\n",
		recorded.ID, replayed.Result.Winner, replayed.Result.Rounds, len(replayed.Entries))
	return nil
}

// loadReplaySource loads the transcript from the file argument or the
// archive, exactly one of which must be given.
func loadReplaySource(cmd *cobra.Command, args []string) (*transcript.Document, error) {
	if replayGameID != "" && len(args) > 0 {
		return nil, fmt.Errorf("pass a transcript file or --game, not both")
	}

	if replayGameID != "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		store, err := archive.Open(cfg.Archive.ResolveArchivePath())
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		return store.Get(cmd.Context(), replayGameID)
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("a transcript file or --game is required")
	}
	return transcript.Load(args[0])
}
