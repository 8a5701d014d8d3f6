package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nightfall-sim/nightfall/internal/archive"
	"github.com/nightfall-sim/nightfall/internal/config"
	"github.com/nightfall-sim/nightfall/internal/engine"
	"github.com/nightfall-sim/nightfall/internal/feed"
	"github.com/nightfall-sim/nightfall/internal/game"
	"github.com/nightfall-sim/nightfall/internal/logging"
	"github.com/nightfall-sim/nightfall/internal/namegen"
	"github.com/nightfall-sim/nightfall/internal/provider"
	"github.com/nightfall-sim/nightfall/internal/transcript"
	"github.com/nightfall-sim/nightfall/internal/tui"
)

var (
	runHeadless bool
	runSeed     int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a new game",
	Long: `Run a complete game from role assignment to a winner.
By default the game is shown live in a terminal UI; --headless runs it
silently and prints the outcome. Every run writes a run directory with
the event feed, a debug log, and the final transcript.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run without the terminal UI")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "override the configured RNG seed")

	// Per-run overrides for the configured game setup
	runCmd.Flags().Int("players", 0, "number of players")
	runCmd.Flags().Int("mafia", 0, "number of plain mafia")
	runCmd.Flags().Int("godfather", 0, "number of godfathers (0 or 1)")
	runCmd.Flags().Int("doctor", 0, "number of doctors")
	runCmd.Flags().Int("detective", 0, "number of detectives")
	runCmd.Flags().Int("rounds", 0, "discussion turns per player per day")
	runCmd.Flags().String("provider", "", "decision provider (random, openai)")
	runCmd.Flags().String("dir", "", "parent directory for run output")
	_ = viper.BindPFlag("game.players", runCmd.Flags().Lookup("players"))
	_ = viper.BindPFlag("game.mafia", runCmd.Flags().Lookup("mafia"))
	_ = viper.BindPFlag("game.godfather", runCmd.Flags().Lookup("godfather"))
	_ = viper.BindPFlag("game.doctor", runCmd.Flags().Lookup("doctor"))
	_ = viper.BindPFlag("game.detective", runCmd.Flags().Lookup("detective"))
	_ = viper.BindPFlag("game.discussion_rounds", runCmd.Flags().Lookup("rounds"))
	_ = viper.BindPFlag("provider.kind", runCmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("runs.dir", runCmd.Flags().Lookup("dir"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	// Pick up OPENAI_API_KEY and friends from a local .env if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	seed := cfg.Game.Seed
	if runSeed != 0 {
		seed = runSeed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	gameID := uuid.New().String()
	runDir := filepath.Join(cfg.Runs.ResolveRunsDir(), gameID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	log := logging.NopLogger()
	if cfg.Logging.Enabled {
		fileLog, err := logging.NewLogger(runDir, logging.ParseLevel(cfg.Logging.Level))
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer func() { _ = fileLog.Close() }()
		log = fileLog
	}

	roster, err := buildRoster(cfg, seed)
	if err != nil {
		return err
	}
	providers, err := buildProviders(cfg, roster, seed)
	if err != nil {
		return err
	}

	fd := feed.New(cfg.Feed.Buffer)
	writer, err := feed.NewWriter(runDir, fd)
	if err != nil {
		return err
	}

	eng, err := engine.New(gameID, roster, providers, fd, log, engineConfig(cfg))
	if err != nil {
		return err
	}

	fmt.Printf("game %s\nrun directory: %s\n", gameID, runDir)

	runErr := driveGame(cmd.Context(), eng, fd, runHeadless)
	fd.Close()
	if err := writer.Close(); err != nil {
		log.Warn("feed writer close failed", "error", err.Error())
	}
	if runErr != nil {
		return runErr
	}

	doc, err := transcript.Record(eng.State(), eng.Ledger().History(), transcriptSetup(cfg, seed))
	if err != nil {
		return err
	}
	transcriptPath := filepath.Join(runDir, transcript.FileName)
	if err := doc.Save(transcriptPath); err != nil {
		return err
	}

	if cfg.Archive.Enabled {
		if err := archiveGame(cmd.Context(), cfg, doc); err != nil {
			// The transcript on disk is the source of truth; a failed
			// archive insert should not fail the run.
			log.Warn("archive insert failed", "game", gameID, "error", err.Error())
			fmt.Fprintf(os.Stderr, "warning: could not archive game: %v\n", err)
		}
	}

	res, _ := eng.Result()
	fmt.Printf("the %s team wins after %d rounds\ntranscript: %s\n", res.Winner, res.Rounds, transcriptPath)
	return nil
}

// driveGame runs the engine, with or without the spectator TUI.
func driveGame(ctx context.Context, eng *engine.Engine, fd *feed.Feed, headless bool) error {
	if headless {
		return eng.Run(ctx)
	}

	engDone := make(chan error, 1)
	go func() {
		engDone <- eng.Run(ctx)
		// Closing the feed lets the TUI quit once the log is drained.
		fd.Close()
	}()

	program := tea.NewProgram(tui.NewModel(fd), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return <-engDone
}

// buildRoster assigns names and roles for a fresh game.
func buildRoster(cfg *config.Config, seed int64) ([]*game.Participant, error) {
	counts := game.RoleCounts{
		Mafia:     cfg.Game.Mafia,
		Godfather: cfg.Game.Godfather,
		Doctor:    cfg.Game.Doctor,
		Detective: cfg.Game.Detective,
	}
	names := namegen.Names(cfg.Game.Players)
	return game.AssignRoles(names, counts, rand.New(rand.NewSource(seed)))
}

// buildProviders creates the decision-provider pool and assigns it across
// the roster.
func buildProviders(cfg *config.Config, roster []*game.Participant, seed int64) (provider.Assignment, error) {
	var pool []provider.Decider

	switch cfg.Provider.Kind {
	case "random":
		pool = append(pool, provider.NewRandom(seed))

	case "openai":
		apiKey := cfg.Provider.OpenAI.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		for _, model := range cfg.Provider.OpenAI.Models {
			d, err := provider.NewOpenAI(provider.OpenAIConfig{
				APIKey:        apiKey,
				BaseURL:       cfg.Provider.OpenAI.BaseURL,
				Model:         model,
				Temperature:   cfg.Provider.OpenAI.Temperature,
				MaxReplyChars: cfg.Provider.OpenAI.MaxReplyChars,
			})
			if err != nil {
				return nil, err
			}
			pool = append(pool, d)
		}

	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}

	return provider.Assign(roster, pool), nil
}

// engineConfig maps the loaded configuration onto the engine.
func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		DiscussionRounds:  cfg.Game.DiscussionRounds,
		MafiaChatRounds:   cfg.Game.MafiaChatRounds,
		AllowSelfVote:     cfg.Game.AllowSelfVote,
		RevealRoleOnDeath: cfg.Game.RevealRoleOnDeath,
		Parallel:          cfg.Solicit.Parallel,
		SolicitTimeout:    cfg.Solicit.Timeout(),
		MaxRounds:         cfg.Game.MaxRounds,
	}
}

// transcriptSetup captures the run parameters in the transcript.
func transcriptSetup(cfg *config.Config, seed int64) transcript.Setup {
	return transcript.Setup{
		Players: cfg.Game.Players,
		Roles: map[string]int{
			string(game.RoleMafia):     cfg.Game.Mafia,
			string(game.RoleGodfather): cfg.Game.Godfather,
			string(game.RoleDoctor):    cfg.Game.Doctor,
			string(game.RoleDetective): cfg.Game.Detective,
		},
		DiscussionRounds:  cfg.Game.DiscussionRounds,
		MafiaChatRounds:   cfg.Game.MafiaChatRounds,
		AllowSelfVote:     cfg.Game.AllowSelfVote,
		RevealRoleOnDeath: cfg.Game.RevealRoleOnDeath,
		Seed:              seed,
	}
}

// archiveGame inserts the finished transcript into the archive database.
func archiveGame(ctx context.Context, cfg *config.Config, doc *transcript.Document) error {
	path := cfg.Archive.ResolveArchivePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	store, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.Insert(ctx, doc)
}
