package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nightfall-sim/nightfall/internal/archive"
	"github.com/nightfall-sim/nightfall/internal/config"
)

var gamesExportOutput string

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Inspect archived games",
}

var gamesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived games, newest first",
	RunE:  runGamesList,
}

var gamesShowCmd = &cobra.Command{
	Use:   "show <game-id>",
	Short: "Show one archived game's summary and final roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runGamesShow,
}

var gamesExportCmd = &cobra.Command{
	Use:   "export <game-id>",
	Short: "Export an archived game as a transcript file",
	Long: `Export writes an archived game back out as a transcript JSON file,
suitable for "nightfall replay".`,
	Args: cobra.ExactArgs(1),
	RunE: runGamesExport,
}

func init() {
	gamesExportCmd.Flags().StringVarP(&gamesExportOutput, "output", "o", "", "output file (default <game-id>.json)")
	gamesCmd.AddCommand(gamesListCmd)
	gamesCmd.AddCommand(gamesShowCmd)
	gamesCmd.AddCommand(gamesExportCmd)
	rootCmd.AddCommand(gamesCmd)
}

// openArchive opens the configured archive database.
func openArchive() (*archive.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return archive.Open(cfg.Archive.ResolveArchivePath())
}

func runGamesList(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	games, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Println("no archived games")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLAYED\tWINNER\tROUNDS\tPLAYERS\tMESSAGES")
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			g.ID, g.CreatedAt.Format("2006-01-02 15:04"), g.Winner, g.Rounds, g.Players, g.Messages)
	}
	return w.Flush()
}

func runGamesShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	doc, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("game %s\n", doc.ID)
	fmt.Printf("played: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("outcome: the %s team wins after %d rounds\n", doc.Result.Winner, doc.Result.Rounds)
	fmt.Printf("activity: %d messages, %d votes, %d ledger entries\n\n",
		doc.Result.Messages, doc.Result.Votes, len(doc.Entries))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tNAME\tROLE\tFATE")
	for _, p := range doc.Players {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Role, p.Status)
	}
	return w.Flush()
}

func runGamesExport(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	doc, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := gamesExportOutput
	if out == "" {
		out = doc.ID + ".json"
	}
	if err := doc.Save(out); err != nil {
		return err
	}
	fmt.Printf("exported game %s to %s\n", doc.ID, out)
	return nil
}
