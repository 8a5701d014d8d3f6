package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nightfall-sim/nightfall/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "nightfall",
	Short: "Social-deduction game simulator with autonomous players",
	Long: `Nightfall simulates full games of Mafia between autonomous players.
Each player is driven by a decision provider (an LLM or a seeded random
agent), sees only what its role entitles it to see, and talks, votes, and
acts through the same rules engine. Every game is recorded as a replayable
transcript.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/nightfall/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/nightfall")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("NIGHTFALL")
	// Replace dots with underscores for nested keys in env vars
	// e.g., NIGHTFALL_GAME_PLAYERS for game.players
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
