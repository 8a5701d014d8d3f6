package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Nightfall configuration
type Config struct {
	Game     GameConfig     `mapstructure:"game"`
	Provider ProviderConfig `mapstructure:"provider"`
	Solicit  SolicitConfig  `mapstructure:"solicit"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Runs     RunsConfig     `mapstructure:"runs"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// GameConfig controls the simulated game itself
type GameConfig struct {
	// Players is the roster size (default: 8)
	Players int `mapstructure:"players"`
	// Mafia is the number of ordinary mafia members (default: 2)
	Mafia int `mapstructure:"mafia"`
	// Godfather is 0 or 1 (default: 1)
	Godfather int `mapstructure:"godfather"`
	// Doctor is the number of doctors (default: 1)
	Doctor int `mapstructure:"doctor"`
	// Detective is the number of detectives (default: 1)
	Detective int `mapstructure:"detective"`
	// DiscussionRounds is how many times each living player speaks per day
	// discussion phase (default: 3)
	DiscussionRounds int `mapstructure:"discussion_rounds"`
	// MafiaChatRounds is how many rounds of private mafia coordination chat
	// run before night actions; 0 disables the chat (default: 2)
	MafiaChatRounds int `mapstructure:"mafia_chat_rounds"`
	// AllowSelfVote permits voting for your own elimination (default: false)
	AllowSelfVote bool `mapstructure:"allow_self_vote"`
	// RevealRoleOnDeath announces an eliminated player's true role (default: true)
	RevealRoleOnDeath bool `mapstructure:"reveal_role_on_death"`
	// MaxRounds aborts a game still running after this many rounds (default: 30)
	MaxRounds int `mapstructure:"max_rounds"`
	// Seed fixes the role-assignment and random-provider RNG; 0 seeds from
	// the clock (default: 0)
	Seed int64 `mapstructure:"seed"`
}

// ProviderConfig controls where player decisions come from
type ProviderConfig struct {
	// Kind selects the decision provider: "random" or "openai" (default: "random")
	Kind string `mapstructure:"kind"`
	// OpenAI configures the OpenAI-compatible provider
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig configures the OpenAI-compatible chat-completions provider
type OpenAIConfig struct {
	// APIKey authenticates requests; usually set via NIGHTFALL_PROVIDER_OPENAI_API_KEY
	// or OPENAI_API_KEY
	APIKey string `mapstructure:"api_key"`
	// BaseURL overrides the API endpoint, for any compatible server
	BaseURL string `mapstructure:"base_url"`
	// Models are assigned to players round-robin (default: ["gpt-4o-mini"])
	Models []string `mapstructure:"models"`
	// Temperature is passed through to the API (default: 0.7)
	Temperature float64 `mapstructure:"temperature"`
	// MaxReplyChars truncates player messages (default: 400)
	MaxReplyChars int `mapstructure:"max_reply_chars"`
}

// SolicitConfig controls how the engine collects decisions
type SolicitConfig struct {
	// Parallel solicits independent decisions concurrently (default: true)
	Parallel bool `mapstructure:"parallel"`
	// TimeoutSeconds bounds each provider call (default: 30)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// FeedConfig controls the spectator event feed
type FeedConfig struct {
	// Buffer is the per-subscriber channel depth; a full buffer drops the
	// oldest events first (default: 256)
	Buffer int `mapstructure:"buffer"`
}

// RunsConfig controls where run artifacts are written
type RunsConfig struct {
	// Dir is the parent directory for per-game run directories.
	// Empty uses "runs" relative to the working directory.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir"`
}

// ArchiveConfig controls the SQLite transcript archive
type ArchiveConfig struct {
	// Enabled archives every finished game (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Path is the archive database file.
	// Empty uses "nightfall.db" inside the config directory.
	Path string `mapstructure:"path"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// Timeout returns the solicitation timeout as a time.Duration
func (c *SolicitConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolveRunsDir returns the resolved run-artifact parent directory.
// Relative paths resolve against the working directory; ~ expands to the
// user's home directory.
func (c *RunsConfig) ResolveRunsDir() string {
	if c.Dir == "" {
		return "runs"
	}
	path := c.Dir
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ResolveArchivePath returns the archive database path, defaulting into
// the config directory.
func (c *ArchiveConfig) ResolveArchivePath() string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(ConfigDir(), "nightfall.db")
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Game: GameConfig{
			Players:           8,
			Mafia:             2,
			Godfather:         1,
			Doctor:            1,
			Detective:         1,
			DiscussionRounds:  3,
			MafiaChatRounds:   2,
			AllowSelfVote:     false,
			RevealRoleOnDeath: true,
			MaxRounds:         30,
			Seed:              0, // Seed from the clock by default
		},
		Provider: ProviderConfig{
			Kind: "random",
			OpenAI: OpenAIConfig{
				APIKey:        "",
				BaseURL:       "",
				Models:        []string{"gpt-4o-mini"},
				Temperature:   0.7,
				MaxReplyChars: 400,
			},
		},
		Solicit: SolicitConfig{
			Parallel:       true,
			TimeoutSeconds: 30,
		},
		Feed: FeedConfig{
			Buffer: 256,
		},
		Runs: RunsConfig{
			Dir: "", // Empty means use default: ./runs
		},
		Archive: ArchiveConfig{
			Enabled: true,
			Path:    "", // Empty means use default: <config dir>/nightfall.db
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Game defaults
	viper.SetDefault("game.players", defaults.Game.Players)
	viper.SetDefault("game.mafia", defaults.Game.Mafia)
	viper.SetDefault("game.godfather", defaults.Game.Godfather)
	viper.SetDefault("game.doctor", defaults.Game.Doctor)
	viper.SetDefault("game.detective", defaults.Game.Detective)
	viper.SetDefault("game.discussion_rounds", defaults.Game.DiscussionRounds)
	viper.SetDefault("game.mafia_chat_rounds", defaults.Game.MafiaChatRounds)
	viper.SetDefault("game.allow_self_vote", defaults.Game.AllowSelfVote)
	viper.SetDefault("game.reveal_role_on_death", defaults.Game.RevealRoleOnDeath)
	viper.SetDefault("game.max_rounds", defaults.Game.MaxRounds)
	viper.SetDefault("game.seed", defaults.Game.Seed)

	// Provider defaults
	viper.SetDefault("provider.kind", defaults.Provider.Kind)
	viper.SetDefault("provider.openai.api_key", defaults.Provider.OpenAI.APIKey)
	viper.SetDefault("provider.openai.base_url", defaults.Provider.OpenAI.BaseURL)
	viper.SetDefault("provider.openai.models", defaults.Provider.OpenAI.Models)
	viper.SetDefault("provider.openai.temperature", defaults.Provider.OpenAI.Temperature)
	viper.SetDefault("provider.openai.max_reply_chars", defaults.Provider.OpenAI.MaxReplyChars)

	// Solicit defaults
	viper.SetDefault("solicit.parallel", defaults.Solicit.Parallel)
	viper.SetDefault("solicit.timeout_seconds", defaults.Solicit.TimeoutSeconds)

	// Feed defaults
	viper.SetDefault("feed.buffer", defaults.Feed.Buffer)

	// Runs defaults
	viper.SetDefault("runs.dir", defaults.Runs.Dir)

	// Archive defaults
	viper.SetDefault("archive.enabled", defaults.Archive.Enabled)
	viper.SetDefault("archive.path", defaults.Archive.Path)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nightfall")
	}
	// Fall back to ~/.config/nightfall
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nightfall"
	}
	return filepath.Join(home, ".config", "nightfall")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
