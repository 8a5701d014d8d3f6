package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Game.Players != 8 {
		t.Errorf("Game.Players = %d, want 8", cfg.Game.Players)
	}
	if cfg.Game.Mafia != 2 || cfg.Game.Godfather != 1 {
		t.Errorf("mafia team = %d+%d, want 2+1", cfg.Game.Mafia, cfg.Game.Godfather)
	}
	if cfg.Game.DiscussionRounds != 3 {
		t.Errorf("Game.DiscussionRounds = %d, want 3", cfg.Game.DiscussionRounds)
	}
	if cfg.Game.MafiaChatRounds != 2 {
		t.Errorf("Game.MafiaChatRounds = %d, want 2", cfg.Game.MafiaChatRounds)
	}
	if !cfg.Game.RevealRoleOnDeath {
		t.Error("Game.RevealRoleOnDeath should be true by default")
	}
	if cfg.Game.AllowSelfVote {
		t.Error("Game.AllowSelfVote should be false by default")
	}

	if cfg.Provider.Kind != "random" {
		t.Errorf("Provider.Kind = %q, want %q", cfg.Provider.Kind, "random")
	}
	if !cfg.Solicit.Parallel {
		t.Error("Solicit.Parallel should be true by default")
	}
	if cfg.Solicit.Timeout() != 30*time.Second {
		t.Errorf("Solicit.Timeout() = %v, want 30s", cfg.Solicit.Timeout())
	}
	if cfg.Feed.Buffer != 256 {
		t.Errorf("Feed.Buffer = %d, want 256", cfg.Feed.Buffer)
	}
	if !cfg.Archive.Enabled {
		t.Error("Archive.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestDefault_PassesValidation(t *testing.T) {
	if errs := Default().Validate(); len(errs) != 0 {
		t.Errorf("default config failed validation: %v", ValidationErrors(errs))
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"too few players", func(c *Config) { c.Game.Players = 2 }, "game.players"},
		{"negative mafia", func(c *Config) { c.Game.Mafia = -1 }, "game.mafia"},
		{"two godfathers", func(c *Config) { c.Game.Godfather = 2 }, "game.godfather"},
		{"no mafia team", func(c *Config) { c.Game.Mafia = 0; c.Game.Godfather = 0 }, "game.mafia"},
		{"mafia majority", func(c *Config) { c.Game.Mafia = 4 }, "game.mafia"},
		{"zero discussion rounds", func(c *Config) { c.Game.DiscussionRounds = 0 }, "game.discussion_rounds"},
		{"unknown provider kind", func(c *Config) { c.Provider.Kind = "psychic" }, "provider.kind"},
		{"openai without models", func(c *Config) {
			c.Provider.Kind = "openai"
			c.Provider.OpenAI.Models = nil
		}, "provider.openai.models"},
		{"temperature out of range", func(c *Config) {
			c.Provider.Kind = "openai"
			c.Provider.OpenAI.Temperature = 3.5
		}, "provider.openai.temperature"},
		{"zero solicit timeout", func(c *Config) { c.Solicit.TimeoutSeconds = 0 }, "solicit.timeout_seconds"},
		{"zero feed buffer", func(c *Config) { c.Feed.Buffer = 0 }, "feed.buffer"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatal("expected a validation error, got none")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.field, ValidationErrors(errs))
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "game.players", Value: 2, Message: "must be at least 3"},
	}
	if got := errs.Error(); got != "game.players: must be at least 3 (got: 2)" {
		t.Errorf("single error format = %q", got)
	}

	errs = append(errs, ValidationError{Field: "feed.buffer", Value: 0, Message: "must be at least 1"})
	multi := errs.Error()
	if multi == "" || multi == errs[0].Error() {
		t.Errorf("multi error format = %q", multi)
	}
}

func TestLoad_FromViperDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Game.Players != 8 || cfg.Provider.Kind != "random" {
		t.Errorf("loaded config does not match defaults: %+v", cfg.Game)
	}
}

func TestLoad_RejectsInvalidOverride(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("game.players", 1)

	if _, err := Load(); err == nil {
		t.Error("Load accepted an invalid player count")
	}
}

func TestResolveRunsDir(t *testing.T) {
	r := RunsConfig{}
	if got := r.ResolveRunsDir(); got != "runs" {
		t.Errorf("empty dir resolved to %q, want %q", got, "runs")
	}
	r.Dir = "/var/lib/nightfall"
	if got := r.ResolveRunsDir(); got != "/var/lib/nightfall" {
		t.Errorf("absolute dir resolved to %q", got)
	}
}
