package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "game.players")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidProviderKinds returns the list of valid decision provider kinds
func ValidProviderKinds() []string {
	return []string{"random", "openai"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateGame()...)
	errors = append(errors, c.validateProvider()...)
	errors = append(errors, c.validateSolicit()...)
	errors = append(errors, c.validateFeed()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateGame validates the GameConfig
func (c *Config) validateGame() []ValidationError {
	var errors []ValidationError
	g := c.Game

	if g.Players < 3 {
		errors = append(errors, ValidationError{
			Field:   "game.players",
			Value:   g.Players,
			Message: "must be at least 3",
		})
	}
	for field, n := range map[string]int{
		"game.mafia":     g.Mafia,
		"game.doctor":    g.Doctor,
		"game.detective": g.Detective,
	} {
		if n < 0 {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   n,
				Message: "must be non-negative",
			})
		}
	}
	if g.Godfather < 0 || g.Godfather > 1 {
		errors = append(errors, ValidationError{
			Field:   "game.godfather",
			Value:   g.Godfather,
			Message: "must be 0 or 1",
		})
	}
	if g.Mafia+g.Godfather < 1 {
		errors = append(errors, ValidationError{
			Field:   "game.mafia",
			Value:   g.Mafia + g.Godfather,
			Message: "mafia team needs at least one member",
		})
	}
	if special := g.Mafia + g.Godfather + g.Doctor + g.Detective; special > g.Players {
		errors = append(errors, ValidationError{
			Field:   "game.players",
			Value:   g.Players,
			Message: fmt.Sprintf("too small for %d special roles", special),
		})
	}
	if mafiaTeam := g.Mafia + g.Godfather; g.Players > 0 && mafiaTeam*2 >= g.Players {
		errors = append(errors, ValidationError{
			Field:   "game.mafia",
			Value:   mafiaTeam,
			Message: "mafia team must start as a strict minority",
		})
	}
	if g.DiscussionRounds < 1 {
		errors = append(errors, ValidationError{
			Field:   "game.discussion_rounds",
			Value:   g.DiscussionRounds,
			Message: "must be at least 1",
		})
	}
	if g.MafiaChatRounds < 0 {
		errors = append(errors, ValidationError{
			Field:   "game.mafia_chat_rounds",
			Value:   g.MafiaChatRounds,
			Message: "must be non-negative",
		})
	}
	if g.MaxRounds < 1 {
		errors = append(errors, ValidationError{
			Field:   "game.max_rounds",
			Value:   g.MaxRounds,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateProvider validates the ProviderConfig
func (c *Config) validateProvider() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidProviderKinds(), c.Provider.Kind) {
		errors = append(errors, ValidationError{
			Field:   "provider.kind",
			Value:   c.Provider.Kind,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidProviderKinds(), ", ")),
		})
	}
	if c.Provider.Kind == "openai" {
		if len(c.Provider.OpenAI.Models) == 0 {
			errors = append(errors, ValidationError{
				Field:   "provider.openai.models",
				Value:   c.Provider.OpenAI.Models,
				Message: "at least one model is required",
			})
		}
		if c.Provider.OpenAI.Temperature < 0 || c.Provider.OpenAI.Temperature > 2 {
			errors = append(errors, ValidationError{
				Field:   "provider.openai.temperature",
				Value:   c.Provider.OpenAI.Temperature,
				Message: "must be between 0 and 2",
			})
		}
	}
	if c.Provider.OpenAI.MaxReplyChars < 0 {
		errors = append(errors, ValidationError{
			Field:   "provider.openai.max_reply_chars",
			Value:   c.Provider.OpenAI.MaxReplyChars,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateSolicit validates the SolicitConfig
func (c *Config) validateSolicit() []ValidationError {
	var errors []ValidationError

	if c.Solicit.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "solicit.timeout_seconds",
			Value:   c.Solicit.TimeoutSeconds,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateFeed validates the FeedConfig
func (c *Config) validateFeed() []ValidationError {
	var errors []ValidationError

	if c.Feed.Buffer < 1 {
		errors = append(errors, ValidationError{
			Field:   "feed.buffer",
			Value:   c.Feed.Buffer,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
