// Package errors provides centralized error definitions and error handling
// utilities for the Nightfall codebase. It defines domain-specific errors,
// sentinel errors, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides four domain error types mapping to the failure
// categories of the simulation:
//
//   - SetupError: game creation failed (bad role counts, empty roster).
//     Fatal before the game starts; the game is never created.
//   - IntentError: a participant's vote/action was rejected (ineligible
//     target, malformed reply). Recoverable; the intent degrades to an
//     abstain or no-op.
//   - InvariantError: a kernel invariant was violated (mutating a dead
//     participant, out-of-order phase transition). Fatal; indicates a bug.
//   - TranscriptError: a transcript could not be read, parsed, or replayed.
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewSetupError("role counts exceed roster", errors.ErrSetupInvalid)
//	err = errors.NewIntentError("vote target is not alive", nil).WithParticipant("player-3")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrGameOver) { ... }
//
//	var intentErr *errors.IntentError
//	if errors.As(err, &intentErr) { ... }
//
//	if errors.IsFatal(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Game lifecycle sentinel errors
var (
	// ErrGameOver indicates an operation was attempted on a finished game.
	ErrGameOver = New("game is over")
	// ErrGameNotFound indicates a game could not be found in the archive.
	ErrGameNotFound = New("game not found")
	// ErrSetupInvalid indicates the game configuration cannot produce a valid game.
	ErrSetupInvalid = New("game setup is invalid")
	// ErrGameAborted indicates a game was reset or cancelled mid-run.
	ErrGameAborted = New("game aborted")
)

// Kernel invariant sentinel errors
var (
	// ErrInvalidTransition indicates a phase transition attempted out of order.
	ErrInvalidTransition = New("invalid phase transition")
	// ErrParticipantDead indicates a mutation was attempted on an eliminated participant.
	ErrParticipantDead = New("participant already eliminated")
	// ErrUnknownParticipant indicates a participant id not present in the roster.
	ErrUnknownParticipant = New("unknown participant")
)

// Ledger and transcript sentinel errors
var (
	// ErrMalformedEntry indicates a ledger entry missing required fields.
	ErrMalformedEntry = New("malformed ledger entry")
	// ErrTranscriptCorrupted indicates a transcript file that cannot be parsed.
	ErrTranscriptCorrupted = New("transcript corrupted")
	// ErrReplayDiverged indicates a replay produced a different outcome than recorded.
	ErrReplayDiverged = New("replay diverged from transcript")
	// ErrScriptExhausted indicates a scripted provider ran out of recorded intents.
	ErrScriptExhausted = New("script exhausted")
)

// General sentinel errors
var (
	// ErrTimeout indicates a decision provider did not respond in time.
	ErrTimeout = New("provider timed out")
	// ErrCanceled indicates an operation was canceled.
	ErrCanceled = New("operation canceled")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message string
	cause   error
	fatal   bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsFatalError reports whether the error halts the game.
func (e *baseError) IsFatalError() bool {
	return e.fatal
}

// fatalCarrier is implemented by errors that know whether they are fatal.
type fatalCarrier interface {
	IsFatalError() bool
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SetupError represents a game-creation failure: the configured role counts
// and roster cannot produce a playable game. Always fatal.
//
// Example:
//
//	err := errors.NewSetupError("2 mafia + 5 special roles exceed 6 players", errors.ErrSetupInvalid)
type SetupError struct {
	baseError
	Players int
	Roles   string
}

// NewSetupError creates a new SetupError.
func NewSetupError(message string, cause error) *SetupError {
	return &SetupError{
		baseError: baseError{
			message: message,
			cause:   cause,
			fatal:   true,
		},
	}
}

// WithPlayers adds the configured player count to the error context.
func (e *SetupError) WithPlayers(n int) *SetupError {
	e.Players = n
	return e
}

// WithRoles adds a description of the configured role counts.
func (e *SetupError) WithRoles(roles string) *SetupError {
	e.Roles = roles
	return e
}

// Error returns the error message with setup context.
func (e *SetupError) Error() string {
	msg := "setup error"
	if e.Players > 0 {
		msg = fmt.Sprintf("%s [players=%d]", msg, e.Players)
	}
	if e.Roles != "" {
		msg = fmt.Sprintf("%s [roles=%s]", msg, e.Roles)
	}
	return fmt.Sprintf("%s: %s", msg, e.baseError.Error())
}

// IntentError represents a rejected participant intent: a vote or night
// action naming an ineligible or nonexistent target, or a reply the engine
// could not interpret. Never fatal; the engine degrades to abstain/no-op.
type IntentError struct {
	baseError
	Participant string
	Target      string
}

// NewIntentError creates a new IntentError.
func NewIntentError(message string, cause error) *IntentError {
	return &IntentError{
		baseError: baseError{
			message: message,
			cause:   cause,
			fatal:   false,
		},
	}
}

// WithParticipant adds the offending participant id to the error context.
func (e *IntentError) WithParticipant(id string) *IntentError {
	e.Participant = id
	return e
}

// WithTarget adds the rejected target id to the error context.
func (e *IntentError) WithTarget(id string) *IntentError {
	e.Target = id
	return e
}

// Error returns the error message with intent context.
func (e *IntentError) Error() string {
	msg := "intent error"
	if e.Participant != "" {
		msg = fmt.Sprintf("%s [participant=%s]", msg, e.Participant)
	}
	if e.Target != "" {
		msg = fmt.Sprintf("%s [target=%s]", msg, e.Target)
	}
	return fmt.Sprintf("%s: %s", msg, e.baseError.Error())
}

// InvariantError represents a kernel invariant violation: state was mutated
// in a way the simulation forbids. Always fatal; signals a bug, and the
// affected game halts rather than producing an inconsistent transcript.
type InvariantError struct {
	baseError
	Round int
	Phase string
}

// NewInvariantError creates a new InvariantError.
func NewInvariantError(message string, cause error) *InvariantError {
	return &InvariantError{
		baseError: baseError{
			message: message,
			cause:   cause,
			fatal:   true,
		},
	}
}

// WithRound adds the round number to the error context.
func (e *InvariantError) WithRound(round int) *InvariantError {
	e.Round = round
	return e
}

// WithPhase adds the phase name to the error context.
func (e *InvariantError) WithPhase(phase string) *InvariantError {
	e.Phase = phase
	return e
}

// Error returns the error message with state context.
func (e *InvariantError) Error() string {
	msg := "invariant violation"
	if e.Round > 0 {
		msg = fmt.Sprintf("%s [round=%d]", msg, e.Round)
	}
	if e.Phase != "" {
		msg = fmt.Sprintf("%s [phase=%s]", msg, e.Phase)
	}
	return fmt.Sprintf("%s: %s", msg, e.baseError.Error())
}

// TranscriptError represents a failure reading, writing, or replaying a
// game transcript.
type TranscriptError struct {
	baseError
	Path   string
	GameID string
}

// NewTranscriptError creates a new TranscriptError.
func NewTranscriptError(message string, cause error) *TranscriptError {
	return &TranscriptError{
		baseError: baseError{
			message: message,
			cause:   cause,
			fatal:   true,
		},
	}
}

// WithPath adds the transcript file path to the error context.
func (e *TranscriptError) WithPath(path string) *TranscriptError {
	e.Path = path
	return e
}

// WithGameID adds the game id to the error context.
func (e *TranscriptError) WithGameID(id string) *TranscriptError {
	e.GameID = id
	return e
}

// Error returns the error message with transcript context.
func (e *TranscriptError) Error() string {
	msg := "transcript error"
	if e.GameID != "" {
		msg = fmt.Sprintf("%s [game=%s]", msg, e.GameID)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s [path=%s]", msg, e.Path)
	}
	return fmt.Sprintf("%s: %s", msg, e.baseError.Error())
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsFatal returns true if the error halts the game: setup errors, invariant
// violations, and transcript corruption. Provider timeouts and rejected
// intents are never fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fc fatalCarrier
	if errors.As(err, &fc) {
		return fc.IsFatalError()
	}
	return errors.Is(err, ErrSetupInvalid) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrParticipantDead) ||
		errors.Is(err, ErrTranscriptCorrupted) ||
		errors.Is(err, ErrReplayDiverged)
}

// IsIntent returns true if the error is a rejected participant intent,
// recoverable by treating the intent as an abstain or no-op.
func IsIntent(err error) bool {
	if err == nil {
		return false
	}
	var intentErr *IntentError
	return errors.As(err, &intentErr)
}

// IsTimeout returns true if the error is a provider non-response, either a
// Nightfall timeout sentinel or a context deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTimeout)
}
