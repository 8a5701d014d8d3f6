package errors

import (
	"strings"
	"testing"
)

func TestSetupError_Error(t *testing.T) {
	err := NewSetupError("role counts exceed roster", ErrSetupInvalid).
		WithPlayers(5).
		WithRoles("mafia=3 doctor=1 detective=1 godfather=1")

	msg := err.Error()
	if !strings.Contains(msg, "players=5") {
		t.Errorf("Expected player count in message, got %q", msg)
	}
	if !strings.Contains(msg, "role counts exceed roster") {
		t.Errorf("Expected base message, got %q", msg)
	}
	if !Is(err, ErrSetupInvalid) {
		t.Error("SetupError should match ErrSetupInvalid via errors.Is")
	}
}

func TestIntentError_Error(t *testing.T) {
	err := NewIntentError("vote target is not alive", nil).
		WithParticipant("player-3").
		WithTarget("player-7")

	msg := err.Error()
	if !strings.Contains(msg, "participant=player-3") {
		t.Errorf("Expected participant in message, got %q", msg)
	}
	if !strings.Contains(msg, "target=player-7") {
		t.Errorf("Expected target in message, got %q", msg)
	}
}

func TestInvariantError_Error(t *testing.T) {
	err := NewInvariantError("eliminate called twice", ErrParticipantDead).
		WithRound(3).
		WithPhase("night_resolution")

	msg := err.Error()
	if !strings.Contains(msg, "round=3") {
		t.Errorf("Expected round in message, got %q", msg)
	}
	if !Is(err, ErrParticipantDead) {
		t.Error("InvariantError should match its cause via errors.Is")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"setup error", NewSetupError("bad counts", nil), true},
		{"invariant error", NewInvariantError("dead mutation", nil), true},
		{"transcript error", NewTranscriptError("bad json", nil), true},
		{"intent error", NewIntentError("bad target", nil), false},
		{"timeout sentinel", ErrTimeout, false},
		{"invalid transition sentinel", ErrInvalidTransition, true},
		{"replay diverged sentinel", ErrReplayDiverged, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
		})
	}
}

func TestIsIntent(t *testing.T) {
	if !IsIntent(NewIntentError("bad vote", nil)) {
		t.Error("IsIntent should be true for IntentError")
	}
	if IsIntent(NewSetupError("bad counts", nil)) {
		t.Error("IsIntent should be false for SetupError")
	}
	if IsIntent(nil) {
		t.Error("IsIntent should be false for nil")
	}
}

func TestIsTimeout(t *testing.T) {
	wrapped := NewIntentError("no reply", ErrTimeout)
	if !IsTimeout(wrapped) {
		t.Error("IsTimeout should unwrap to ErrTimeout")
	}
	if IsTimeout(New("other")) {
		t.Error("IsTimeout should be false for unrelated errors")
	}
}

func TestAs_DomainTypes(t *testing.T) {
	var intentErr *IntentError
	err := NewIntentError("rejected", nil).WithParticipant("player-1")
	if !As(err, &intentErr) {
		t.Fatal("errors.As should extract *IntentError")
	}
	if intentErr.Participant != "player-1" {
		t.Errorf("Expected participant player-1, got %s", intentErr.Participant)
	}
}
