// Package transcript records a completed game as a single JSON document:
// the setup, the final roster, the full ledger history, and the outcome.
// A transcript is the replay input — re-driving the engine with a
// scripted provider built from its entries reproduces the recorded game.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nightfall-sim/nightfall/internal/errors"
	"github.com/nightfall-sim/nightfall/internal/game"
	"github.com/nightfall-sim/nightfall/internal/ledger"
)

// FileName is the default transcript file name inside a run directory.
const FileName = "transcript.json"

// Setup captures the game parameters the run was started with, enough to
// rebuild an identical roster and engine configuration for replay.
type Setup struct {
	Players           int            `json:"players"`
	Roles             map[string]int `json:"roles"`
	DiscussionRounds  int            `json:"discussion_rounds"`
	MafiaChatRounds   int            `json:"mafia_chat_rounds"`
	AllowSelfVote     bool           `json:"allow_self_vote"`
	RevealRoleOnDeath bool           `json:"reveal_role_on_death"`
	Seed              int64          `json:"seed"`
}

// Result summarizes the outcome.
type Result struct {
	Winner   game.Team `json:"winner"`
	Rounds   int       `json:"rounds"`
	Messages int       `json:"messages"`
	Votes    int       `json:"votes"`
}

// Document is one complete recorded game.
type Document struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Setup     Setup              `json:"setup"`
	Players   []game.Participant `json:"players"`
	Entries   []ledger.Entry     `json:"entries"`
	Result    Result             `json:"result"`
}

// Record builds a transcript from a finished game's state and full ledger
// history.
func Record(state *game.State, entries []ledger.Entry, setup Setup) (*Document, error) {
	if !state.Over {
		return nil, errors.NewTranscriptError("game is not finished", nil).WithGameID(state.ID)
	}

	players := make([]game.Participant, len(state.Roster))
	for i, p := range state.Roster {
		players[i] = *p
	}

	result := Result{Winner: state.Winner, Rounds: state.Round}
	for _, e := range entries {
		switch e.Type {
		case ledger.EntryMessage:
			result.Messages++
		case ledger.EntryVote:
			result.Votes++
		}
	}

	return &Document{
		ID:        state.ID,
		CreatedAt: time.Now().UTC(),
		Setup:     setup,
		Players:   players,
		Entries:   entries,
		Result:    result,
	}, nil
}

// Save writes the transcript atomically: the document goes to a temporary
// file first, then renames into place, so a crash mid-write never leaves a
// truncated transcript behind.
func (d *Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return errors.NewTranscriptError("marshal transcript", err).WithGameID(d.ID)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewTranscriptError("create transcript directory", err).WithPath(dir)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewTranscriptError("write temp file", err).WithPath(tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return errors.NewTranscriptError("rename temp file", err).WithPath(path)
	}
	return nil
}

// Load reads and validates a transcript.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewTranscriptError("read transcript", err).WithPath(path)
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.NewTranscriptError("parse transcript", errors.ErrTranscriptCorrupted).
			WithPath(path)
	}
	if err := d.validate(); err != nil {
		return nil, errors.NewTranscriptError(err.Error(), errors.ErrTranscriptCorrupted).
			WithPath(path).WithGameID(d.ID)
	}
	return &d, nil
}

// validate rejects documents that cannot drive a replay.
func (d *Document) validate() error {
	if d.ID == "" {
		return fmt.Errorf("missing game id")
	}
	if len(d.Players) == 0 {
		return fmt.Errorf("empty roster")
	}
	seen := make(map[string]bool, len(d.Players))
	for _, p := range d.Players {
		if p.ID == "" || !p.Role.Valid() {
			return fmt.Errorf("roster entry %q is malformed", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate roster id %q", p.ID)
		}
		seen[p.ID] = true
	}
	if d.Result.Winner != game.TeamVillage && d.Result.Winner != game.TeamMafia {
		return fmt.Errorf("invalid winner %q", d.Result.Winner)
	}
	if d.Result.Rounds < 1 {
		return fmt.Errorf("invalid round count %d", d.Result.Rounds)
	}
	for i, e := range d.Entries {
		if !e.Type.Valid() {
			return fmt.Errorf("entry %d has invalid type %q", i, e.Type)
		}
	}
	return nil
}

// Compare checks a replayed game against the recorded one. Timestamps are
// ignored; everything else about the entry sequence and the outcome must
// match exactly. A mismatch returns ErrReplayDiverged with the first
// diverging position.
func (d *Document) Compare(replayed *Document) error {
	if d.Result.Winner != replayed.Result.Winner || d.Result.Rounds != replayed.Result.Rounds {
		return errors.NewTranscriptError(
			fmt.Sprintf("outcome diverged: recorded %s in %d rounds, replayed %s in %d rounds",
				d.Result.Winner, d.Result.Rounds, replayed.Result.Winner, replayed.Result.Rounds),
			errors.ErrReplayDiverged).WithGameID(d.ID)
	}
	if len(d.Entries) != len(replayed.Entries) {
		return errors.NewTranscriptError(
			fmt.Sprintf("entry count diverged: recorded %d, replayed %d",
				len(d.Entries), len(replayed.Entries)),
			errors.ErrReplayDiverged).WithGameID(d.ID)
	}
	for i := range d.Entries {
		a, b := d.Entries[i], replayed.Entries[i]
		if a.Seq != b.Seq || a.Type != b.Type || a.Round != b.Round || a.Phase != b.Phase ||
			a.Visibility != b.Visibility || a.Actor != b.Actor || a.Target != b.Target ||
			a.Kind != b.Kind || a.Content != b.Content {
			return errors.NewTranscriptError(
				fmt.Sprintf("entry %d diverged: recorded %s by %q, replayed %s by %q",
					i, a.Type, a.Actor, b.Type, b.Actor),
				errors.ErrReplayDiverged).WithGameID(d.ID)
		}
	}
	return nil
}

// Roster rebuilds the starting roster: the recorded players, all alive.
func (d *Document) Roster() []*game.Participant {
	roster := make([]*game.Participant, len(d.Players))
	for i, p := range d.Players {
		fresh := p
		fresh.Status = game.StatusAlive
		roster[i] = &fresh
	}
	return roster
}
