package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/nightfall-sim/nightfall/internal/errors"
	"github.com/nightfall-sim/nightfall/internal/game"
)

// Ledger is the per-game, append-only event store. It shares the game
// state's lifetime: created empty at setup, grows monotonically, never
// reused across games. Append is the only mutator; entries are never
// edited or removed.
//
// Appends happen on the engine goroutine, but readers (the spectator TUI,
// the transcript recorder) may query concurrently, so access is guarded by
// an RWMutex.
type Ledger struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append stores an entry. It fails only on a malformed entry — a missing
// type, an unknown phase, or an invalid visibility — which is a programmer
// error, not a runtime condition. The entry's sequence number and, if zero,
// its timestamp are assigned here.
func (l *Ledger) Append(e Entry) error {
	if !e.Type.Valid() {
		return errors.NewInvariantError("ledger entry has invalid type", errors.ErrMalformedEntry)
	}
	if !e.Phase.Valid() {
		return errors.NewInvariantError("ledger entry has invalid phase", errors.ErrMalformedEntry)
	}
	if !e.Visibility.valid() {
		return errors.NewInvariantError("ledger entry has invalid visibility", errors.ErrMalformedEntry)
	}
	if e.Round < 0 {
		return errors.NewInvariantError("ledger entry has negative round", errors.ErrMalformedEntry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e.Seq = len(l.entries)
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.entries = append(l.entries, e)
	return nil
}

// Filter narrows a Query. Zero values mean "no restriction".
type Filter struct {
	Round int       // only entries from this round (rounds start at 1)
	Type  EntryType // only entries of this type
}

func (f Filter) match(e Entry) bool {
	if f.Round != 0 && e.Round != f.Round {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	return true
}

// Query returns, in round-then-phase order, every entry whose visibility
// includes the given participant: public entries, entries private to the
// participant's team, and entries private to the participant. A
// village-team participant can never retrieve mafia-team-private entries
// through this method.
func (l *Ledger) Query(p *game.Participant, filters ...Filter) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for _, e := range l.entries {
		if !e.Visibility.Includes(p.ID, p.Team()) {
			continue
		}
		if !matchAll(e, filters) {
			continue
		}
		out = append(out, e)
	}
	orderEntries(out)
	return out
}

// History returns every entry in order, with no visibility filtering.
// It is reserved for the transcript recorder and must never back a
// participant-facing view.
func (l *Ledger) History() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// CountType returns the number of entries of one type, unfiltered.
func (l *Ledger) CountType(t EntryType) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.entries {
		if e.Type == t {
			n++
		}
	}
	return n
}

func matchAll(e Entry, filters []Filter) bool {
	for _, f := range filters {
		if !f.match(e) {
			return false
		}
	}
	return true
}

// orderEntries sorts by round, then phase position within the round, then
// append sequence. Appends already happen in this order during normal
// operation; the sort makes the Query contract hold regardless.
func orderEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Round != entries[j].Round {
			return entries[i].Round < entries[j].Round
		}
		if entries[i].Phase != entries[j].Phase {
			return entries[i].Phase.Before(entries[j].Phase)
		}
		return entries[i].Seq < entries[j].Seq
	})
}
