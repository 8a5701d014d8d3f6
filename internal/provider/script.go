package provider

import (
	"context"
	"sync"

	"github.com/nightfall-sim/nightfall/internal/errors"
	"github.com/nightfall-sim/nightfall/internal/game"
	"github.com/nightfall-sim/nightfall/internal/ledger"
)

// Script replays the recorded intents of a past game. It is built from a
// transcript's ledger entries and serves each participant their recorded
// messages, votes, and actions in original order, so re-driving the engine
// reproduces the recorded event sequence exactly.
//
// A Script that runs out of recorded intents for a participant returns
// ErrScriptExhausted; the engine's abstain fallback keeps a truncated
// transcript from crashing a replay, though the outcome check will then
// flag the divergence.
type Script struct {
	mu       sync.Mutex
	messages map[string][]scriptIntent
	votes    map[string][]scriptIntent
	actions  map[string][]scriptIntent
}

// scriptIntent is one recorded intent with the inner thought that was
// recorded alongside it, if any.
type scriptIntent struct {
	entry   ledger.Entry
	thought string
}

// NewScript indexes recorded ledger entries by participant. Entries that
// are not participant intents (events, investigation results) are ignored.
// An inner thought is recorded as the entry immediately following its
// intent, so it is attached to the intent whose sequence number it
// directly succeeds.
func NewScript(entries []ledger.Entry) *Script {
	s := &Script{
		messages: make(map[string][]scriptIntent),
		votes:    make(map[string][]scriptIntent),
		actions:  make(map[string][]scriptIntent),
	}
	var last *scriptIntent
	var lastSeq int
	for _, e := range entries {
		if e.Actor == "" {
			continue
		}
		switch e.Type {
		case ledger.EntryMessage:
			last = push(s.messages, e)
			lastSeq = e.Seq
		case ledger.EntryVote:
			last = push(s.votes, e)
			lastSeq = e.Seq
		case ledger.EntryAction:
			last = push(s.actions, e)
			lastSeq = e.Seq
		case ledger.EntryInnerThought:
			if last != nil && last.entry.Actor == e.Actor && e.Seq == lastSeq+1 {
				last.thought = e.Content
			}
		}
	}
	return s
}

// push appends an intent to its actor's queue and returns a pointer to the
// queued element, so a directly following thought entry can be attached.
func push(queues map[string][]scriptIntent, e ledger.Entry) *scriptIntent {
	q := append(queues[e.Actor], scriptIntent{entry: e})
	queues[e.Actor] = q
	return &q[len(q)-1]
}

// Utterance replays the participant's next recorded message.
func (s *Script) Utterance(ctx context.Context, req Request) (Utterance, error) {
	if err := ctx.Err(); err != nil {
		return Utterance{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.pop(s.messages, req.Participant.ID, req.Round, req.Phase)
	if !ok {
		return Utterance{}, errors.NewIntentError("no recorded message", errors.ErrScriptExhausted).
			WithParticipant(req.Participant.ID)
	}
	return Utterance{
		Content:      in.entry.Content,
		InnerThought: in.thought,
	}, nil
}

// Vote replays the participant's next recorded vote.
func (s *Script) Vote(ctx context.Context, req Request) (VoteReply, error) {
	if err := ctx.Err(); err != nil {
		return VoteReply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.pop(s.votes, req.Participant.ID, req.Round, req.Phase)
	if !ok {
		return VoteReply{}, errors.NewIntentError("no recorded vote", errors.ErrScriptExhausted).
			WithParticipant(req.Participant.ID)
	}
	return VoteReply{
		Target:       in.entry.Target,
		InnerThought: in.thought,
	}, nil
}

// NightAction replays the participant's next recorded night action.
func (s *Script) NightAction(ctx context.Context, req Request) (ActionReply, error) {
	if err := ctx.Err(); err != nil {
		return ActionReply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.pop(s.actions, req.Participant.ID, req.Round, req.Phase)
	if !ok {
		return ActionReply{}, errors.NewIntentError("no recorded action", errors.ErrScriptExhausted).
			WithParticipant(req.Participant.ID)
	}
	return ActionReply{
		Kind:         game.ActionKind(in.entry.Kind),
		Target:       in.entry.Target,
		InnerThought: in.thought,
	}, nil
}

// pop removes and returns the head of one participant's queue, but only
// when the head was recorded for the requested round and phase. A recorded
// run where a participant produced nothing for some solicitation (a
// timeout, say) leaves a gap; refusing a mismatched head keeps later
// intents from sliding into it.
func (s *Script) pop(queues map[string][]scriptIntent, id string, round int, phase game.Phase) (scriptIntent, bool) {
	q := queues[id]
	if len(q) == 0 || q[0].entry.Round != round || q[0].entry.Phase != phase {
		return scriptIntent{}, false
	}
	queues[id] = q[1:]
	return q[0], true
}

// Remaining reports how many recorded intents are still queued, across all
// participants. Zero after a faithful replay.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, q := range s.messages {
		n += len(q)
	}
	for _, q := range s.votes {
		n += len(q)
	}
	for _, q := range s.actions {
		n += len(q)
	}
	return n
}
