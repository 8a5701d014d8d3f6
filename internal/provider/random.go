package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/nightfall-sim/nightfall/internal/game"
)

// dayLines are the canned utterances the random provider draws from during
// day discussion.
var dayLines = []string{
	"I have a bad feeling about %s.",
	"Has anyone noticed how quiet %s has been?",
	"I think we should keep an eye on %s.",
	"I'm not accusing anyone yet, but %s worries me.",
	"Last night proved nothing. I still trust no one.",
	"We need to think carefully before we vote today.",
}

// mafiaLines are the canned utterances for mafia night chat.
var mafiaLines = []string{
	"I say we go after %s tonight.",
	"%s is getting too close to the truth.",
	"Keep suspicion off me tomorrow and I'll handle %s.",
}

// Random is a seeded Decider that picks uniformly among eligible targets
// and fills utterances from a canned pool. It exists for headless runs and
// as the deterministic workhorse of the engine tests.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a Random decider with its own seeded source.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Utterance returns a canned line, mentioning a random living player.
func (r *Random) Utterance(ctx context.Context, req Request) (Utterance, error) {
	if err := ctx.Err(); err != nil {
		return Utterance{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lines := dayLines
	if req.Phase == game.PhaseNightAction {
		lines = mafiaLines
	}
	line := lines[r.rng.Intn(len(lines))]

	subject := req.Participant.Name
	if len(req.Candidates) > 0 {
		id := req.Candidates[r.rng.Intn(len(req.Candidates))]
		subject = id
		for _, p := range req.Snapshot.Players {
			if p.ID == id {
				subject = p.Name
				break
			}
		}
	}
	content := line
	if hasNameSlot(line) {
		content = fmt.Sprintf(line, subject)
	}
	return Utterance{Content: content}, nil
}

// Vote picks a uniform random eligible target, abstaining only when there
// are none.
func (r *Random) Vote(ctx context.Context, req Request) (VoteReply, error) {
	if err := ctx.Err(); err != nil {
		return VoteReply{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(req.Candidates) == 0 {
		return VoteReply{Target: game.AbstainTarget}, nil
	}
	return VoteReply{Target: req.Candidates[r.rng.Intn(len(req.Candidates))]}, nil
}

// NightAction picks the role's action against a uniform random eligible
// target.
func (r *Random) NightAction(ctx context.Context, req Request) (ActionReply, error) {
	if err := ctx.Err(); err != nil {
		return ActionReply{}, err
	}

	kind, ok := roleAction(req.Participant.Role)
	if !ok || len(req.Candidates) == 0 {
		return ActionReply{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return ActionReply{
		Kind:   kind,
		Target: req.Candidates[r.rng.Intn(len(req.Candidates))],
	}, nil
}

// hasNameSlot reports whether the canned line has a %s slot.
func hasNameSlot(line string) bool {
	for i := 0; i+1 < len(line); i++ {
		if line[i] == '%' && line[i+1] == 's' {
			return true
		}
	}
	return false
}
