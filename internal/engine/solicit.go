package engine

import (
	"context"
	"sync"

	"github.com/nightfall-sim/nightfall/internal/errors"
	"github.com/nightfall-sim/nightfall/internal/game"
	"github.com/nightfall-sim/nightfall/internal/provider"
)

// replyValue is the normalized payload of one solicited decision.
type replyValue struct {
	kind    game.ActionKind
	target  string
	thought string
}

// reply pairs a solicited value with the error that produced it.
type reply struct {
	value replyValue
	err   error
}

// solicitFunc performs one provider call for one participant.
type solicitFunc func(ctx context.Context, p *game.Participant) (replyValue, error)

// solicit collects one decision per participant. Calls run concurrently
// when the engine is configured for it, each under its own timeout;
// results come back indexed by the input order so the caller applies them
// in roster order regardless of completion order.
func (e *Engine) solicit(ctx context.Context, participants []*game.Participant, fn solicitFunc) []reply {
	replies := make([]reply, len(participants))

	if !e.cfg.Parallel {
		for i, p := range participants {
			replies[i] = e.solicitOne(ctx, p, fn)
		}
		return replies
	}

	var wg sync.WaitGroup
	for i, p := range participants {
		wg.Add(1)
		go func() {
			defer wg.Done()
			replies[i] = e.solicitOne(ctx, p, fn)
		}()
	}
	wg.Wait()
	return replies
}

// solicitOne runs a single provider call under the solicitation timeout.
func (e *Engine) solicitOne(ctx context.Context, p *game.Participant, fn solicitFunc) reply {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.SolicitTimeout)
	defer cancel()

	v, err := fn(callCtx, p)
	if err != nil {
		return reply{err: normalizeSolicitError(callCtx, err)}
	}
	return reply{value: v}
}

// solicitUtterance is the sequential path used by the discussion phases.
func (e *Engine) solicitUtterance(ctx context.Context, p *game.Participant, candidates []string) (provider.Utterance, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.SolicitTimeout)
	defer cancel()

	u, err := e.providers.For(p.ID).Utterance(callCtx, e.request(p, candidates))
	if err != nil {
		return provider.Utterance{}, normalizeSolicitError(callCtx, err)
	}
	return u, nil
}

// request assembles the visibility-filtered request for one participant.
func (e *Engine) request(p *game.Participant, candidates []string) provider.Request {
	return provider.Request{
		Participant: *p,
		Round:       e.state.Round,
		Phase:       e.state.Phase,
		Snapshot:    e.state.SnapshotFor(p),
		View:        e.ledger.Query(p),
		Candidates:  candidates,
	}
}

// normalizeSolicitError maps a deadline hit to the timeout sentinel so
// classification downstream is uniform.
func normalizeSolicitError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Join(errors.ErrTimeout, err)
	}
	return err
}
