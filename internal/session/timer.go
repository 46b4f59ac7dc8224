package session

import (
	"context"
	"time"
)

// turnTimer is a single-shot countdown keyed to an absolute deadline. Each
// arm bumps the generation; a fire that reaches the session loop carrying an
// old generation is stale and gets dropped there. The deadline is what gets
// shipped to clients, so a reconnecting client derives remaining time locally.
type turnTimer struct {
	gen      uint64
	deadline time.Time
	pending  *time.Timer
}

func (t *turnTimer) arm(ctx context.Context, d time.Duration, inbox chan<- Msg) {
	t.gen++
	t.deadline = time.Now().Add(d)
	if t.pending != nil {
		t.pending.Stop()
	}

	gen := t.gen
	t.pending = time.AfterFunc(d, func() {
		select {
		case inbox <- timerFired{gen: gen}:
		case <-ctx.Done():
		}
	})
}

func (t *turnTimer) stop() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.deadline = time.Time{}
	t.gen++ // anything already in flight is now stale
}
