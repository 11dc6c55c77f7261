package scheduler

import (
	"context"
	"sync"
	"time"
)

// Group tracks tasks that are cancelled together. Continuations of work
// started through a cancelled group are dropped.
type Group struct {
	s *Scheduler

	mu        sync.Mutex
	handles   []*Handle
	cancelled bool
}

// NewGroup returns an empty group on s.
func (s *Scheduler) NewGroup() *Group {
	return &Group{s: s}
}

// Every schedules a periodic task owned by the group.
func (g *Group) Every(period time.Duration, fn func()) *Handle {
	return g.track(g.s.Every(period, g.guard(fn)))
}

// After schedules a one-shot task owned by the group.
func (g *Group) After(d time.Duration, fn func()) *Handle {
	return g.track(g.s.After(d, g.guard(fn)))
}

// Go runs work and drops its continuation if the group was cancelled meanwhile.
func (g *Group) Go(work func(ctx context.Context) func()) {
	if g.Cancelled() {
		return
	}
	g.s.Go(func(ctx context.Context) func() {
		then := work(ctx)
		if then == nil {
			return nil
		}
		return g.guard(then)
	})
}

// Post queues fn unless the group is cancelled by the time it runs.
func (g *Group) Post(fn func()) {
	g.s.Post(g.guard(fn))
}

// Cancel stops every task in the group.
func (g *Group) Cancel() {
	g.mu.Lock()
	g.cancelled = true
	handles := g.handles
	g.handles = nil
	g.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

// Cancelled reports whether Cancel was called.
func (g *Group) Cancelled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled
}

func (g *Group) track(h *Handle) *Handle {
	g.mu.Lock()
	if g.cancelled {
		g.mu.Unlock()
		h.Cancel()
		return h
	}
	kept := g.handles[:0]
	for _, existing := range g.handles {
		if existing.Active() {
			kept = append(kept, existing)
		}
	}
	g.handles = append(kept, h)
	g.mu.Unlock()
	return h
}

func (g *Group) guard(fn func()) func() {
	return func() {
		if g.Cancelled() {
			return
		}
		fn()
	}
}
