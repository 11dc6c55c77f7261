// Package scheduler runs timer callbacks cooperatively on a single goroutine.
//
// Callbacks never run concurrently with each other. Blocking work (network
// calls) runs on its own goroutine through Go and hands its continuation back
// to the queue, so a slow request never delays a timer.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler is a timer queue plus a queue of posted callbacks.
type Scheduler struct {
	clock clockwork.Clock

	mu     sync.Mutex
	queue  taskHeap
	posted []func()
	seq    uint64
	closed bool

	wake     chan struct{}
	inflight sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// Handle cancels a scheduled task.
type Handle struct {
	s         *Scheduler
	cancelled bool
	done      bool
}

// New returns a scheduler driven by clock.
func New(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:  clock,
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Clock returns the clock driving the scheduler.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Every runs fn each period, first after one period has elapsed.
func (s *Scheduler) Every(period time.Duration, fn func()) *Handle {
	return s.schedule(period, period, fn)
}

// After runs fn once after d.
func (s *Scheduler) After(d time.Duration, fn func()) *Handle {
	return s.schedule(d, 0, fn)
}

func (s *Scheduler) schedule(delay, period time.Duration, fn func()) *Handle {
	h := &Handle{s: s}
	s.mu.Lock()
	if s.closed {
		h.cancelled = true
		s.mu.Unlock()
		return h
	}
	s.seq++
	heap.Push(&s.queue, &task{
		due:    s.clock.Now().Add(delay),
		period: period,
		seq:    s.seq,
		fn:     fn,
		handle: h,
	})
	s.mu.Unlock()
	s.signal()
	return h
}

// Cancel stops the task. It is safe to call more than once and from inside
// the task itself.
func (h *Handle) Cancel() {
	if h == nil || h.s == nil {
		return
	}
	h.s.mu.Lock()
	h.cancelled = true
	h.s.mu.Unlock()
}

// Active reports whether the task will still run.
func (h *Handle) Active() bool {
	if h == nil || h.s == nil {
		return false
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return !h.cancelled && !h.done
}

// Post queues fn to run on the scheduler goroutine. Safe from any goroutine.
func (s *Scheduler) Post(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.posted = append(s.posted, fn)
	s.mu.Unlock()
	s.signal()
}

// Go runs work on its own goroutine and posts the continuation it returns.
// The context is cancelled when the scheduler closes.
func (s *Scheduler) Go(work func(ctx context.Context) func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.inflight.Done()
		if then := work(s.ctx); then != nil {
			s.Post(then)
		}
	}()
}

// RunDue runs posted callbacks and every task due at the current clock time,
// one at a time, and returns how many ran.
func (s *Scheduler) RunDue() int {
	n := 0
	for {
		fn, ok := s.next()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Settle waits for in-flight work and runs callbacks until nothing is left
// to do at the current clock time.
func (s *Scheduler) Settle() {
	for {
		s.inflight.Wait()
		if s.RunDue() == 0 {
			s.mu.Lock()
			idle := len(s.posted) == 0
			s.mu.Unlock()
			if idle {
				return
			}
		}
	}
}

// Run executes callbacks until ctx is done, then closes the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.Close()
	for {
		s.RunDue()

		var timerC <-chan time.Time
		var timer clockwork.Timer
		if wait, ok := s.untilNext(); ok {
			timer = s.clock.NewTimer(wait)
			timerC = timer.Chan()
		}
		select {
		case <-ctx.Done():
			stopTimer(timer)
			return ctx.Err()
		case <-s.wake:
		case <-timerC:
		}
		stopTimer(timer)
	}
}

// Close cancels all tasks and in-flight work. Later posts are dropped.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, t := range s.queue {
		t.handle.cancelled = true
	}
	s.queue = nil
	s.posted = nil
	s.mu.Unlock()
	s.cancel()
}

func (s *Scheduler) next() (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.posted) > 0 {
		fn := s.posted[0]
		s.posted = s.posted[1:]
		return fn, true
	}
	now := s.clock.Now()
	for s.queue.Len() > 0 {
		t := s.queue[0]
		if t.handle.cancelled {
			heap.Pop(&s.queue)
			continue
		}
		if t.due.After(now) {
			return nil, false
		}
		heap.Pop(&s.queue)
		if t.period > 0 {
			s.seq++
			t.due = t.due.Add(t.period)
			t.seq = s.seq
			heap.Push(&s.queue, t)
		} else {
			t.handle.done = true
		}
		return t.fn, true
	}
	return nil, false
}

func (s *Scheduler) untilNext() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.queue.Len() > 0 {
		t := s.queue[0]
		if t.handle.cancelled {
			heap.Pop(&s.queue)
			continue
		}
		wait := t.due.Sub(s.clock.Now())
		if wait < 0 {
			wait = 0
		}
		return wait, true
	}
	return 0, false
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func stopTimer(timer clockwork.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

type task struct {
	due    time.Time
	period time.Duration
	seq    uint64
	fn     func()
	handle *Handle
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
