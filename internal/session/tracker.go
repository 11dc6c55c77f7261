// Package session tracks one participant's live typing session.
package session

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/verte-zerg/typerace/internal/textmode"
)

// State is the tracker state.
type State int

const (
	NotStarted State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "not-started"
}

// Event describes the edges crossed by a single input.
type Event struct {
	Rejected  bool
	Started   bool
	Correct   bool
	Repeated  bool
	Completed bool
}

// Snapshot is a read-only copy of the session counters.
type Snapshot struct {
	State             State
	StartedAt         time.Time
	Typed             string
	TotalKeystrokes   int
	CorrectKeystrokes int
	RepeatCount       int
	Completed         bool
	Disabled          bool
	Markers           []string
}

// Started reports whether the first keystroke has been recorded.
func (s Snapshot) Started() bool {
	return !s.StartedAt.IsZero()
}

// Tracker owns the mutable session. Only input and reset mutate it.
type Tracker struct {
	clock   clockwork.Clock
	adapter *textmode.Adapter

	state       State
	startedAt   time.Time
	completedAt time.Time
	typed       []rune

	total     int
	correct   int
	repeats   int
	completed bool
	disabled  bool
	markers   []string
}

// New returns a tracker for the adapter's target text.
func New(adapter *textmode.Adapter, clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{clock: clock, adapter: adapter}
}

// Adapter returns the text-mode adapter in use.
func (t *Tracker) Adapter() *textmode.Adapter {
	return t.adapter
}

// Input records one input event carrying the full typed text.
func (t *Tracker) Input(typed string) Event {
	if t.disabled || t.completed {
		return Event{Rejected: true}
	}
	var ev Event
	if t.state == NotStarted {
		t.state = Running
		t.startedAt = t.clock.Now()
		ev.Started = true
	}

	runes := []rune(typed)
	t.typed = runes
	t.total++

	mode := t.adapter.Mode()
	if mode.Repeats() && t.adapter.BaseLen() > 0 && len(runes) >= t.adapter.BaseLen() {
		t.repeats++
		t.typed = nil
		t.markers = append(t.markers, fmt.Sprintf("Text repeated (%d times)", t.repeats))
		ev.Repeated = true
	}

	// The whole typed text must be a prefix of the target for the keystroke to count.
	target := t.adapter.Target(len(runes))
	if textmode.HasPrefix(target, typed) {
		t.correct++
		ev.Correct = true
	}

	if !mode.Repeats() && t.adapter.BaseLen() > 0 && typed == t.adapter.Base() {
		t.completed = true
		t.completedAt = t.clock.Now()
		ev.Completed = true
	}
	return ev
}

// Type appends r to the typed text and records the input.
func (t *Tracker) Type(r rune) Event {
	next := make([]rune, len(t.typed), len(t.typed)+1)
	copy(next, t.typed)
	return t.Input(string(append(next, r)))
}

// Backspace removes the last typed rune. Deleting counts as an input event;
// an empty buffer produces none.
func (t *Tracker) Backspace() Event {
	if len(t.typed) == 0 {
		return Event{Rejected: true}
	}
	return t.Input(string(t.typed[:len(t.typed)-1]))
}

// Reset clears all counters and markers and returns to NotStarted.
func (t *Tracker) Reset() {
	t.state = NotStarted
	t.startedAt = time.Time{}
	t.completedAt = time.Time{}
	t.typed = nil
	t.total = 0
	t.correct = 0
	t.repeats = 0
	t.completed = false
	t.markers = nil
}

// Disable rejects all further input.
func (t *Tracker) Disable() {
	t.disabled = true
}

// Enable accepts input again.
func (t *Tracker) Enable() {
	t.disabled = false
}

// Enabled reports whether input is accepted.
func (t *Tracker) Enabled() bool {
	return !t.disabled && !t.completed
}

// Elapsed returns the seconds since the first keystroke, or 0 before it.
// A completed session stays frozen at its completion time.
func (t *Tracker) Elapsed() float64 {
	if t.state != Running {
		return 0
	}
	if t.completed {
		return t.completedAt.Sub(t.startedAt).Seconds()
	}
	return t.clock.Since(t.startedAt).Seconds()
}

// Snapshot returns a copy of the session state.
func (t *Tracker) Snapshot() Snapshot {
	markers := make([]string, len(t.markers))
	copy(markers, t.markers)
	return Snapshot{
		State:             t.state,
		StartedAt:         t.startedAt,
		Typed:             string(t.typed),
		TotalKeystrokes:   t.total,
		CorrectKeystrokes: t.correct,
		RepeatCount:       t.repeats,
		Completed:         t.completed,
		Disabled:          t.disabled,
		Markers:           markers,
	}
}
