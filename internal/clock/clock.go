// Package clock predicts the competition lifecycle from a server-supplied countdown.
package clock

import (
	"fmt"

	"github.com/verte-zerg/typerace/internal/model"
)

// Transition is the edge crossed by a tick.
type Transition int

const (
	None Transition = iota
	Activated
	Ended
)

func (t Transition) String() string {
	switch t {
	case Activated:
		return "activated"
	case Ended:
		return "ended"
	default:
		return "none"
	}
}

// Clock is a local, provisional countdown. The server status always wins over it.
type Clock struct {
	remaining int
	duration  int
	status    model.Status
}

// New starts a countdown at remaining seconds for a competition lasting duration seconds.
func New(remaining, duration int, status model.Status) *Clock {
	if status == "" {
		status = model.StatusWaiting
	}
	return &Clock{remaining: remaining, duration: duration, status: status}
}

// Tick advances the countdown by one second and reports the edge crossed, if any.
// An expired countdown ends on the tick after it reaches zero.
func (c *Clock) Tick() Transition {
	if c.status == model.StatusEnded {
		return None
	}
	if c.remaining <= 0 {
		c.remaining = 0
		c.status = model.StatusEnded
		return Ended
	}
	c.remaining--
	if c.status == model.StatusWaiting && c.remaining <= c.duration {
		c.status = model.StatusActive
		return Activated
	}
	return None
}

// Remaining returns the seconds left on the countdown.
func (c *Clock) Remaining() int {
	return c.remaining
}

// Status returns the locally predicted status.
func (c *Clock) Status() model.Status {
	return c.status
}

// UntilStart returns the seconds before a waiting competition activates.
func (c *Clock) UntilStart() int {
	if c.status != model.StatusWaiting {
		return 0
	}
	if d := c.remaining - c.duration; d > 0 {
		return d
	}
	return 0
}

// Format renders seconds as HH:MM:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
