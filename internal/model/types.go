// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how the target text is derived from the canonical text.
type Mode string

const (
	ModePlain      Mode = "plain"
	ModeReverse    Mode = "reverse"
	ModeRepeat     Mode = "repeat"
	ModeJumbleWord Mode = "jumble-word"
)

// ParseMode accepts the canonical mode names case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "":
		return ModePlain, nil
	case "reverse":
		return ModeReverse, nil
	case "repeat":
		return ModeRepeat, nil
	case "jumble-word", "jumble_word", "jumble":
		return ModeJumbleWord, nil
	default:
		return "", fmt.Errorf("unknown competition mode %q", s)
	}
}

// Repeats reports whether the mode restarts the text once it is fully typed.
func (m Mode) Repeats() bool {
	return m != ModeJumbleWord
}

// Status is the lifecycle state of a competition.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// ParseStatus validates a status string reported by the server.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusWaiting:
		return StatusWaiting, nil
	case StatusActive:
		return StatusActive, nil
	case StatusEnded:
		return StatusEnded, nil
	default:
		return "", fmt.Errorf("unknown competition status %q", s)
	}
}

// Role is the kind of client attached to a competition.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
)

// JumbleWord is a scrambled word shown to participants with its answer.
type JumbleWord struct {
	Scrambled string
	Answer    string
}

// Descriptor is the competition as loaded from the host. It is replaced
// wholesale on every load and never edited in place.
type Descriptor struct {
	Title     string
	Mode      Mode
	Text      string
	Jumble    []JumbleWord
	Duration  int
	Remaining int
	Status    Status
}

// LiveMetrics is the derived typing performance of a session.
type LiveMetrics struct {
	WPM            float64
	Accuracy       float64
	ElapsedSeconds float64
}

// Standing is one row of the aggregate results.
type Standing struct {
	ParticipantID   string
	ParticipantName string
	WPM             float64
	Accuracy        float64
}

// Submission is the payload reported to the host for a participant.
type Submission struct {
	WPM               float64
	Accuracy          float64
	TimeTaken         float64
	TotalKeystrokes   int
	CorrectKeystrokes int
	RepeatCount       int
}

// Competition is the host-side record of a competition.
type Competition struct {
	ID        string
	Title     string
	Mode      Mode
	Text      string
	Jumble    []JumbleWord
	Duration  time.Duration
	StartAt   time.Time
	Stopped   bool
	CreatedAt time.Time
}

// Result is a participant submission as stored by the host.
type Result struct {
	ParticipantID   string
	ParticipantName string
	Submission      Submission
	SubmittedAt     time.Time
}
