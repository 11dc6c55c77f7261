// Package race wires the typing session, the competition clock and the
// synchronizer into one engine driven by a cooperative scheduler.
package race

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/typerace/internal/model"
)

// Client is the competition host as seen by the engine.
type Client interface {
	Load(ctx context.Context) (model.Descriptor, error)
	SubmitResults(ctx context.Context, s model.Submission) error
	FetchResults(ctx context.Context) ([]model.Standing, error)
	CompetitionStatus(ctx context.Context) (model.Status, error)
	StartNow(ctx context.Context) error
	StopCompetition(ctx context.Context) error
	RestartCompetition(ctx context.Context) error
}

// View receives a fresh snapshot after every state change. Render is called
// on the scheduler goroutine and must not block.
type View interface {
	Render(s Snapshot)
}

// ViewFunc adapts a function to View.
type ViewFunc func(Snapshot)

// Render implements View.
func (f ViewFunc) Render(s Snapshot) { f(s) }

// Options tunes the engine cadences.
type Options struct {
	Role          model.Role
	ParticipantID string

	TickInterval      time.Duration
	MetricsInterval   time.Duration
	StandingsInterval time.Duration
	StatusInterval    time.Duration
	LoadRetry         time.Duration
	// CountdownFrom is the overlay length in ticks; negative disables it.
	CountdownFrom     int

	Logger zerolog.Logger
}

const (
	DefaultTickInterval      = time.Second
	DefaultMetricsInterval   = 100 * time.Millisecond
	DefaultStandingsInterval = 3 * time.Second
	DefaultStatusInterval    = 5 * time.Second
	DefaultLoadRetry         = 5 * time.Second
	DefaultCountdownFrom     = 3
)

func (o Options) withDefaults() Options {
	if o.Role == "" {
		o.Role = model.RoleParticipant
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.MetricsInterval <= 0 {
		o.MetricsInterval = DefaultMetricsInterval
	}
	if o.StandingsInterval <= 0 {
		o.StandingsInterval = DefaultStandingsInterval
	}
	if o.StatusInterval <= 0 {
		o.StatusInterval = DefaultStatusInterval
	}
	if o.LoadRetry <= 0 {
		o.LoadRetry = DefaultLoadRetry
	}
	if o.CountdownFrom == 0 {
		o.CountdownFrom = DefaultCountdownFrom
	}
	return o
}

// Snapshot is everything a view needs to draw one frame.
type Snapshot struct {
	Role    model.Role
	Loading bool
	Title   string
	Mode    model.Mode
	Status  model.Status

	Remaining  int
	UntilStart int
	Countdown  int

	Display string
	Target  string
	Typed   string

	Metrics           model.LiveMetrics
	TotalKeystrokes   int
	CorrectKeystrokes int
	RepeatCount       int
	Markers           []string
	Completed         bool
	InputEnabled      bool
	Submissions       int

	Standings    []model.Standing
	Rank         int
	Participants int

	Notice   string
	NoticeID int
}

// NeedsConfirmation reports whether a manual submit would hand in an
// unfinished jumble.
func (s Snapshot) NeedsConfirmation() bool {
	return s.Role == model.RoleParticipant && s.Mode == model.ModeJumbleWord && !s.Completed
}
