package race

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/typerace/internal/clock"
	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/scheduler"
	"github.com/verte-zerg/typerace/internal/session"
	"github.com/verte-zerg/typerace/internal/stats"
	"github.com/verte-zerg/typerace/internal/textmode"
)

// Engine drives one loaded competition. All methods must run on the
// scheduler goroutine; use Runner.Do from other goroutines.
type Engine struct {
	desc   model.Descriptor
	opts   Options
	client Client
	view   View
	group  *scheduler.Group
	clock  clockwork.Clock
	log    zerolog.Logger

	adapter   *textmode.Adapter
	tracker   *session.Tracker
	lifecycle *clock.Clock
	sync      *Synchronizer
	submitter *Submitter

	tickHandle    *scheduler.Handle
	metricsHandle *scheduler.Handle
	overlayHandle *scheduler.Handle

	overlay      int
	metrics      model.LiveMetrics
	standings    []model.Standing
	rank         int
	participants int
	notice       string
	noticeID     int

	onResync func(reason string)
	stopped  bool
}

// NewEngine builds an engine for a loaded descriptor. onResync is called at
// most once, after the engine has torn itself down.
func NewEngine(desc model.Descriptor, client Client, view View, sched *scheduler.Scheduler, opts Options, onResync func(reason string)) (*Engine, error) {
	if client == nil {
		return nil, errors.New("race engine requires a client")
	}
	if view == nil {
		return nil, errors.New("race engine requires a view")
	}
	if sched == nil {
		return nil, errors.New("race engine requires a scheduler")
	}
	opts = opts.withDefaults()
	if onResync == nil {
		onResync = func(string) {}
	}
	e := &Engine{
		desc:      desc,
		opts:      opts,
		client:    client,
		view:      view,
		group:     sched.NewGroup(),
		clock:     sched.Clock(),
		log:       opts.Logger.With().Str("role", string(opts.Role)).Str("competition", desc.Title).Logger(),
		adapter:   textmode.FromDescriptor(desc),
		lifecycle: clock.New(desc.Remaining, desc.Duration, desc.Status),
		metrics:   stats.Compute(0, 0, 0, 0, 0),
		onResync:  onResync,
	}
	if opts.Role == model.RoleParticipant {
		e.tracker = session.New(e.adapter, e.clock)
	}
	e.sync = newSynchronizer(e.group, client, e.log, e.lifecycle.Status, e.applyStandings, e.diverged)
	e.submitter = newSubmitter(e.group, client, e.log)
	return e, nil
}

// Start begins the clock tick and both pulls and renders the first frame.
func (e *Engine) Start() {
	e.log.Info().
		Str("status", string(e.desc.Status)).
		Int("remaining", e.desc.Remaining).
		Int("duration", e.desc.Duration).
		Str("mode", string(e.desc.Mode)).
		Msg("competition loaded")

	if e.desc.Remaining <= 0 {
		e.lifecycle.Tick()
	}
	if e.lifecycle.Status() != model.StatusEnded {
		e.tickHandle = e.group.Every(e.opts.TickInterval, e.onTick)
	}
	e.sync.Start(e.opts.StandingsInterval, e.opts.StatusInterval)
	e.sync.PullStandings()

	if e.tracker != nil {
		switch {
		case e.desc.Remaining <= 0:
			e.log.Info().Msg("competition already over at load, submitting")
			e.tracker.Disable()
			e.submit("late-load")
		case e.lifecycle.Status() != model.StatusActive:
			e.tracker.Disable()
		}
	}
	e.render()
}

// Teardown cancels every timer and pending continuation of this engine.
func (e *Engine) Teardown() {
	if e.stopped {
		return
	}
	e.stopped = true
	e.group.Cancel()
}

// Stopped reports whether the engine was torn down.
func (e *Engine) Stopped() bool {
	return e.stopped
}

// Type records one typed rune.
func (e *Engine) Type(r rune) {
	if e.tracker == nil || e.stopped {
		return
	}
	e.handleInput(e.tracker.Type(r))
}

// Backspace deletes the last typed rune.
func (e *Engine) Backspace() {
	if e.tracker == nil || e.stopped {
		return
	}
	e.handleInput(e.tracker.Backspace())
}

// Input records an input event carrying the full typed text.
func (e *Engine) Input(typed string) {
	if e.tracker == nil || e.stopped {
		return
	}
	e.handleInput(e.tracker.Input(typed))
}

func (e *Engine) handleInput(ev session.Event) {
	if ev.Rejected {
		return
	}
	if ev.Started {
		e.startMetrics()
	}
	if ev.Repeated {
		e.log.Debug().Int("repeats", e.tracker.Snapshot().RepeatCount).Msg("text repeated")
	}
	if ev.Completed {
		e.stopMetrics()
		e.refreshMetrics()
		e.log.Info().Msg("jumble completed")
		e.submit("completed")
	}
	e.render()
}

// Reset clears the session and returns it to not-started.
func (e *Engine) Reset() {
	if e.tracker == nil || e.stopped {
		return
	}
	e.tracker.Reset()
	e.stopMetrics()
	e.metrics = stats.Compute(0, 0, 0, 0, 0)
	e.render()
}

// Submit sends the current metrics on request.
func (e *Engine) Submit() {
	if e.tracker == nil || e.stopped {
		return
	}
	e.refreshMetrics()
	e.submit("manual")
	e.render()
}

// StartNow asks the host to start the competition immediately.
func (e *Engine) StartNow() {
	e.organizerAction("start-now", e.client.StartNow)
}

// Stop asks the host to end the competition.
func (e *Engine) Stop() {
	e.organizerAction("stop-competition", e.client.StopCompetition)
}

// Restart asks the host to clear results and schedule a new run.
func (e *Engine) Restart() {
	e.organizerAction("restart-competition", e.client.RestartCompetition)
}

// DismissNotice clears the current notice.
func (e *Engine) DismissNotice() {
	if e.notice == "" {
		return
	}
	e.notice = ""
	e.render()
}

// Snapshot returns the current frame.
func (e *Engine) Snapshot() Snapshot {
	standings := make([]model.Standing, len(e.standings))
	copy(standings, e.standings)
	s := Snapshot{
		Role:         e.opts.Role,
		Title:        e.desc.Title,
		Mode:         e.desc.Mode,
		Status:       e.lifecycle.Status(),
		Remaining:    e.lifecycle.Remaining(),
		UntilStart:   e.lifecycle.UntilStart(),
		Countdown:    e.overlay,
		Display:      e.adapter.Display(),
		Target:       e.adapter.Base(),
		Metrics:      e.metrics,
		Standings:    standings,
		Rank:         e.rank,
		Participants: e.participants,
		Notice:       e.notice,
		NoticeID:     e.noticeID,
	}
	if e.tracker != nil {
		snap := e.tracker.Snapshot()
		s.Typed = snap.Typed
		s.TotalKeystrokes = snap.TotalKeystrokes
		s.CorrectKeystrokes = snap.CorrectKeystrokes
		s.RepeatCount = snap.RepeatCount
		s.Markers = snap.Markers
		s.Completed = snap.Completed
		s.InputEnabled = e.tracker.Enabled() && !e.stopped
		s.Submissions = e.submitter.Sent()
	}
	return s
}

func (e *Engine) onTick() {
	switch e.lifecycle.Tick() {
	case clock.Activated:
		e.log.Info().Int("remaining", e.lifecycle.Remaining()).Msg("competition active")
		if e.tracker != nil {
			e.startOverlay()
		}
	case clock.Ended:
		e.log.Info().Msg("competition ended")
		e.finish()
	}
	e.render()
}

func (e *Engine) startOverlay() {
	if e.opts.CountdownFrom < 0 {
		e.enableInput()
		return
	}
	e.overlay = e.opts.CountdownFrom
	e.overlayHandle.Cancel()
	e.overlayHandle = e.group.Every(e.opts.TickInterval, func() {
		e.overlay--
		if e.overlay <= 0 {
			e.overlay = 0
			e.overlayHandle.Cancel()
			e.enableInput()
		}
		e.render()
	})
}

func (e *Engine) enableInput() {
	if e.lifecycle.Status() == model.StatusEnded {
		return
	}
	e.tracker.Enable()
}

// finish handles the end edge: input off, final submission, last standings.
func (e *Engine) finish() {
	e.tickHandle.Cancel()
	e.overlayHandle.Cancel()
	e.overlay = 0
	if e.tracker == nil {
		return
	}
	e.tracker.Disable()
	e.stopMetrics()
	e.refreshMetrics()
	e.submit("clock-ended")
	e.sync.PullStandings()
}

func (e *Engine) startMetrics() {
	e.stopMetrics()
	e.metricsHandle = e.group.Every(e.opts.MetricsInterval, func() {
		e.refreshMetrics()
		e.render()
	})
}

func (e *Engine) stopMetrics() {
	e.metricsHandle.Cancel()
	e.metricsHandle = nil
}

func (e *Engine) refreshMetrics() {
	snap := e.tracker.Snapshot()
	if !snap.Started() {
		return
	}
	e.metrics = stats.Compute(snap.TotalKeystrokes, snap.CorrectKeystrokes, snap.RepeatCount, e.adapter.BaseLen(), e.tracker.Elapsed())
}

func (e *Engine) submit(reason string) {
	snap := e.tracker.Snapshot()
	sub := stats.Submission(e.metrics, snap.TotalKeystrokes, snap.CorrectKeystrokes, snap.RepeatCount)
	e.submitter.Submit(sub, reason)
}

func (e *Engine) applyStandings(sorted []model.Standing) {
	e.standings = sorted
	if e.opts.Role == model.RoleParticipant {
		e.rank, e.participants = stats.Rank(sorted, e.opts.ParticipantID)
	} else {
		e.participants = len(sorted)
	}
	e.render()
}

// diverged resynchronizes on the first disagreement with the host. A
// participant still racing hands in its result before the reload.
func (e *Engine) diverged(local, remote model.Status) {
	if e.tracker != nil && remote == model.StatusEnded && local == model.StatusActive && e.tracker.Snapshot().Started() {
		e.tracker.Disable()
		e.refreshMetrics()
		e.submit("host-ended")
	}
	e.resync(fmt.Sprintf("status %s on host, %s locally", remote, local))
}

func (e *Engine) organizerAction(name string, call func(context.Context) error) {
	if e.opts.Role != model.RoleOrganizer || e.stopped {
		return
	}
	e.group.Go(func(ctx context.Context) func() {
		err := call(ctx)
		return func() {
			if err != nil {
				e.log.Error().Err(err).Str("action", name).Msg("organizer action failed")
				e.setNotice(fmt.Sprintf("Error: %v", err))
				return
			}
			e.log.Info().Str("action", name).Msg("organizer action accepted")
			e.resync(name)
		}
	})
}

func (e *Engine) setNotice(msg string) {
	e.notice = msg
	e.noticeID++
	e.render()
}

func (e *Engine) resync(reason string) {
	if e.stopped {
		return
	}
	e.log.Info().Str("reason", reason).Msg("resynchronizing")
	e.Teardown()
	e.onResync(reason)
}

func (e *Engine) render() {
	if e.stopped {
		return
	}
	e.view.Render(e.Snapshot())
}
