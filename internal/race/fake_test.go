package race

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/scheduler"
)

type fakeClient struct {
	mu sync.Mutex

	desc    model.Descriptor
	loadErr error
	loads   int

	submissions []model.Submission
	submitErr   error

	standings []model.Standing
	fetchErr  error
	fetches   int

	status    model.Status
	statusErr error

	actionErr error
	actions   []string
}

func (f *fakeClient) Load(context.Context) (model.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return model.Descriptor{}, f.loadErr
	}
	return f.desc, nil
}

func (f *fakeClient) SubmitResults(_ context.Context, s model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, s)
	return f.submitErr
}

func (f *fakeClient) FetchResults(context.Context) ([]model.Standing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]model.Standing, len(f.standings))
	copy(out, f.standings)
	return out, nil
}

func (f *fakeClient) CompetitionStatus(context.Context) (model.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.status, nil
}

func (f *fakeClient) StartNow(context.Context) error {
	return f.action("start-now")
}

func (f *fakeClient) StopCompetition(context.Context) error {
	return f.action("stop")
}

func (f *fakeClient) RestartCompetition(context.Context) error {
	return f.action("restart")
}

func (f *fakeClient) action(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, name)
	return f.actionErr
}

func (f *fakeClient) set(fn func(f *fakeClient)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeClient) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions)
}

func (f *fakeClient) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeClient) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func (f *fakeClient) lastSubmission() model.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.submissions) == 0 {
		return model.Submission{}
	}
	return f.submissions[len(f.submissions)-1]
}

type recordingView struct {
	frames int
	last   Snapshot
}

func (v *recordingView) Render(s Snapshot) {
	v.frames++
	v.last = s
}

type harness struct {
	clock   *clockwork.FakeClock
	sched   *scheduler.Scheduler
	client  *fakeClient
	view    *recordingView
	engine  *Engine
	resyncs []string
}

func quietOptions(role model.Role) Options {
	return Options{
		Role:              role,
		ParticipantID:     "p1",
		StandingsInterval: time.Hour,
		StatusInterval:    time.Hour,
		CountdownFrom:     -1,
		Logger:            zerolog.Nop(),
	}
}

func newHarness(t *testing.T, desc model.Descriptor, opts Options) *harness {
	t.Helper()
	h := &harness{
		clock:  clockwork.NewFakeClock(),
		client: &fakeClient{desc: desc, status: desc.Status},
		view:   &recordingView{},
	}
	h.sched = scheduler.New(h.clock)
	t.Cleanup(h.sched.Close)
	engine, err := NewEngine(desc, h.client, h.view, h.sched, opts, func(reason string) {
		h.resyncs = append(h.resyncs, reason)
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	h.engine = engine
	engine.Start()
	h.sched.Settle()
	return h
}

// advance moves the clock in steps and settles after each.
func (h *harness) advance(step time.Duration, n int) {
	for i := 0; i < n; i++ {
		h.clock.Advance(step)
		h.sched.Settle()
	}
}

func (h *harness) typeString(s string) {
	for _, r := range s {
		h.engine.Type(r)
	}
	h.sched.Settle()
}
