package race

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/typerace/internal/model"
)

func activeDesc(mode model.Mode, text string) model.Descriptor {
	return model.Descriptor{
		Title:     "Friday sprint",
		Mode:      mode,
		Text:      text,
		Duration:  60,
		Remaining: 60,
		Status:    model.StatusActive,
	}
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	if _, err := NewEngine(desc, nil, &recordingView{}, nil, Options{}, nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := NewEngine(desc, &fakeClient{}, nil, nil, Options{}, nil); err == nil {
		t.Fatalf("expected error for nil view")
	}
}

func TestJumbleCompletionSubmitsOnce(t *testing.T) {
	desc := activeDesc(model.ModeJumbleWord, "")
	desc.Jumble = []model.JumbleWord{{Scrambled: "tac", Answer: "cat"}, {Scrambled: "god", Answer: "dog"}}
	h := newHarness(t, desc, quietOptions(model.RoleParticipant))

	h.typeString("cat do")
	if got := h.client.submitCount(); got != 0 {
		t.Fatalf("expected no submission before completion, got %d", got)
	}
	h.typeString("g")
	if got := h.client.submitCount(); got != 1 {
		t.Fatalf("expected exactly one submission on completion, got %d", got)
	}
	snap := h.engine.Snapshot()
	if !snap.Completed || snap.InputEnabled {
		t.Fatalf("expected completed session with input disabled: %+v", snap)
	}

	h.typeString("x")
	h.advance(100*time.Millisecond, 5)
	if got := h.client.submitCount(); got != 1 {
		t.Fatalf("expected still one submission, got %d", got)
	}
	if got := h.engine.Snapshot().TotalKeystrokes; got != 7 {
		t.Fatalf("expected keystrokes frozen at 7, got %d", got)
	}
}

func TestResubmissionAfterJumbleCompletionKeepsResult(t *testing.T) {
	desc := activeDesc(model.ModeJumbleWord, "")
	desc.Duration = 10
	desc.Remaining = 10
	desc.Jumble = []model.JumbleWord{{Scrambled: "tac", Answer: "cat"}, {Scrambled: "god", Answer: "dog"}}
	h := newHarness(t, desc, quietOptions(model.RoleParticipant))

	h.typeString("cat do")
	h.advance(100*time.Millisecond, 6)
	h.typeString("g")
	if got := h.client.submitCount(); got != 1 {
		t.Fatalf("expected completion submission, got %d", got)
	}
	completion := h.client.lastSubmission()
	if completion.TimeTaken != 0.6 || completion.WPM <= 0 {
		t.Fatalf("unexpected completion payload: %+v", completion)
	}

	h.advance(time.Second, 2)
	h.engine.Submit()
	h.sched.Settle()
	if got := h.client.lastSubmission(); got != completion {
		t.Fatalf("manual resubmission changed the result: %+v vs %+v", got, completion)
	}

	h.advance(time.Second, 12)
	if got := h.client.submitCount(); got != 3 {
		t.Fatalf("expected clock-end submission, got %d submissions", got)
	}
	if got := h.client.lastSubmission(); got != completion {
		t.Fatalf("clock-end resubmission changed the result: %+v vs %+v", got, completion)
	}
}

func TestManualSubmitOfUnfinishedJumbleNeedsConfirmation(t *testing.T) {
	desc := activeDesc(model.ModeJumbleWord, "")
	desc.Jumble = []model.JumbleWord{{Scrambled: "tac", Answer: "cat"}}
	h := newHarness(t, desc, quietOptions(model.RoleParticipant))

	h.typeString("ca")
	if !h.engine.Snapshot().NeedsConfirmation() {
		t.Fatalf("expected confirmation for unfinished jumble")
	}
	h.engine.Submit()
	h.sched.Settle()
	if got := h.client.submitCount(); got != 1 {
		t.Fatalf("expected manual submission, got %d", got)
	}
}

func TestLateLoadSubmitsImmediately(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	desc.Remaining = 0
	h := newHarness(t, desc, quietOptions(model.RoleParticipant))

	if got := h.client.submitCount(); got != 1 {
		t.Fatalf("expected one submission at late load, got %d", got)
	}
	snap := h.engine.Snapshot()
	if snap.InputEnabled {
		t.Fatalf("expected input disabled after late load")
	}
	if snap.Status != model.StatusEnded {
		t.Fatalf("expected ended status, got %s", snap.Status)
	}
	h.typeString("a")
	h.advance(time.Second, 3)
	if got := h.client.submitCount(); got != 1 {
		t.Fatalf("expected no further submissions, got %d", got)
	}
	if got := h.engine.Snapshot().TotalKeystrokes; got != 0 {
		t.Fatalf("expected input rejected, got %d keystrokes", got)
	}
}

func TestWaitingCompetitionRejectsInput(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	desc.Status = model.StatusWaiting
	desc.Remaining = 70
	h := newHarness(t, desc, quietOptions(model.RoleParticipant))

	h.typeString("a")
	snap := h.engine.Snapshot()
	if snap.TotalKeystrokes != 0 || snap.InputEnabled {
		t.Fatalf("expected input rejected while waiting: %+v", snap)
	}
	if snap.UntilStart != 10 {
		t.Fatalf("expected 10s until start, got %d", snap.UntilStart)
	}
}

func TestActivationShowsCountdownBeforeInput(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	desc.Status = model.StatusWaiting
	desc.Remaining = 62
	opts := quietOptions(model.RoleParticipant)
	opts.CountdownFrom = 3
	h := newHarness(t, desc, opts)

	h.advance(time.Second, 2)
	snap := h.engine.Snapshot()
	if snap.Status != model.StatusActive {
		t.Fatalf("expected active after 2 ticks, got %s", snap.Status)
	}
	if snap.Countdown != 3 || snap.InputEnabled {
		t.Fatalf("expected countdown 3 with input disabled: %+v", snap)
	}

	h.advance(time.Second, 2)
	if snap := h.engine.Snapshot(); snap.Countdown != 1 || snap.InputEnabled {
		t.Fatalf("expected countdown 1 with input disabled: %+v", snap)
	}
	h.advance(time.Second, 1)
	snap = h.engine.Snapshot()
	if snap.Countdown != 0 || !snap.InputEnabled {
		t.Fatalf("expected input enabled after countdown: %+v", snap)
	}
	h.typeString("a")
	if got := h.engine.Snapshot().TotalKeystrokes; got != 1 {
		t.Fatalf("expected keystroke accepted, got %d", got)
	}
}

func TestClockEndSubmitsAndFetchesStandings(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	desc.Remaining = 2
	desc.Duration = 2
	h := newHarness(t, desc, quietOptions(model.RoleParticipant))
	if got := h.client.fetchCount(); got != 1 {
		t.Fatalf("expected initial standings pull, got %d", got)
	}

	h.typeString("ab")
	h.client.set(func(f *fakeClient) {
		f.standings = []model.Standing{
			{ParticipantID: "p2", ParticipantName: "grace", WPM: 30, Accuracy: 90},
			{ParticipantID: "p1", ParticipantName: "ada", WPM: 60, Accuracy: 100},
		}
	})
	h.advance(time.Second, 3)

	if got := h.client.submitCount(); got != 1 {
		t.Fatalf("expected one final submission, got %d", got)
	}
	if got := h.client.fetchCount(); got != 2 {
		t.Fatalf("expected final standings pull, got %d", got)
	}
	snap := h.engine.Snapshot()
	if snap.Status != model.StatusEnded || snap.InputEnabled {
		t.Fatalf("expected ended with input disabled: %+v", snap)
	}
	if snap.Rank != 1 || snap.Participants != 2 {
		t.Fatalf("expected rank 1 of 2, got %d of %d", snap.Rank, snap.Participants)
	}
	sub := h.client.lastSubmission()
	if sub.TotalKeystrokes != 2 || sub.CorrectKeystrokes != 2 {
		t.Fatalf("unexpected final submission: %+v", sub)
	}
	if sub.WPM != math.Round(sub.WPM) {
		t.Fatalf("expected rounded wpm, got %v", sub.WPM)
	}

	h.advance(time.Second, 3)
	if got := h.client.submitCount(); got != 1 {
		t.Fatalf("ended clock must not submit again, got %d", got)
	}
}

func TestFailedStandingsPullKeepsPolling(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	opts := quietOptions(model.RoleParticipant)
	opts.StandingsInterval = 3 * time.Second
	h := newHarness(t, desc, opts)
	h.client.set(func(f *fakeClient) { f.fetchErr = errors.New("connection refused") })

	h.advance(time.Second, 3)
	if got := h.client.fetchCount(); got != 2 {
		t.Fatalf("expected second pull, got %d", got)
	}
	if got := len(h.engine.Snapshot().Standings); got != 0 {
		t.Fatalf("expected no standings after failure, got %d", got)
	}

	h.client.set(func(f *fakeClient) {
		f.fetchErr = nil
		f.standings = []model.Standing{{ParticipantID: "p9", WPM: 12}}
	})
	h.advance(time.Second, 3)
	if got := h.client.fetchCount(); got != 3 {
		t.Fatalf("expected polling to continue, got %d", got)
	}
	snap := h.engine.Snapshot()
	if len(snap.Standings) != 1 || snap.Rank != 0 {
		t.Fatalf("unexpected standings: %+v rank=%d", snap.Standings, snap.Rank)
	}
}

func TestStandingsAreSortedByWPM(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	harness := newHarness(t, desc, quietOptions(model.RoleOrganizer))
	harness.client.set(func(f *fakeClient) {
		f.standings = []model.Standing{
			{ParticipantID: "a", WPM: 10},
			{ParticipantID: "b", WPM: 50},
			{ParticipantID: "c", WPM: 30},
		}
	})
	harness.engine.sync.PullStandings()
	harness.sched.Settle()

	got := harness.engine.Snapshot().Standings
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if got[i].ParticipantID != id {
			t.Fatalf("unexpected order: %+v", got)
		}
	}
	if harness.engine.Snapshot().Participants != 3 {
		t.Fatalf("expected 3 participants")
	}
}

func TestStatusDivergenceResyncsOnce(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	desc.Status = model.StatusWaiting
	desc.Remaining = 600
	opts := quietOptions(model.RoleParticipant)
	opts.StatusInterval = 5 * time.Second
	h := newHarness(t, desc, opts)
	h.client.set(func(f *fakeClient) { f.status = model.StatusActive })

	h.advance(time.Second, 15)
	if len(h.resyncs) != 1 {
		t.Fatalf("expected exactly one resync, got %d", len(h.resyncs))
	}
	if !h.engine.Stopped() {
		t.Fatalf("expected engine torn down after resync")
	}
	if got := h.client.submitCount(); got != 0 {
		t.Fatalf("waiting participant must not submit on resync, got %d", got)
	}
}

func TestHostEndedSubmitsBeforeResync(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	opts := quietOptions(model.RoleParticipant)
	opts.StatusInterval = 5 * time.Second
	h := newHarness(t, desc, opts)

	h.typeString("abc a")
	h.client.set(func(f *fakeClient) { f.status = model.StatusEnded })
	h.advance(time.Second, 5)

	if len(h.resyncs) != 1 {
		t.Fatalf("expected one resync, got %d", len(h.resyncs))
	}
	if got := h.client.submitCount(); got != 1 {
		t.Fatalf("expected results submitted before resync, got %d", got)
	}
	if sub := h.client.lastSubmission(); sub.RepeatCount != 1 {
		t.Fatalf("expected repeat count in submission: %+v", sub)
	}
}

func TestStatusPullFailureIsIgnored(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	opts := quietOptions(model.RoleParticipant)
	opts.StatusInterval = 5 * time.Second
	h := newHarness(t, desc, opts)
	h.client.set(func(f *fakeClient) { f.statusErr = errors.New("timeout") })

	h.advance(time.Second, 10)
	if len(h.resyncs) != 0 {
		t.Fatalf("failed status pull must not resync")
	}
	if h.engine.Stopped() {
		t.Fatalf("engine must keep running")
	}
}

func TestOrganizerActionFailureSetsNotice(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	h := newHarness(t, desc, quietOptions(model.RoleOrganizer))
	h.client.set(func(f *fakeClient) { f.actionErr = errors.New("competition already ended") })

	h.engine.Stop()
	h.sched.Settle()

	snap := h.engine.Snapshot()
	if !strings.Contains(snap.Notice, "competition already ended") {
		t.Fatalf("expected failure notice, got %q", snap.Notice)
	}
	if snap.NoticeID != 1 {
		t.Fatalf("expected notice id 1, got %d", snap.NoticeID)
	}
	if len(h.resyncs) != 0 {
		t.Fatalf("failed action must not resync")
	}
	h.engine.DismissNotice()
	if h.engine.Snapshot().Notice != "" {
		t.Fatalf("expected notice dismissed")
	}
}

func TestOrganizerActionSuccessResyncs(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	desc.Status = model.StatusWaiting
	desc.Remaining = 300
	h := newHarness(t, desc, quietOptions(model.RoleOrganizer))

	h.engine.StartNow()
	h.sched.Settle()

	if len(h.resyncs) != 1 || h.resyncs[0] != "start-now" {
		t.Fatalf("expected resync after start-now, got %v", h.resyncs)
	}
	h.client.mu.Lock()
	actions := append([]string(nil), h.client.actions...)
	h.client.mu.Unlock()
	if len(actions) != 1 || actions[0] != "start-now" {
		t.Fatalf("unexpected actions: %v", actions)
	}
}

func TestParticipantCannotRunOrganizerActions(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	h := newHarness(t, desc, quietOptions(model.RoleParticipant))

	h.engine.Restart()
	h.sched.Settle()
	h.client.mu.Lock()
	n := len(h.client.actions)
	h.client.mu.Unlock()
	if n != 0 {
		t.Fatalf("participant must not call organizer endpoints")
	}
}

func TestMetricsRefreshOnCadence(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abcdefghij")
	h := newHarness(t, desc, quietOptions(model.RoleParticipant))

	h.typeString("abcde")
	if got := h.engine.Snapshot().Metrics.ElapsedSeconds; got != 0 {
		t.Fatalf("metrics must not change between cadence ticks, got %v", got)
	}
	h.advance(50*time.Millisecond, 1)
	if got := h.engine.Snapshot().Metrics.ElapsedSeconds; got != 0 {
		t.Fatalf("metrics must not change before 100ms, got %v", got)
	}
	h.advance(50*time.Millisecond, 1)
	m := h.engine.Snapshot().Metrics
	if math.Abs(m.ElapsedSeconds-0.1) > 1e-9 {
		t.Fatalf("expected 0.1s elapsed, got %v", m.ElapsedSeconds)
	}
	// 5 keystrokes is one word in 0.1s.
	if math.Abs(m.WPM-600) > 1e-6 {
		t.Fatalf("expected 600 wpm, got %v", m.WPM)
	}
}

func TestResetRestartsMetricsCadence(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	h := newHarness(t, desc, quietOptions(model.RoleParticipant))

	h.typeString("a")
	h.advance(100*time.Millisecond, 3)
	h.engine.Reset()
	h.sched.Settle()
	snap := h.engine.Snapshot()
	if snap.TotalKeystrokes != 0 || snap.Metrics.ElapsedSeconds != 0 {
		t.Fatalf("expected cleared session: %+v", snap)
	}

	h.advance(100*time.Millisecond, 5)
	if got := h.engine.Snapshot().Metrics.ElapsedSeconds; got != 0 {
		t.Fatalf("metrics must stay idle until the next keystroke, got %v", got)
	}

	h.typeString("a")
	h.advance(100*time.Millisecond, 2)
	if got := h.engine.Snapshot().Metrics.ElapsedSeconds; math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("expected elapsed measured from the new start, got %v", got)
	}
}

func TestTeardownStopsAllTimers(t *testing.T) {
	desc := activeDesc(model.ModePlain, "abc")
	opts := quietOptions(model.RoleParticipant)
	opts.StandingsInterval = time.Second
	h := newHarness(t, desc, opts)
	h.typeString("a")
	h.engine.Teardown()
	frames := h.view.frames
	fetches := h.client.fetchCount()

	h.advance(time.Second, 5)
	if h.view.frames != frames {
		t.Fatalf("torn down engine must not render")
	}
	if got := h.client.fetchCount(); got != fetches {
		t.Fatalf("torn down engine must not poll, got %d pulls after %d", got, fetches)
	}
}
