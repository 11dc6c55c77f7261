package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/typerace/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "typerace.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleCompetition() model.Competition {
	created := time.Unix(1700000000, 0).UTC()
	return model.Competition{
		ID:        "friday",
		Title:     "Friday sprint",
		Mode:      model.ModeJumbleWord,
		Text:      "cat dog",
		Jumble:    []model.JumbleWord{{Scrambled: "tac", Answer: "cat"}, {Scrambled: "gdo", Answer: "dog"}},
		Duration:  90 * time.Second,
		StartAt:   created.Add(time.Minute),
		CreatedAt: created,
	}
}

func TestCompetitionRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	c := sampleCompetition()
	if err := st.SaveCompetition(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := st.GetCompetition(ctx, "friday")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != c.Title || got.Mode != c.Mode || got.Duration != c.Duration {
		t.Fatalf("unexpected competition: %+v", got)
	}
	if !got.StartAt.Equal(c.StartAt) || !got.CreatedAt.Equal(c.CreatedAt) {
		t.Fatalf("unexpected times: %+v", got)
	}
	if len(got.Jumble) != 2 || got.Jumble[1].Answer != "dog" || got.Jumble[1].Scrambled != "gdo" {
		t.Fatalf("unexpected jumble words: %+v", got.Jumble)
	}

	if _, err := st.GetCompetition(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSchedule(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	c := sampleCompetition()
	if err := st.SaveCompetition(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	start := c.StartAt.Add(-time.Hour)
	if err := st.UpdateSchedule(ctx, c.ID, start, true); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.GetCompetition(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Stopped || !got.StartAt.Equal(start) {
		t.Fatalf("unexpected schedule: %+v", got)
	}
	if err := st.UpdateSchedule(ctx, "missing", start, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertResultLastWins(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	at := time.Unix(1700000100, 0).UTC()

	results := []model.Result{
		{ParticipantID: "p1", ParticipantName: "ada", Submission: model.Submission{WPM: 40, Accuracy: 90, TotalKeystrokes: 20, CorrectKeystrokes: 18}, SubmittedAt: at},
		{ParticipantID: "p2", ParticipantName: "grace", Submission: model.Submission{WPM: 55, Accuracy: 99, TotalKeystrokes: 30, CorrectKeystrokes: 30}, SubmittedAt: at},
		{ParticipantID: "p1", ParticipantName: "ada", Submission: model.Submission{WPM: 62, Accuracy: 95, TotalKeystrokes: 40, CorrectKeystrokes: 38, RepeatCount: 1}, SubmittedAt: at.Add(time.Second)},
	}
	for _, r := range results {
		if err := st.UpsertResult(ctx, "friday", r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, err := st.ListResults(ctx, "friday")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ParticipantID != "p1" || got[0].Submission.WPM != 62 || got[0].Submission.RepeatCount != 1 {
		t.Fatalf("expected latest p1 result first: %+v", got[0])
	}
	if got[1].ParticipantID != "p2" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestEmptySubmissionKeepsExistingResult(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	at := time.Unix(1700000100, 0).UTC()

	if err := st.UpsertResult(ctx, "friday", model.Result{ParticipantID: "p1", Submission: model.Submission{WPM: 48, TotalKeystrokes: 25, CorrectKeystrokes: 25}, SubmittedAt: at}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.UpsertResult(ctx, "friday", model.Result{ParticipantID: "p1", Submission: model.Submission{}, SubmittedAt: at.Add(time.Minute)}); err != nil {
		t.Fatalf("upsert empty: %v", err)
	}
	got, err := st.ListResults(ctx, "friday")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Submission.WPM != 48 {
		t.Fatalf("empty submission replaced result: %+v", got)
	}
}

func TestRestartClearsResults(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	c := sampleCompetition()
	c.Stopped = true
	if err := st.SaveCompetition(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.UpsertResult(ctx, c.ID, model.Result{ParticipantID: "p1", Submission: model.Submission{TotalKeystrokes: 1}, SubmittedAt: c.CreatedAt}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.UpsertResult(ctx, "other", model.Result{ParticipantID: "p1", Submission: model.Submission{TotalKeystrokes: 1}, SubmittedAt: c.CreatedAt}); err != nil {
		t.Fatalf("upsert other: %v", err)
	}

	start := c.StartAt.Add(time.Hour)
	if err := st.Restart(ctx, c.ID, start); err != nil {
		t.Fatalf("restart: %v", err)
	}
	got, err := st.GetCompetition(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stopped || !got.StartAt.Equal(start) {
		t.Fatalf("unexpected schedule after restart: %+v", got)
	}
	results, err := st.ListResults(ctx, c.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected results cleared, got %d", len(results))
	}
	other, err := st.ListResults(ctx, "other")
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 1 {
		t.Fatalf("restart must not touch other competitions")
	}
	if err := st.Restart(ctx, "missing", start); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListCompetitions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	a := sampleCompetition()
	b := sampleCompetition()
	b.ID = "monday"
	b.CreatedAt = a.CreatedAt.Add(time.Hour)
	for _, c := range []model.Competition{b, a} {
		if err := st.SaveCompetition(ctx, c); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	got, err := st.ListCompetitions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "friday" || got[1].ID != "monday" {
		t.Fatalf("unexpected competitions: %+v", got)
	}
	if err := st.ClearResults(ctx, "friday"); err != nil {
		t.Fatalf("clear: %v", err)
	}
}
