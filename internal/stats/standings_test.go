package stats

import (
	"testing"

	"github.com/verte-zerg/typerace/internal/model"
)

func TestSortStandingsStable(t *testing.T) {
	in := []model.Standing{
		{ParticipantID: "a", WPM: 40},
		{ParticipantID: "b", WPM: 70},
		{ParticipantID: "c", WPM: 40},
		{ParticipantID: "d", WPM: 90},
	}
	out := SortStandings(in)
	got := []string{out[0].ParticipantID, out[1].ParticipantID, out[2].ParticipantID, out[3].ParticipantID}
	want := []string{"d", "b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
	if in[0].ParticipantID != "a" {
		t.Fatalf("input must not be reordered")
	}
}

func TestRank(t *testing.T) {
	sorted := SortStandings([]model.Standing{
		{ParticipantID: "a", WPM: 10},
		{ParticipantID: "b", WPM: 30},
		{ParticipantID: "c", WPM: 20},
	})
	rank, count := Rank(sorted, "c")
	if rank != 2 || count != 3 {
		t.Fatalf("expected rank 2 of 3, got %d of %d", rank, count)
	}
	rank, count = Rank(sorted, "missing")
	if rank != 0 || count != 3 {
		t.Fatalf("expected rank 0 of 3, got %d of %d", rank, count)
	}
}

func TestTopWPM(t *testing.T) {
	if TopWPM(nil) != 0 {
		t.Fatalf("expected 0 for empty standings")
	}
	top := TopWPM([]model.Standing{{WPM: 12}, {WPM: 55.5}, {WPM: 30}})
	if top != 55.5 {
		t.Fatalf("expected 55.5, got %v", top)
	}
}
