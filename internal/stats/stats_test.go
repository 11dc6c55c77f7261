package stats

import (
	"math"
	"testing"

	"github.com/verte-zerg/typerace/internal/model"
)

func TestComputeAccuracyBounds(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for correct := 0; correct <= total; correct++ {
			m := Compute(total, correct, 0, 11, 30)
			if m.Accuracy < 0 || m.Accuracy > 100 {
				t.Fatalf("accuracy out of range for %d/%d: %v", correct, total, m.Accuracy)
			}
		}
	}
}

func TestComputeUntouchedSession(t *testing.T) {
	m := Compute(0, 0, 0, 0, 0)
	if m.Accuracy != 100 {
		t.Fatalf("expected baseline accuracy 100, got %v", m.Accuracy)
	}
	if m.WPM != 0 {
		t.Fatalf("expected 0 wpm, got %v", m.WPM)
	}
}

func TestComputeNoElapsedTime(t *testing.T) {
	for _, elapsed := range []float64{0, -1, -60} {
		m := Compute(50, 40, 2, 11, elapsed)
		if m.WPM != 0 {
			t.Fatalf("expected 0 wpm for elapsed %v, got %v", elapsed, m.WPM)
		}
		if m.ElapsedSeconds != 0 {
			t.Fatalf("expected clamped elapsed, got %v", m.ElapsedSeconds)
		}
	}
}

func TestComputeCreditsRepeatedPasses(t *testing.T) {
	// 16 keystrokes plus one full pass of 11 chars over 30 seconds.
	m := Compute(16, 16, 1, 11, 30)
	want := (16.0/5 + 11.0/5) / 0.5
	if math.Abs(m.WPM-want) > 1e-9 {
		t.Fatalf("expected wpm %v, got %v", want, m.WPM)
	}
	if m.Accuracy != 100 {
		t.Fatalf("expected accuracy 100, got %v", m.Accuracy)
	}
}

func TestComputeIsPure(t *testing.T) {
	a := Compute(37, 21, 3, 52, 41.5)
	b := Compute(37, 21, 3, 52, 41.5)
	if a != b {
		t.Fatalf("expected identical results, got %+v and %+v", a, b)
	}
}

func TestSubmissionUsesRoundedDisplayValues(t *testing.T) {
	m := model.LiveMetrics{WPM: 61.6, Accuracy: 92.4, ElapsedSeconds: 12.25}
	sub := Submission(m, 30, 28, 1)
	if sub.WPM != 62 || sub.Accuracy != 92 {
		t.Fatalf("unexpected rounded values: %+v", sub)
	}
	if sub.TimeTaken != 12.25 {
		t.Fatalf("expected raw time taken, got %v", sub.TimeTaken)
	}
	if sub.TotalKeystrokes != 30 || sub.CorrectKeystrokes != 28 || sub.RepeatCount != 1 {
		t.Fatalf("unexpected counters: %+v", sub)
	}
}
