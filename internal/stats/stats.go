// Package stats contains typing metrics and standings calculations.
package stats

import (
	"math"

	"github.com/verte-zerg/typerace/internal/model"
)

// CharsPerWord is the standard characters-per-word convention for WPM.
const CharsPerWord = 5.0

// Compute derives live metrics from session counters. Repeated full passes
// credit the whole target length even though their keystrokes were reset.
func Compute(totalKeystrokes, correctKeystrokes, repeatCount, targetLen int, elapsedSeconds float64) model.LiveMetrics {
	words := float64(totalKeystrokes)/CharsPerWord + float64(repeatCount)*(float64(targetLen)/CharsPerWord)

	wpm := 0.0
	if elapsedSeconds > 0 {
		wpm = words / (elapsedSeconds / 60.0)
	}
	accuracy := 100.0
	if totalKeystrokes > 0 {
		accuracy = 100.0 * float64(correctKeystrokes) / float64(totalKeystrokes)
	}
	elapsed := elapsedSeconds
	if elapsed < 0 {
		elapsed = 0
	}
	return model.LiveMetrics{
		WPM:            wpm,
		Accuracy:       accuracy,
		ElapsedSeconds: elapsed,
	}
}

// Rounded returns the metrics as shown to participants: whole WPM, whole
// accuracy percent and whole seconds.
func Rounded(m model.LiveMetrics) (wpm, accuracy, elapsed int) {
	return int(math.Round(m.WPM)), int(math.Round(m.Accuracy)), int(math.Round(m.ElapsedSeconds))
}

// Submission builds the reported payload. WPM and accuracy are the rounded
// display values; time taken keeps full precision.
func Submission(m model.LiveMetrics, total, correct, repeats int) model.Submission {
	wpm, acc, _ := Rounded(m)
	return model.Submission{
		WPM:               float64(wpm),
		Accuracy:          float64(acc),
		TimeTaken:         m.ElapsedSeconds,
		TotalKeystrokes:   total,
		CorrectKeystrokes: correct,
		RepeatCount:       repeats,
	}
}
