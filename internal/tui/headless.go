package tui

import (
	"github.com/rs/zerolog"

	"github.com/verte-zerg/typerace/internal/race"
	"github.com/verte-zerg/typerace/internal/stats"
)

// HeadlessView logs the notable changes between frames. It is used when no
// terminal is attached.
type HeadlessView struct {
	log  zerolog.Logger
	last race.Snapshot
	seen bool
}

// NewHeadlessView returns a view that logs to log.
func NewHeadlessView(log zerolog.Logger) *HeadlessView {
	return &HeadlessView{log: log}
}

// Render implements race.View.
func (v *HeadlessView) Render(s race.Snapshot) {
	prev := v.last
	first := !v.seen
	v.last = s
	v.seen = true

	if s.Loading {
		if first || !prev.Loading {
			v.log.Info().Msg("loading competition")
		}
		return
	}
	if first || prev.Loading || prev.Title != s.Title || prev.Status != s.Status {
		v.log.Info().
			Str("title", s.Title).
			Str("mode", string(s.Mode)).
			Str("status", string(s.Status)).
			Int("remaining", s.Remaining).
			Msg("competition")
	}
	if s.Countdown > 0 && s.Countdown != prev.Countdown {
		v.log.Info().Int("countdown", s.Countdown).Msg("get ready")
	}
	if s.InputEnabled && !prev.InputEnabled {
		v.log.Info().Str("text", s.Display).Msg("go")
	}
	if n := len(s.Markers); n > len(prev.Markers) {
		v.log.Info().Msg(s.Markers[n-1])
	}
	if s.Submissions > prev.Submissions {
		wpm, acc, elapsed := stats.Rounded(s.Metrics)
		v.log.Info().Int("wpm", wpm).Int("accuracy", acc).Int("seconds", elapsed).Msg("results submitted")
	}
	if s.Rank != prev.Rank && s.Rank > 0 {
		v.log.Info().Int("rank", s.Rank).Int("participants", s.Participants).Msg("standing")
	}
	if s.NoticeID != prev.NoticeID && s.Notice != "" {
		v.log.Warn().Msg(s.Notice)
	}
}
