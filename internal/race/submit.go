package race

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/scheduler"
)

// Submitter reports results without waiting for the host. Calling it more
// than once is fine; the host decides which submission counts.
type Submitter struct {
	group  *scheduler.Group
	client Client
	log    zerolog.Logger
	sent   int
}

func newSubmitter(group *scheduler.Group, client Client, log zerolog.Logger) *Submitter {
	return &Submitter{group: group, client: client, log: log}
}

// Submit sends sub in the background. reason is only logged.
func (s *Submitter) Submit(sub model.Submission, reason string) {
	s.sent++
	log := s.log
	s.group.Go(func(ctx context.Context) func() {
		if err := s.client.SubmitResults(ctx, sub); err != nil {
			log.Error().Err(err).Str("reason", reason).Msg("failed to submit results")
			return nil
		}
		log.Info().
			Str("reason", reason).
			Float64("wpm", sub.WPM).
			Float64("accuracy", sub.Accuracy).
			Int("total_keystrokes", sub.TotalKeystrokes).
			Msg("results submitted")
		return nil
	})
}

// Sent returns how many submissions were started.
func (s *Submitter) Sent() int {
	return s.sent
}
