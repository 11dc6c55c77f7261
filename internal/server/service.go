// Package server is the reference competition host: the authoritative
// lifecycle and the results store behind the JSON endpoints.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/store"
)

var (
	// ErrNotFound is returned for an unknown competition.
	ErrNotFound = errors.New("competition not found")
	// ErrForbidden is returned when the organizer token is missing or wrong.
	ErrForbidden = errors.New("organizer token required")
	// ErrConflict is returned when an action does not fit the current status.
	ErrConflict = errors.New("action not allowed in current status")
	// ErrInvalid is returned for malformed submissions.
	ErrInvalid = errors.New("invalid request")
)

// DefaultLeadTime is the delay before a restarted competition begins.
const DefaultLeadTime = 30 * time.Second

// Service applies lifecycle rules on top of the store.
type Service struct {
	store    *store.Store
	clock    clockwork.Clock
	token    string
	leadTime time.Duration
	log      zerolog.Logger

	// mu serializes read-modify-write lifecycle actions.
	mu sync.Mutex
}

// Options configures a Service.
type Options struct {
	OrganizerToken string
	LeadTime       time.Duration
	Clock          clockwork.Clock
	Logger         zerolog.Logger
}

// NewService returns a service over st.
func NewService(st *store.Store, opts Options) (*Service, error) {
	if st == nil {
		return nil, errors.New("server requires a store")
	}
	if strings.TrimSpace(opts.OrganizerToken) == "" {
		return nil, errors.New("server requires an organizer token")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.LeadTime <= 0 {
		opts.LeadTime = DefaultLeadTime
	}
	return &Service{
		store:    st,
		clock:    opts.Clock,
		token:    opts.OrganizerToken,
		leadTime: opts.LeadTime,
		log:      opts.Logger,
	}, nil
}

// StatusAt derives the lifecycle status of c at now.
func StatusAt(c model.Competition, now time.Time) model.Status {
	switch {
	case c.Stopped:
		return model.StatusEnded
	case now.Before(c.StartAt):
		return model.StatusWaiting
	case now.Before(c.StartAt.Add(c.Duration)):
		return model.StatusActive
	default:
		return model.StatusEnded
	}
}

// RemainingAt returns the whole seconds, rounded up, until c ends. A
// waiting competition counts its lead time too.
func RemainingAt(c model.Competition, now time.Time) int {
	if StatusAt(c, now) == model.StatusEnded {
		return 0
	}
	left := c.StartAt.Add(c.Duration).Sub(now)
	return int(math.Ceil(left.Seconds()))
}

// Descriptor is the participant's view of the competition at load.
func (s *Service) Descriptor(ctx context.Context, id string) (model.Descriptor, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return model.Descriptor{}, err
	}
	now := s.clock.Now()
	return model.Descriptor{
		Title:     c.Title,
		Mode:      c.Mode,
		Text:      c.Text,
		Jumble:    c.Jumble,
		Duration:  int(c.Duration / time.Second),
		Remaining: RemainingAt(c, now),
		Status:    StatusAt(c, now),
	}, nil
}

// Status returns the authoritative status.
func (s *Service) Status(ctx context.Context, id string) (model.Status, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return "", err
	}
	return StatusAt(c, s.clock.Now()), nil
}

// Submit records a participant's result. Submissions before the start are
// refused; later ones replace the previous result.
func (s *Service) Submit(ctx context.Context, id, participantID, participantName string, sub model.Submission) error {
	if strings.TrimSpace(participantID) == "" {
		return fmt.Errorf("%w: participant id is required", ErrInvalid)
	}
	if sub.WPM < 0 || sub.Accuracy < 0 || sub.Accuracy > 100 || sub.TimeTaken < 0 ||
		sub.TotalKeystrokes < 0 || sub.CorrectKeystrokes < 0 || sub.CorrectKeystrokes > sub.TotalKeystrokes || sub.RepeatCount < 0 {
		return fmt.Errorf("%w: submission out of range", ErrInvalid)
	}
	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	if StatusAt(c, now) == model.StatusWaiting {
		return fmt.Errorf("%w: competition has not started", ErrConflict)
	}
	if participantName == "" {
		participantName = participantID
	}
	if err := s.store.UpsertResult(ctx, id, model.Result{
		ParticipantID:   participantID,
		ParticipantName: participantName,
		Submission:      sub,
		SubmittedAt:     now,
	}); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	s.log.Info().
		Str("competition", id).
		Str("participant", participantID).
		Float64("wpm", sub.WPM).
		Float64("accuracy", sub.Accuracy).
		Msg("result recorded")
	return nil
}

// Results returns the standings in arrival order.
func (s *Service) Results(ctx context.Context, id string) ([]model.Standing, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	results, err := s.store.ListResults(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	standings := make([]model.Standing, 0, len(results))
	for _, r := range results {
		standings = append(standings, model.Standing{
			ParticipantID:   r.ParticipantID,
			ParticipantName: r.ParticipantName,
			WPM:             r.Submission.WPM,
			Accuracy:        r.Submission.Accuracy,
		})
	}
	return standings, nil
}

// StartNow starts a waiting competition immediately.
func (s *Service) StartNow(ctx context.Context, id, token string) error {
	return s.organize(ctx, id, token, "start-now", func(c model.Competition, now time.Time) error {
		if StatusAt(c, now) != model.StatusWaiting {
			return fmt.Errorf("%w: competition is not waiting", ErrConflict)
		}
		return s.store.UpdateSchedule(ctx, id, now, false)
	})
}

// Stop ends the competition.
func (s *Service) Stop(ctx context.Context, id, token string) error {
	return s.organize(ctx, id, token, "stop", func(c model.Competition, now time.Time) error {
		if StatusAt(c, now) == model.StatusEnded {
			return fmt.Errorf("%w: competition already ended", ErrConflict)
		}
		return s.store.UpdateSchedule(ctx, id, c.StartAt, true)
	})
}

// Restart clears results and schedules a new start after the lead time.
func (s *Service) Restart(ctx context.Context, id, token string) error {
	return s.organize(ctx, id, token, "restart", func(_ model.Competition, now time.Time) error {
		return s.store.Restart(ctx, id, now.Add(s.leadTime))
	})
}

func (s *Service) organize(ctx context.Context, id, token, action string, apply func(model.Competition, time.Time) error) error {
	if !s.authorized(token) {
		s.log.Warn().Str("competition", id).Str("action", action).Msg("organizer token rejected")
		return ErrForbidden
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := apply(c, s.clock.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info().Str("competition", id).Str("action", action).Msg("organizer action applied")
	return nil
}

func (s *Service) authorized(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1
}

func (s *Service) get(ctx context.Context, id string) (model.Competition, error) {
	c, err := s.store.GetCompetition(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Competition{}, ErrNotFound
	}
	if err != nil {
		return model.Competition{}, fmt.Errorf("failed to load competition: %w", err)
	}
	return c, nil
}
