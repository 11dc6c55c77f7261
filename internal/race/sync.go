package race

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/scheduler"
	"github.com/verte-zerg/typerace/internal/stats"
)

// Synchronizer runs the standings and status pulls. Both are read-only
// against the host; a failed pull is logged and the next tick retries.
type Synchronizer struct {
	group  *scheduler.Group
	client Client
	log    zerolog.Logger

	localStatus func() model.Status
	onStandings func([]model.Standing)
	onDiverged  func(local, remote model.Status)

	standingsSeq     uint64
	standingsApplied uint64
	diverged         bool
}

func newSynchronizer(group *scheduler.Group, client Client, log zerolog.Logger, localStatus func() model.Status, onStandings func([]model.Standing), onDiverged func(local, remote model.Status)) *Synchronizer {
	return &Synchronizer{
		group:       group,
		client:      client,
		log:         log,
		localStatus: localStatus,
		onStandings: onStandings,
		onDiverged:  onDiverged,
	}
}

// Start schedules both pulls. They stop when the group is cancelled.
func (s *Synchronizer) Start(standingsEvery, statusEvery time.Duration) {
	s.group.Every(standingsEvery, s.PullStandings)
	s.group.Every(statusEvery, s.PullStatus)
}

// PullStandings fetches the standings once. Responses older than one
// already applied are dropped.
func (s *Synchronizer) PullStandings() {
	s.standingsSeq++
	seq := s.standingsSeq
	s.group.Go(func(ctx context.Context) func() {
		standings, err := s.client.FetchResults(ctx)
		return func() {
			if err != nil {
				s.log.Warn().Err(err).Msg("standings pull failed")
				return
			}
			if seq < s.standingsApplied {
				s.log.Debug().Uint64("seq", seq).Msg("dropping stale standings")
				return
			}
			s.standingsApplied = seq
			s.onStandings(stats.SortStandings(standings))
		}
	})
}

// PullStatus fetches the authoritative status once and reports the first
// disagreement with the local status.
func (s *Synchronizer) PullStatus() {
	if s.diverged {
		return
	}
	s.group.Go(func(ctx context.Context) func() {
		remote, err := s.client.CompetitionStatus(ctx)
		return func() {
			if err != nil {
				s.log.Warn().Err(err).Msg("status pull failed")
				return
			}
			if s.diverged {
				return
			}
			local := s.localStatus()
			if remote == local {
				return
			}
			s.diverged = true
			s.log.Info().
				Str("local", string(local)).
				Str("remote", string(remote)).
				Msg("competition status diverged")
			s.onDiverged(local, remote)
		}
	})
}
