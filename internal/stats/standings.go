package stats

import (
	"sort"

	"github.com/verte-zerg/typerace/internal/model"
)

// SortStandings returns a copy ordered by descending WPM. Ties keep arrival order.
func SortStandings(in []model.Standing) []model.Standing {
	out := make([]model.Standing, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WPM > out[j].WPM
	})
	return out
}

// Rank returns the 1-based position of participantID in sorted standings and
// the participant count. Rank is 0 when the participant has no result yet.
func Rank(sorted []model.Standing, participantID string) (rank, count int) {
	count = len(sorted)
	for i, s := range sorted {
		if s.ParticipantID == participantID {
			return i + 1, count
		}
	}
	return 0, count
}

// TopWPM returns the highest WPM in the standings, or 0 when empty.
func TopWPM(standings []model.Standing) float64 {
	top := 0.0
	for _, s := range standings {
		if s.WPM > top {
			top = s.WPM
		}
	}
	return top
}
