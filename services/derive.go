package services

import (
	"math"

	"fal-scraper/models"
)

// Heuristics holds the noise-floor constants used by the status
// classifier. A title can appear started or finished in the community well
// ahead of the platform's own status flag; counts below these floors are
// treated as measurement noise rather than a real state change.
type Heuristics struct {
	PreairBase       int // base watcher count to accept a pre-air signal
	PreairDivisor    int // share of PTW folded into the pre-air floor
	CompletedBase    float64
	CompletedDivisor float64
}

// DefaultHeuristics returns the tuned production constants.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		PreairBase:       200,
		PreairDivisor:    250,
		CompletedBase:    100,
		CompletedDivisor: 30,
	}
}

func (h Heuristics) preairNoiseFloor(ptw int) int {
	return h.PreairBase + ptw/h.PreairDivisor
}

func (h Heuristics) completedNoiseFloor(watching int) int {
	return int(math.Ceil(h.CompletedBase + float64(watching)/h.CompletedDivisor))
}

// Derive maps one title's raw statistics and self-reported airing status
// into a classified status code and the derived engagement aggregates.
// Pure and total: no I/O, inputs untouched, every raw status yields a code.
func Derive(s *models.AnimeStats, h Heuristics) models.DerivedStats {
	d := models.DerivedStats{
		Watching:    s.Watching,
		Completed:   s.Completed,
		Dropped:     s.Dropped,
		PlanToWatch: s.PlanToWatch,
	}

	switch s.Status {
	case models.StatusNotYetAired:
		if s.Watching < h.preairNoiseFloor(s.PlanToWatch) {
			// Community counts below the floor are noise on an unaired title.
			d.Watching, d.Completed, d.Dropped = 0, 0, 0
			d.Code = models.CodeNYA
		} else {
			// Early preview despite the platform saying unaired.
			d.Completed = 0
			d.Code = models.CodePRE
		}
	case models.StatusFinishedAiring:
		// Trust the platform once it declares completion.
		d.Code = models.CodeFIN
	case models.StatusCurrentlyAiring:
		if s.Completed < h.completedNoiseFloor(s.Watching) {
			d.Completed = 0
			d.Code = models.CodeAIR
		} else {
			// Assumed finished pending platform confirmation.
			d.Code = models.CodeAssumedFin
		}
	default:
		d.Code = models.CodeUNK
	}

	d.WatchComp = d.Watching + d.Completed
	d.WatchDrop = d.WatchComp + d.Dropped
	if d.WatchDrop > 0 {
		d.DropRate = float64(d.Dropped) / float64(d.WatchDrop)
	}
	if d.PlanToWatch > 0 {
		d.PTWRatio = float64(d.WatchComp) / float64(d.PlanToWatch)
	}
	return d
}

// BuildRows assembles the final row set: one derived row per fetched title
// and one explicit error placeholder per failed ID, so every tracked ID
// appears exactly once.
func BuildRows(ids []int, stats map[int]*models.AnimeStats, failed []models.FetchFailure, posts map[int]int, h Heuristics) []*models.Row {
	reasons := make(map[int]string, len(failed))
	for _, f := range failed {
		reasons[f.ID] = f.Reason
	}

	rows := make([]*models.Row, 0, len(ids))
	for _, id := range ids {
		if s, ok := stats[id]; ok {
			rows = append(rows, &models.Row{
				ID:        id,
				Title:     s.Title,
				Mean:      s.Mean,
				Favorites: s.Favorites,
				Posts:     posts[id],
				Derived:   Derive(s, h),
			})
			continue
		}

		reason, ok := reasons[id]
		if !ok {
			reason = models.ReasonNetwork
		}
		rows = append(rows, &models.Row{
			ID:      id,
			Err:     reason,
			Derived: models.DerivedStats{Code: models.CodeERR},
		})
	}
	return rows
}
