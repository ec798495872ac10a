package services

import (
	"math"
	"sort"
	"strings"

	"fal-scraper/models"
)

// SortKey selects the column the final row set is ordered by.
type SortKey string

const (
	SortNone       SortKey = ""
	SortTitle      SortKey = "title"
	SortScore      SortKey = "score"
	SortFavorites  SortKey = "favorites"
	SortPosts      SortKey = "posts"
	SortWatching   SortKey = "watching"
	SortCompleted  SortKey = "completed"
	SortEngagement SortKey = "engagement" // W+C
	SortDropped    SortKey = "dropped"
	SortDropRate   SortKey = "drop-rate"
	SortPTW        SortKey = "ptw"
	SortPTWRatio   SortKey = "ptw-ratio"
	SortStatus     SortKey = "status"
	SortID         SortKey = "id"
)

// Column letters of the original spreadsheet layout, kept as aliases so
// existing configurations keep working.
var letterKeys = map[string]SortKey{
	"A": SortTitle,
	"B": SortScore,
	"C": SortFavorites,
	"D": SortPosts,
	"E": SortWatching,
	"F": SortCompleted,
	"G": SortEngagement,
	"H": SortDropped,
	"I": SortDropRate,
	"J": SortPTW,
	"K": SortPTWRatio,
	"L": SortStatus,
	"M": SortID,
}

// ParseSortKey resolves a configured sort key, accepting both key names
// and the legacy column letters. Unknown values map to SortNone, which
// preserves input order.
func ParseSortKey(s string) SortKey {
	s = strings.TrimSpace(s)
	if k, ok := letterKeys[strings.ToUpper(s)]; ok {
		return k
	}
	k := SortKey(strings.ToLower(s))
	if _, ok := comparators[k]; ok {
		return k
	}
	return SortNone
}

// statusRank orders classified statuses best-first.
var statusRank = map[models.StatusCode]int{
	models.CodeFIN:        0,
	models.CodeAssumedFin: 1,
	models.CodeAIR:        2,
	models.CodePRE:        3,
	models.CodeNYA:        4,
	models.CodeUNK:        4,
	models.CodeERR:        5,
}

// comparators is the dispatch table of data-row orderings, one per key.
// The failure-rows-last rule is applied outside, in SortRows, so each
// comparator only ever sees data rows.
var comparators = map[SortKey]func(a, b *models.Row) bool{
	SortTitle: func(a, b *models.Row) bool {
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	},
	SortScore: func(a, b *models.Row) bool {
		return meanOf(a) > meanOf(b)
	},
	SortFavorites:  descInt(func(r *models.Row) int { return r.Favorites }),
	SortPosts:      descInt(func(r *models.Row) int { return r.Posts }),
	SortWatching:   descInt(func(r *models.Row) int { return r.Derived.Watching }),
	SortCompleted:  descInt(func(r *models.Row) int { return r.Derived.Completed }),
	SortEngagement: descInt(func(r *models.Row) int { return r.Derived.WatchComp }),
	SortDropped:    descInt(func(r *models.Row) int { return r.Derived.Dropped }),
	SortDropRate: func(a, b *models.Row) bool {
		return a.Derived.DropRate > b.Derived.DropRate
	},
	SortPTW: descInt(func(r *models.Row) int { return r.Derived.PlanToWatch }),
	SortPTWRatio: func(a, b *models.Row) bool {
		return a.Derived.PTWRatio > b.Derived.PTWRatio
	},
	SortStatus: func(a, b *models.Row) bool {
		return statusRank[a.Derived.Code] < statusRank[b.Derived.Code]
	},
	SortID: func(a, b *models.Row) bool {
		return a.ID < b.ID
	},
}

func descInt(value func(*models.Row) int) func(a, b *models.Row) bool {
	return func(a, b *models.Row) bool { return value(a) > value(b) }
}

// meanOf treats a missing score as negative infinity so unscored titles
// land after every scored one in descending order.
func meanOf(r *models.Row) float64 {
	if r.Mean == nil {
		return math.Inf(-1)
	}
	return *r.Mean
}

// SortRows orders the row set in place by the given key. Failure rows sort
// to the bottom regardless of key; ties keep input order; an unknown key
// leaves the input order untouched.
func SortRows(rows []*models.Row, key SortKey) {
	less, ok := comparators[key]
	if !ok {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Failed() != b.Failed() {
			return !a.Failed()
		}
		if a.Failed() {
			return false
		}
		return less(a, b)
	})
}
