package services

import (
	"fmt"
	"math"
	"time"

	"fal-scraper/models"
)

// FALZone is the reporting timezone, UTC+2. All period boundaries and
// week calculations are anchored to it.
var FALZone = time.FixedZone("UTC+2", 2*60*60)

const seasonWeeks = 13

// Programming seasons as week offsets from ISO week 1.
var seasonOffsets = []struct {
	name  string
	weeks int
}{
	{"winter", 0},
	{"spring", 13},
	{"summer", 26},
	{"fall", 39},
}

// CurrentSeason resolves which programming season the given instant falls
// into, along with the retrieval week and the active counting period. An
// optional override pins the season start date (Monday of the first week)
// and name.
func CurrentSeason(now time.Time, startOverride, nameOverride string) (models.SeasonInfo, error) {
	now = now.In(FALZone)

	if startOverride != "" && nameOverride != "" {
		start, err := time.ParseInLocation("2006-01-02", startOverride, FALZone)
		if err != nil {
			return models.SeasonInfo{}, fmt.Errorf("season start override: %w", err)
		}
		return buildSeason(nameOverride, start, now), nil
	}

	for _, s := range seasonOffsets {
		start := isoWeekStart(now.Year()).AddDate(0, 0, s.weeks*7)
		end := start.AddDate(0, 0, seasonWeeks*7)
		if !now.Before(start) && now.Before(end) {
			return buildSeason(s.name, start, now), nil
		}
	}

	// Between the end of fall and the new year: assume next winter.
	return buildSeason("winter", isoWeekStart(now.Year()+1), now), nil
}

func buildSeason(name string, start, now time.Time) models.SeasonInfo {
	week := weekOf(now, start)
	return models.SeasonInfo{
		Name:   name,
		Year:   now.Year(),
		Start:  start,
		Week:   week,
		Period: countingPeriod(start, periodOf(week)),
	}
}

// isoWeekStart returns the Monday starting ISO week 1 of the year: the
// Monday of the week containing January 4th, at midnight in FALZone.
func isoWeekStart(year int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, FALZone)
	weekday := (int(jan4.Weekday()) + 6) % 7 // Monday = 0
	return jan4.AddDate(0, 0, -weekday)
}

// weekOf returns the 1-based week of the season the instant falls into.
// Instants before the season start yield week 0 or lower.
func weekOf(now, start time.Time) int {
	days := int(math.Floor(now.Sub(start).Hours() / 24))
	return floorDiv(days, 7) + 1
}

// periodOf maps a season week to its counting period. Post counts are
// reported in two-week buckets, except the final week which stands alone.
// Weeks outside the season have no period.
func periodOf(week int) int {
	switch {
	case week < 1 || week > seasonWeeks:
		return 0
	case week == seasonWeeks:
		return seasonWeeks
	default:
		p := (week + 1) / 2 * 2
		if p > 12 {
			p = 12
		}
		return p
	}
}

// countingPeriod computes the period's time window. Period 2 starts at the
// season start itself; later periods cover the two weeks before their end.
func countingPeriod(seasonStart time.Time, period int) models.CountingPeriod {
	if period < 1 {
		return models.CountingPeriod{}
	}
	start := seasonStart
	if period != 2 {
		start = seasonStart.AddDate(0, 0, (period-2)*7)
	}
	return models.CountingPeriod{
		Number: period,
		Start:  start,
		End:    seasonStart.AddDate(0, 0, period*7),
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
