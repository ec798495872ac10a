package models

import "time"

// ForumPost is a single forum post: who posted and when. Posts come from
// two channels (the paginated structured feed and the last-post scrape)
// merged into one per-thread list.
type ForumPost struct {
	Author    string
	Timestamp time.Time
}

// ForumThread is one episode discussion thread discovered on a title's
// board index. At most one thread per episode is assumed.
type ForumThread struct {
	AnimeID    int
	Episode    int
	URL        string
	ReplyCount int
	Posts      []ForumPost
}

// CountingPeriod is the reporting window that scopes which forum posts
// count toward a title's participation metric. Recomputed at run start.
type CountingPeriod struct {
	Number int // 0 when the current week falls outside the season
	Start  time.Time
	End    time.Time
}

// Valid reports whether the current week maps to a counting period at all.
func (p CountingPeriod) Valid() bool { return p.Number >= 1 }

// Contains reports whether a post timestamp falls inside the period.
// Period 2 has no lower bound so pre-season chatter is absorbed into the
// first report of the season.
func (p CountingPeriod) Contains(t time.Time) bool {
	if !p.Valid() {
		return false
	}
	if p.Number == 2 {
		return t.Before(p.End)
	}
	return !t.Before(p.Start) && t.Before(p.End)
}

// SeasonInfo describes the season the current run falls into.
type SeasonInfo struct {
	Name   string
	Year   int
	Start  time.Time
	Week   int
	Period CountingPeriod
}
