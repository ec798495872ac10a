package models

import "time"

// AiringStatus is the airing state reported by the metadata API itself.
type AiringStatus string

const (
	StatusNotYetAired     AiringStatus = "not_yet_aired"
	StatusCurrentlyAiring AiringStatus = "currently_airing"
	StatusFinishedAiring  AiringStatus = "finished_airing"
)

// StatusCode is the classified airing status after noise filtering.
// It refines the API's self-reported status with audience-count heuristics.
type StatusCode string

const (
	CodeNYA        StatusCode = "NYA"  // not yet aired
	CodePRE        StatusCode = "PRE"  // early preview despite "not yet aired"
	CodeAIR        StatusCode = "AIR"  // currently airing
	CodeAssumedFin StatusCode = "FIN?" // assumed finished pending API confirmation
	CodeFIN        StatusCode = "FIN"  // finished airing
	CodeUNK        StatusCode = "UNK"  // unrecognized raw status
	CodeERR        StatusCode = "ERR"  // fetch or parse failure
)

// AnimeStats is the raw per-title snapshot returned by one successful
// metadata API fetch. Immutable once returned.
type AnimeStats struct {
	ID          int
	Title       string
	Mean        *float64 // nil when the title has no score yet
	Favorites   int
	Status      AiringStatus
	Watching    int
	Completed   int
	Dropped     int
	PlanToWatch int
	RetrievedAt time.Time
}

// Failure reasons for a terminally failed fetch.
const (
	ReasonNotFound  = "not_found"
	ReasonExhausted = "exhausted"
	ReasonNetwork   = "network_error"
	ReasonParse     = "parse_error"
)

// FetchFailure records one tracked ID that could not be fetched, with the
// terminal reason. Failed IDs are never silently dropped from a batch.
type FetchFailure struct {
	ID     int
	Reason string
}

// DerivedStats holds the classified status and the derived engagement
// aggregates for one title. Recomputed on every run, never persisted alone.
type DerivedStats struct {
	Code        StatusCode
	Watching    int
	Completed   int
	Dropped     int
	PlanToWatch int
	WatchComp   int     // watching + completed
	WatchDrop   int     // watching + completed + dropped
	DropRate    float64 // dropped / WatchDrop, 0 when WatchDrop is 0
	PTWRatio    float64 // WatchComp / PlanToWatch, 0 when PlanToWatch is 0
}

// Row is one line of the final report: either a derived data row or an
// explicit error placeholder for an ID that failed permanently. Every
// tracked ID appears exactly once in the final row set.
type Row struct {
	ID        int
	Title     string
	Mean      *float64
	Favorites int
	Posts     int
	Derived   DerivedStats
	Err       string // non-empty marks a failure row
}

// Failed reports whether this row is an error placeholder.
func (r *Row) Failed() bool { return r.Err != "" }

// RunSummary is the end-of-run accounting handed to the console reporter.
type RunSummary struct {
	Season    SeasonInfo
	Total     int
	Errors    int64
	FailedIDs []int
	AceTitles []string // titles whose W+C reached the ace cap
}
