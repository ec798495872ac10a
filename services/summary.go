package services

import (
	"fmt"
	"strings"

	"fal-scraper/models"
	"fal-scraper/utils"
)

// SummaryService produces and prints the end-of-run accounting.
type SummaryService struct {
	logger *utils.Logger
}

// NewSummaryService creates a SummaryService with the given logger.
func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate builds the run summary over the final row set. The error count
// comes from the logger, which saw every terminal failure of the run.
func (s *SummaryService) Generate(rows []*models.Row, season models.SeasonInfo, aceCap int) *models.RunSummary {
	sum := &models.RunSummary{
		Season: season,
		Total:  len(rows),
		Errors: s.logger.ErrorCount(),
	}

	for _, r := range rows {
		if r.Failed() {
			sum.FailedIDs = append(sum.FailedIDs, r.ID)
			continue
		}
		if aceCap > 0 && r.Derived.WatchComp >= aceCap {
			sum.AceTitles = append(sum.AceTitles, r.Title)
		}
	}
	return sum
}

// Print renders the summary to the console.
func (s *SummaryService) Print(r *models.RunSummary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  SEASONAL ENGAGEMENT SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Season\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Current season : \033[1m%s %d\033[0m\n", r.Season.Name, r.Season.Year)
	fmt.Printf("  Retrieval week : \033[1m%d\033[0m\n", r.Season.Week)
	if r.Season.Period.Valid() {
		fmt.Printf("  Counting period: \033[1mweek %d\033[0m (%s to %s)\n",
			r.Season.Period.Number,
			r.Season.Period.Start.Format("2006-01-02"),
			r.Season.Period.End.Format("2006-01-02"))
	} else {
		fmt.Printf("  Counting period: \033[1mn/a\033[0m (outside season)\n")
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Rows\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Tracked titles : \033[1m%d\033[0m\n", r.Total)
	fmt.Printf("  Failed fetches : \033[1m%d\033[0m\n", len(r.FailedIDs))
	if len(r.FailedIDs) > 0 {
		fmt.Printf("  Failed IDs     : %v\n", r.FailedIDs)
	}
	fmt.Println()

	if len(r.AceTitles) > 0 {
		fmt.Printf("\033[1;33m  Ace Cap Reached (W+C)\033[0m\n")
		fmt.Printf("  %s\n", thin)
		for i, title := range r.AceTitles {
			fmt.Printf("  \033[1m%d.\033[0m %s\n", i+1, truncate(title, 48))
		}
		fmt.Println()
	}

	if r.Errors > 0 {
		fmt.Printf("  Finished with \033[1;31m%d errors\033[0m\n", r.Errors)
	} else {
		fmt.Printf("  Finished with \033[1;32m0 errors\033[0m\n")
	}
	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
