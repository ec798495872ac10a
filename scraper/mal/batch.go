package mal

import (
	"context"
	"sync"

	"fal-scraper/models"
	"fal-scraper/utils"
)

// BatchResult holds the outcome of one fan-out fetch: successful snapshots
// keyed by title ID plus the IDs that failed terminally, in input order.
// The batch never short-circuits; every task settles before it is returned.
type BatchResult struct {
	Stats  map[int]*models.AnimeStats
	Failed []models.FetchFailure
}

// FetchAll fans out one statistics fetch per tracked ID under the
// configured concurrency cap and collects partial results. Per-task
// results are merged only after each task completes, so no state is
// shared between in-flight tasks.
func (c *Client) FetchAll(ctx context.Context, ids []int) *BatchResult {
	pool := utils.NewWorkerPool(c.maxConc)

	var mu sync.Mutex
	stats := make(map[int]*models.AnimeStats, len(ids))
	reasons := make(map[int]string)

	for _, id := range ids {
		id := id
		pool.Submit(func() {
			s, err := c.AnimeStats(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				reason := failureReason(err)
				c.logger.Error("[mal] fetch for ID %d failed (%s): %v", id, reason, err)
				reasons[id] = reason
				return
			}
			stats[id] = s
			c.logger.Verbose("[mal] fetched %q (ID %d)", s.Title, id)
		})
	}
	pool.Wait()

	res := &BatchResult{Stats: stats}
	for _, id := range ids {
		if reason, ok := reasons[id]; ok {
			res.Failed = append(res.Failed, models.FetchFailure{ID: id, Reason: reason})
		}
	}
	return res
}
