package main

import (
	"context"
	"os"
	"time"

	"fal-scraper/config"
	"fal-scraper/models"
	"fal-scraper/scraper/forum"
	"fal-scraper/scraper/mal"
	"fal-scraper/services"
	"fal-scraper/storage"
	"fal-scraper/utils"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)
	defer logger.Close()

	logger.Info("=== Seasonal Engagement Tracker starting ===")
	logger.Info("Config - concurrency: %d | retries: %d | backoff: %ds | posts: %v | sort: %s",
		cfg.MaxConcurrency, cfg.RetryLimit, cfg.SleepTimeSec, cfg.EnablePosts, cfg.SortColumn)

	ids, err := config.ParseIDList(cfg.AnimeIDs)
	if err != nil || len(ids) == 0 {
		logger.Error("Anime IDs missing or invalid. Check the ANIME_IDS configuration: %v", err)
		os.Exit(1)
	}
	secondaryIDs, err := config.ParseIDList(cfg.SecondaryAnimeIDs)
	if err != nil {
		logger.Error("Secondary anime IDs invalid. Check the SECONDARY_ANIME_IDS configuration: %v", err)
		os.Exit(1)
	}

	now := time.Now().In(services.FALZone)
	season, err := services.CurrentSeason(now, cfg.SeasonStartOverride, cfg.SeasonNameOverride)
	if err != nil {
		logger.Error("Season override invalid: %v", err)
		os.Exit(1)
	}
	logger.Debug("Current week: %d", season.Week)
	logger.Debug("Current period: %d (%s to %s)",
		season.Period.Number, season.Period.Start, season.Period.End)

	ctx := context.Background()
	client := mal.New(cfg, logger)
	heuristics := services.DefaultHeuristics()

	logger.Info("Fetching API data for %d titles...", len(ids))
	batch := client.FetchAll(ctx, ids)
	logger.Info("Fetched %d titles, %d failed", len(batch.Stats), len(batch.Failed))

	var secondaryBatch *mal.BatchResult
	if len(secondaryIDs) > 0 {
		logger.Info("Fetching API data for %d secondary titles...", len(secondaryIDs))
		secondaryBatch = client.FetchAll(ctx, secondaryIDs)
	}

	var postCounts map[int]int
	var forumData *forum.Aggregate
	if cfg.EnablePosts {
		if season.Period.Valid() {
			logger.Info("Fetching forum data for %d titles...", len(ids))
			forumScraper := forum.New(cfg, client, logger)
			forumData = forumScraper.FetchAll(ctx, ids, season.Period)
			postCounts = forumData.PostCounts
		} else {
			logger.Warn("Current week falls outside the season; skipping forum post counting")
		}
	}

	rows := services.BuildRows(ids, batch.Stats, batch.Failed, postCounts, heuristics)
	sortKey := services.ParseSortKey(cfg.SortColumn)
	if sortKey == services.SortNone && cfg.SortColumn != "" {
		logger.Warn("Unknown sort column %q; keeping input order", cfg.SortColumn)
	}
	services.SortRows(rows, sortKey)

	logger.Info("Writing the report...")
	reportPath := storage.ReportFilename(cfg.OutputDir, cfg.SeasonCode, "", now)
	writeReport(logger, reportPath, rows, season, now)

	if secondaryBatch != nil {
		altRows := services.BuildRows(secondaryIDs, secondaryBatch.Stats, secondaryBatch.Failed, nil, heuristics)
		services.SortRows(altRows, sortKey)
		altPath := storage.ReportFilename(cfg.OutputDir, cfg.SeasonCode, "_alt", now)
		writeReport(logger, altPath, altRows, season, now)
	}

	if forumData != nil {
		writePostsReport(logger, cfg, ids, batch, forumData, now)
	}

	if cfg.EnableDB {
		writeSnapshots(logger, cfg, rows)
	}

	summarySvc := services.NewSummaryService(logger)
	summary := summarySvc.Generate(rows, season, cfg.AceCap)
	summarySvc.Print(summary)

	logger.Info("Finished processing with %d errors", logger.ErrorCount())
	if len(summary.FailedIDs) > 0 {
		logger.Verbose("Failed to fetch data for the following anime IDs: %v", summary.FailedIDs)
	}
}

func newLogger(cfg *config.Config) *utils.Logger {
	if cfg.LogFilePath != "" && cfg.Verbosity > utils.VerbositySilent {
		logger, err := utils.NewFileLogger(cfg.Verbosity, cfg.LogFilePath)
		if err == nil {
			logger.Info("Logging output to: %s", cfg.LogFilePath)
			return logger
		}
		fallback := utils.NewLogger(cfg.Verbosity)
		fallback.Warn("Could not open log file: %v", err)
		return fallback
	}
	return utils.NewLogger(cfg.Verbosity)
}

func writeReport(logger *utils.Logger, path string, rows []*models.Row, season models.SeasonInfo, now time.Time) {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		logger.Error("Failed to create report writer: %v", err)
		return
	}
	defer w.Close()

	if err := w.WriteRows(rows); err != nil {
		logger.Error("Report write failed: %v", err)
		return
	}
	if err := w.WriteFooter(season, now); err != nil {
		logger.Error("Report footer write failed: %v", err)
		return
	}
	logger.Info("Written to file: %s", path)
}

func writePostsReport(logger *utils.Logger, cfg *config.Config, ids []int, batch *mal.BatchResult, forumData *forum.Aggregate, now time.Time) {
	titles := make(map[int]string, len(ids))
	for id, s := range batch.Stats {
		titles[id] = s.Title
	}

	path := storage.ReportFilename(cfg.OutputDir, cfg.SeasonCode, "_posts", now)
	w, err := storage.NewPostsWriter(path)
	if err != nil {
		logger.Error("Failed to create posts writer: %v", err)
		return
	}
	defer w.Close()

	if err := w.WriteBreakdown(ids, forumData.Threads, titles); err != nil {
		logger.Error("Posts report write failed: %v", err)
		return
	}
	logger.Info("Written to file: %s", path)
}

func writeSnapshots(logger *utils.Logger, cfg *config.Config, rows []*models.Row) {
	pg, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		return
	}
	defer pg.Close()

	if prev, err := pg.LatestRun(); err == nil && !prev.IsZero() {
		logger.Verbose("Previous snapshot run: %s", prev.Format("2006-01-02 15:04"))
	}

	if err := pg.WriteRows(rows); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return
	}
	logger.Info("Snapshots stored in PostgreSQL (table: engagement_snapshots)")
}
