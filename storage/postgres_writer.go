package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"fal-scraper/models"
)

// PostgresWriter persists per-run engagement snapshots to PostgreSQL.
// Snapshots are append-only so successive runs build a season history.
type PostgresWriter struct {
	db    *sql.DB
	runAt time.Time
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, runAt: time.Now()}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS engagement_snapshots (
			id            SERIAL PRIMARY KEY,
			run_at        TIMESTAMPTZ NOT NULL,
			anime_id      BIGINT      NOT NULL,
			title         TEXT        NOT NULL DEFAULT '',
			score         DOUBLE PRECISION,
			favorites     INT         NOT NULL DEFAULT 0,
			posts         INT         NOT NULL DEFAULT 0,
			watching      INT         NOT NULL DEFAULT 0,
			completed     INT         NOT NULL DEFAULT 0,
			watch_comp    INT         NOT NULL DEFAULT 0,
			dropped       INT         NOT NULL DEFAULT 0,
			drop_rate     DOUBLE PRECISION NOT NULL DEFAULT 0,
			plan_to_watch INT         NOT NULL DEFAULT 0,
			ptw_ratio     DOUBLE PRECISION NOT NULL DEFAULT 0,
			status        VARCHAR(8)  NOT NULL,
			fetch_error   TEXT        NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_anime_id ON engagement_snapshots(anime_id);
		CREATE INDEX IF NOT EXISTS idx_snapshots_run_at   ON engagement_snapshots(run_at);
	`)
	return err
}

// WriteRows batch-inserts one snapshot record per row, error placeholders
// included, keyed to the writer's run timestamp.
func (pw *PostgresWriter) WriteRows(rows []*models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := pw.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Row) error {
	const cols = 15
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for p := 0; p < cols; p++ {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var score interface{}
		if r.Mean != nil {
			score = *r.Mean
		}
		d := r.Derived
		valueArgs = append(valueArgs,
			pw.runAt, r.ID, r.Title, score, r.Favorites, r.Posts,
			d.Watching, d.Completed, d.WatchComp, d.Dropped, d.DropRate,
			d.PlanToWatch, d.PTWRatio, string(d.Code), r.Err,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO engagement_snapshots
			(run_at, anime_id, title, score, favorites, posts,
			 watching, completed, watch_comp, dropped, drop_rate,
			 plan_to_watch, ptw_ratio, status, fetch_error)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// Close releases the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// LatestRun returns the most recent snapshot timestamp, or the zero time
// when no snapshots exist yet.
func (pw *PostgresWriter) LatestRun() (time.Time, error) {
	var runAt sql.NullTime
	err := pw.db.QueryRow(`SELECT MAX(run_at) FROM engagement_snapshots`).Scan(&runAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: latest run: %w", err)
	}
	if !runAt.Valid {
		return time.Time{}, nil
	}
	return runAt.Time, nil
}
