// Package stats keeps a history of export runs in SQLite.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Run is one recorded export.
type Run struct {
	ID           string        `json:"id"`
	Project      string        `json:"project"`
	Build        string        `json:"build,omitempty"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	FPS          int           `json:"fps"`
	Frames       int           `json:"frames"`
	Failures     int           `json:"failures"`
	Sink         string        `json:"sink"`
	Total        time.Duration `json:"total_ns"`
	Render       time.Duration `json:"render_ns"`
	CPUSeconds   float64       `json:"cpu_seconds"`
	PeakRSSBytes uint64        `json:"rss_bytes"`
	CreatedAt    time.Time     `json:"created_at"`
}

// EffectiveFPS is frames rendered per wall-clock second.
func (r Run) EffectiveFPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

// Summary aggregates all runs.
type Summary struct {
	Runs         int     `json:"runs"`
	Frames       int     `json:"frames"`
	Failures     int     `json:"failures"`
	AvgFPS       float64 `json:"avg_fps"`
	TotalSeconds float64 `json:"total_seconds"`
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS export_runs (
		id          TEXT PRIMARY KEY,
		project     TEXT NOT NULL,
		build       TEXT,
		width       INTEGER NOT NULL,
		height      INTEGER NOT NULL,
		fps         INTEGER NOT NULL,
		frames      INTEGER NOT NULL,
		failures    INTEGER NOT NULL DEFAULT 0,
		sink        TEXT NOT NULL,
		total_ns    INTEGER NOT NULL,
		render_ns   INTEGER NOT NULL,
		cpu_seconds REAL NOT NULL DEFAULT 0,
		rss_bytes   INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON export_runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_project ON export_runs(project);
	`)
	return err
}

// Record stores r, assigning an id and timestamp when missing.
func (s *Store) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_runs (id, project, build, width, height, fps, frames, failures, sink,
			total_ns, render_ns, cpu_seconds, rss_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Project, r.Build, r.Width, r.Height, r.FPS, r.Frames, r.Failures, r.Sink,
		int64(r.Total), int64(r.Render), r.CPUSeconds, int64(r.PeakRSSBytes),
		r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return r, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

// Recent returns up to limit runs, newest first. An empty project
// matches every project.
func (s *Store) Recent(ctx context.Context, project string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project, COALESCE(build, ''), width, height, fps, frames, failures, sink,
			total_ns, render_ns, cpu_seconds, rss_bytes, created_at
		FROM export_runs
		WHERE ? = '' OR project = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, project, project, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r             Run
			total, render int64
			rss           int64
			created       string
		)
		if err := rows.Scan(&r.ID, &r.Project, &r.Build, &r.Width, &r.Height, &r.FPS, &r.Frames, &r.Failures,
			&r.Sink, &total, &render, &r.CPUSeconds, &rss, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Total = time.Duration(total)
		r.Render = time.Duration(render)
		r.PeakRSSBytes = uint64(rss)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summarize aggregates every recorded run.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var (
		sum     Summary
		totalNs sql.NullInt64
		frames  sql.NullInt64
		fails   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(frames), SUM(failures), SUM(total_ns) FROM export_runs`).
		Scan(&sum.Runs, &frames, &fails, &totalNs)
	if err != nil {
		return sum, fmt.Errorf("summarize: %w", err)
	}
	sum.Frames = int(frames.Int64)
	sum.Failures = int(fails.Int64)
	sum.TotalSeconds = time.Duration(totalNs.Int64).Seconds()
	if sum.TotalSeconds > 0 {
		sum.AvgFPS = float64(sum.Frames) / sum.TotalSeconds
	}
	return sum, nil
}
