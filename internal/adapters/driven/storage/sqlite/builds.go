package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
)

// buildHistory implements driven.BuildHistory.
type buildHistory struct {
	store *Store
}

var _ driven.BuildHistory = (*buildHistory)(nil)

// RecordBuild stores a finished build report.
func (s *buildHistory) RecordBuild(ctx context.Context, r *domain.BuildReport) error {
	if r == nil || r.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO index_builds (id, requested, mode, escalated, started_at, finished_at,
			games, chunks, embedded, failed, indexed, total_vectors, written)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode,
			escalated = excluded.escalated,
			finished_at = excluded.finished_at,
			games = excluded.games,
			chunks = excluded.chunks,
			embedded = excluded.embedded,
			failed = excluded.failed,
			indexed = excluded.indexed,
			total_vectors = excluded.total_vectors,
			written = excluded.written
	`, r.ID, string(r.Requested), string(r.Mode), boolToInt(r.Escalated),
		r.StartedAt.UTC().Format(timeLayout), formatNullableTime(r.FinishedAt),
		r.Games, r.Chunks, r.Embedded, r.Failed, r.Indexed, r.TotalVectors, boolToInt(r.Written))

	if err != nil {
		return fmt.Errorf("recording build: %w", err)
	}
	return nil
}

// RecentBuilds returns the latest builds, most recent first.
func (s *buildHistory) RecentBuilds(ctx context.Context, limit int) ([]domain.BuildReport, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, requested, mode, escalated, started_at, finished_at,
			games, chunks, embedded, failed, indexed, total_vectors, written
		FROM index_builds
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying builds: %w", err)
	}
	defer rows.Close()

	var reports []domain.BuildReport //nolint:prealloc // size unknown from query
	for rows.Next() {
		r, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating builds: %w", err)
	}
	return reports, nil
}

// scanBuild scans a build report from *sql.Rows.
func scanBuild(rows *sql.Rows) (*domain.BuildReport, error) {
	var r domain.BuildReport
	var requested, mode, startedAt string
	var finishedAt sql.NullString
	var escalated, written int

	if err := rows.Scan(&r.ID, &requested, &mode, &escalated, &startedAt, &finishedAt,
		&r.Games, &r.Chunks, &r.Embedded, &r.Failed, &r.Indexed, &r.TotalVectors, &written); err != nil {
		return nil, fmt.Errorf("scanning build: %w", err)
	}

	r.Requested = domain.BuildMode(requested)
	r.Mode = domain.BuildMode(mode)
	r.Escalated = escalated == 1
	r.Written = written == 1
	if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		r.StartedAt = t
	}
	r.FinishedAt = parseNullableTime(finishedAt)

	return &r, nil
}

// formatNullableTime formats a time to RFC3339 string, or returns nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
