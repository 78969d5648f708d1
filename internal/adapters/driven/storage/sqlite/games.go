package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
)

// maxQueryParams keeps IN lists well below SQLite's variable limit.
const maxQueryParams = 500

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// gameStore implements driven.GameStore.
type gameStore struct {
	store *Store
}

var _ driven.GameStore = (*gameStore)(nil)

// SaveGame stores or updates a game. A change to the text or synopsis
// clears the indexed-at timestamp so the next build picks the game up.
func (s *gameStore) SaveGame(ctx context.Context, game domain.Game) error {
	if game.ID == "" {
		return fmt.Errorf("%w: game id is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO games (id, title, url, full_text, summary, source_hash, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			full_text = excluded.full_text,
			summary = excluded.summary,
			last_indexed_at = CASE
				WHEN games.source_hash = excluded.source_hash THEN games.last_indexed_at
				ELSE NULL
			END,
			source_hash = excluded.source_hash,
			updated_at = excluded.updated_at
	`, game.ID, game.Title, game.URL, game.Text, game.Summary, game.ContentHash(),
		formatTimePtr(game.IndexedAt), now, now)

	if err != nil {
		return fmt.Errorf("saving game: %w", err)
	}
	return nil
}

// GetGames returns the games with the given ids keyed by id.
func (s *gameStore) GetGames(ctx context.Context, ids []string) (map[string]domain.Game, error) {
	games := make(map[string]domain.Game, len(ids))

	for start := 0; start < len(ids); start += maxQueryParams {
		end := min(start+maxQueryParams, len(ids))
		batch := ids[start:end]

		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		rows, err := s.store.db.QueryContext(ctx, `
			SELECT id, title, url, full_text, summary, last_indexed_at
			FROM games WHERE id IN (`+placeholders(len(batch))+`)
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying games: %w", err)
		}

		err = scanGames(rows, func(g domain.Game) { games[g.ID] = g })
		rows.Close()
		if err != nil {
			return nil, err
		}
	}

	return games, nil
}

// ListIndexable returns games with text or a synopsis, ordered by id.
func (s *gameStore) ListIndexable(ctx context.Context, staleOnly bool) ([]domain.Game, error) {
	query := `
		SELECT id, title, url, full_text, summary, last_indexed_at
		FROM games
		WHERE (full_text != '' OR summary != '')`
	if staleOnly {
		query += ` AND last_indexed_at IS NULL`
	}
	query += ` ORDER BY id`

	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying indexable games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game //nolint:prealloc // size unknown from query
	if err := scanGames(rows, func(g domain.Game) { games = append(games, g) }); err != nil {
		return nil, err
	}
	return games, nil
}

// MarkIndexed stamps the given games with at. A row is stamped only while
// its stored content still hashes the same as the snapshot the build
// embedded; a game edited mid-build stays stale.
func (s *gameStore) MarkIndexed(ctx context.Context, games []domain.Game, at time.Time) error {
	if len(games) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE games SET last_indexed_at = ? WHERE id = ? AND source_hash = ?`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	stamp := at.UTC().Format(timeLayout)
	for _, g := range games {
		if _, err := stmt.ExecContext(ctx, stamp, g.ID, g.ContentHash()); err != nil {
			return fmt.Errorf("marking game %s indexed: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ResetIndexed clears every indexed-at timestamp.
func (s *gameStore) ResetIndexed(ctx context.Context) (int, error) {
	res, err := s.store.db.ExecContext(ctx,
		`UPDATE games SET last_indexed_at = NULL WHERE last_indexed_at IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("resetting index status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting reset games: %w", err)
	}
	return int(n), nil
}

// Stats summarises the store.
func (s *gameStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.store.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN full_text != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN summary != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN last_indexed_at IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM games
	`).Scan(&stats.Total, &stats.WithText, &stats.WithSummary, &stats.Indexed)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return stats, nil
}

// List returns every game ordered by title.
func (s *gameStore) List(ctx context.Context) ([]domain.GameListing, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, summary, last_indexed_at IS NOT NULL
		FROM games ORDER BY title, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var listing []domain.GameListing //nolint:prealloc // size unknown from query
	for rows.Next() {
		var g domain.GameListing
		var indexed int
		if err := rows.Scan(&g.ID, &g.Title, &g.Summary, &indexed); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		g.HasSummary = g.Summary != ""
		g.IsIndexed = indexed == 1
		listing = append(listing, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating games: %w", err)
	}
	return listing, nil
}

// Close is a no-op; the owning Store closes the connection.
func (s *gameStore) Close() error {
	return nil
}

// ==================== Helper Functions ====================

// scanGames scans every row and hands each game to fn.
func scanGames(rows *sql.Rows, fn func(domain.Game)) error {
	for rows.Next() {
		var g domain.Game
		var indexedAt sql.NullString
		if err := rows.Scan(&g.ID, &g.Title, &g.URL, &g.Text, &g.Summary, &indexedAt); err != nil {
			return fmt.Errorf("scanning game: %w", err)
		}
		if t := parseNullableTime(indexedAt); !t.IsZero() {
			g.IndexedAt = &t
		}
		fn(g)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating games: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// formatTimePtr formats a time pointer for storage, or returns nil.
func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// parseNullableTime parses a nullable RFC3339 string to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{} // Return zero time on parse error
	}
	return t
}
