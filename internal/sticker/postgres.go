package sticker

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/stickerkid/internal/fuzzy"
	"github.com/m3rciful/stickerkid/internal/logger"
	"log/slog"
)

// PostgresStore persists sticker collections in the stickers table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open sqlx handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// insertQuery assigns the next local id and inserts in one statement, so a
// crashed or concurrent request can never observe a half-written row. The
// per-owner session serialization guarantees two inserts for the same
// owner are never in flight at once.
const insertQuery = `
INSERT INTO stickers (owner_id, local_id, display_name, sticker_ref)
SELECT $1, COALESCE(MAX(local_id), 0) + 1, $2, $3
FROM stickers WHERE owner_id = $1
RETURNING local_id`

// Insert persists a new sticker and returns its assigned local id.
func (s *PostgresStore) Insert(ctx context.Context, owner int64, name, ref string) (int64, error) {
	start := time.Now()
	var localID int64
	if err := s.db.GetContext(ctx, &localID, insertQuery, owner, name, ref); err != nil {
		logger.SVCStickers.Error("insert failed",
			slog.String("event", "store.insert"),
			slog.Int64("owner_id", owner),
			slog.String("err", err.Error()),
		)
		return 0, &StorageError{Op: "insert", Err: err}
	}
	logger.SVCStickers.Debug("sticker inserted",
		slog.String("event", "store.insert"),
		slog.Int64("owner_id", owner),
		slog.Int64("local_id", localID),
		slog.Duration("duration", logger.Took(start)),
	)
	return localID, nil
}

// List returns the owner's stickers ordered by local id ascending.
func (s *PostgresStore) List(ctx context.Context, owner int64) ([]Sticker, error) {
	var rows []Sticker
	err := s.db.SelectContext(ctx, &rows,
		`SELECT owner_id, local_id, display_name, sticker_ref
		 FROM stickers WHERE owner_id = $1 ORDER BY local_id`, owner)
	if err != nil {
		logger.SVCStickers.Error("list failed",
			slog.String("event", "store.list"),
			slog.Int64("owner_id", owner),
			slog.String("err", err.Error()),
		)
		return nil, &StorageError{Op: "list", Err: err}
	}
	return rows, nil
}

// Delete removes the row matching owner and local id and reports whether a
// row existed.
func (s *PostgresStore) Delete(ctx context.Context, owner, localID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM stickers WHERE owner_id = $1 AND local_id = $2`, owner, localID)
	if err != nil {
		logger.SVCStickers.Error("delete failed",
			slog.String("event", "store.delete"),
			slog.Int64("owner_id", owner),
			slog.Int64("local_id", localID),
			slog.String("err", err.Error()),
		)
		return false, &StorageError{Op: "delete", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, &StorageError{Op: "delete", Err: err}
	}
	return affected > 0, nil
}

// Search scans the owner's collection and keeps names whose partial-ratio
// score against the query exceeds SearchThreshold, best first.
func (s *PostgresStore) Search(ctx context.Context, owner int64, query string) ([]Match, error) {
	rows, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return rankMatches(rows, query), nil
}

// Count returns the total number of stored stickers.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM stickers`); err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// rankMatches is shared by the postgres and memory stores: fuzzy scoring
// happens in process, the storage layer only supplies the candidate rows.
func rankMatches(rows []Sticker, query string) []Match {
	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		score := fuzzy.PartialRatio(query, row.Name)
		if score > SearchThreshold {
			matches = append(matches, Match{Sticker: row, Score: score})
		}
	}
	// Stable keeps list order among equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
