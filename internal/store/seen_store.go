package store

import (
	"context"
	"fmt"
)

// MarkSeen records ids as seen and returns the ones that were not seen
// before, in input order.
func (s *SQLiteStore) MarkSeen(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		"INSERT OR IGNORE INTO seen_messages (message_id) VALUES (?)",
	)
	if err != nil {
		return nil, fmt.Errorf("preparing seen insert: %w", err)
	}
	defer stmt.Close()

	var fresh []int64
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("marking message %d seen: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("checking rows affected: %w", err)
		}
		if n > 0 {
			fresh = append(fresh, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing seen messages: %w", err)
	}
	return fresh, nil
}

// CountSeen returns how many message ids have been recorded.
func (s *SQLiteStore) CountSeen(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM seen_messages"); err != nil {
		return 0, fmt.Errorf("counting seen messages: %w", err)
	}
	return n, nil
}
