package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mailcal/internal/model"
)

// RecordActivity appends an entry to the activity log. A missing ID or
// timestamp is filled in.
func (s *SQLiteStore) RecordActivity(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity (id, kind, message_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Kind, a.MessageID, a.Detail, a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s activity: %w", a.Kind, err)
	}
	return nil
}

// GetActivity returns the most recent activity first. A limit of zero or
// less returns everything.
func (s *SQLiteStore) GetActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	query := `
		SELECT id, kind, message_id, detail, created_at
		FROM activity
		ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var out []model.Activity
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	return out, nil
}
