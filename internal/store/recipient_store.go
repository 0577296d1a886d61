package store

import (
	"context"
	"fmt"

	"github.com/nhle/mailcal/internal/model"
)

// ReplaceRecipients swaps the cached recipient list for recipients.
func (s *SQLiteStore) ReplaceRecipients(ctx context.Context, recipients []model.Recipient) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM recipients"); err != nil {
		return fmt.Errorf("clearing recipients: %w", err)
	}

	if len(recipients) > 0 {
		stmt, err := tx.PreparexContext(ctx,
			"INSERT OR REPLACE INTO recipients (id, email) VALUES (?, ?)",
		)
		if err != nil {
			return fmt.Errorf("preparing recipient insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range recipients {
			if _, err := stmt.ExecContext(ctx, r.ID, r.Email); err != nil {
				return fmt.Errorf("inserting recipient %d: %w", r.ID, err)
			}
		}
	}

	return tx.Commit()
}

// GetRecipients returns the cached recipients ordered by email.
func (s *SQLiteStore) GetRecipients(ctx context.Context) ([]model.Recipient, error) {
	var recipients []model.Recipient
	err := s.db.SelectContext(ctx, &recipients,
		"SELECT id, email FROM recipients ORDER BY email, id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying recipients: %w", err)
	}
	return recipients, nil
}
