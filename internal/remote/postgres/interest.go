package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/parley-app/parley/internal/model"
)

var _ model.InterestStore = (*InterestRepository)(nil)

type InterestRepository struct {
	db *Connection
}

func NewInterestRepository(db *Connection) *InterestRepository {
	return &InterestRepository{
		db: db,
	}
}

// ListByUserID returns the user's interests in insertion order.
func (r *InterestRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `SELECT interest FROM interests WHERE user_id = $1 ORDER BY position`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interests: %w", err)
	}
	defer rows.Close()

	var interests []string
	for rows.Next() {
		var interest string
		if err := rows.Scan(&interest); err != nil {
			return nil, fmt.Errorf("failed to scan interest: %w", err)
		}
		interests = append(interests, interest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interests: %w", err)
	}

	return interests, nil
}

// ReplaceForUser replaces the user's interest rows with the given list:
// delete all, then insert in order. An empty list is a delete-only clear.
// Both steps run in one transaction.
func (r *InterestRepository) ReplaceForUser(ctx context.Context, userID uuid.UUID, interests []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin interests transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM interests WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete interests: %w", err)
	}

	for i, interest := range interests {
		_, err := tx.Exec(ctx,
			`INSERT INTO interests (user_id, interest, position) VALUES ($1, $2, $3)`,
			userID, interest, i)
		if err != nil {
			return fmt.Errorf("failed to insert interest: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit interests transaction: %w", err)
	}

	return nil
}
