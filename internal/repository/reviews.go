package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lawjobs-workers/internal/models"
)

type ReviewStore struct {
	db *sql.DB
}

func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func (s *ReviewStore) Add(ctx context.Context, reviewerID int64, description string) (*models.Review, error) {
	r := &models.Review{
		ID:          uuid.New().String(),
		ReviewerID:  reviewerID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, reviewer_id, description, resolved, created_at)
		VALUES ($1, $2, $3, FALSE, $4)`,
		r.ID, r.ReviewerID, r.Description, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert review: %v", ErrInsertFailed, err)
	}
	return r, nil
}

// RandomUnresolved returns (nil, nil) when every review is resolved.
func (s *ReviewStore) RandomUnresolved(ctx context.Context) (*models.Review, error) {
	var r models.Review
	err := s.db.QueryRowContext(ctx, `
		SELECT id, reviewer_id, description, created_at
		FROM reviews WHERE NOT resolved
		ORDER BY random() LIMIT 1`).Scan(&r.ID, &r.ReviewerID, &r.Description, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: pick review: %v", ErrQueryFailed, err)
	}
	return &r, nil
}

// Resolve marks the review handled by adminID. Resolving twice is a no-op.
func (s *ReviewStore) Resolve(ctx context.Context, id string, adminID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reviews SET resolved = TRUE, admin_id = COALESCE(admin_id, $2),
			resolved_at = COALESCE(resolved_at, NOW())
		WHERE id = $1`, id, adminID)
	if err != nil {
		return fmt.Errorf("%w: resolve review: %v", ErrQueryFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", ErrQueryFailed, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrReviewNotFound, id)
	}
	return nil
}
