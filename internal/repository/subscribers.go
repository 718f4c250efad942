package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"lawjobs-workers/internal/matching"
	"lawjobs-workers/internal/models"
)

const subscriberColumns = `telegram_id, username, experience, min_salary, tags,
	employer_categories, is_admin, updated_at`

type SubscriberStore struct {
	db *sql.DB
}

func NewSubscriberStore(db *sql.DB) *SubscriberStore {
	return &SubscriberStore{db: db}
}

// AllMatching pushes the match predicate down to SQL. The salary clause
// depends on which bound the posting carries.
func (s *SubscriberStore) AllMatching(ctx context.Context, c matching.Criteria) ([]models.SubscriberPreference, error) {
	query, args := buildMatchQuery(c)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query matching subscribers: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	out := make([]models.SubscriberPreference, 0)
	for rows.Next() {
		pref, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan subscriber: %v", ErrQueryFailed, err)
		}
		out = append(out, *pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate subscribers: %v", ErrQueryFailed, err)
	}
	return out, nil
}

func buildMatchQuery(c matching.Criteria) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT ` + subscriberColumns + ` FROM subscribers
		WHERE tags && $1 AND experience = $2 AND $3 = ANY(employer_categories)`)
	args := []interface{}{
		pq.Array(areasToStrings(c.Tags)),
		string(c.Experience),
		string(c.EmployerCategory),
	}

	switch {
	case c.SalaryTo != nil:
		b.WriteString(` AND min_salary <= $4`)
		args = append(args, *c.SalaryTo)
	case c.SalaryFrom != nil:
		b.WriteString(` AND min_salary >= $4`)
		args = append(args, *c.SalaryFrom)
	}
	b.WriteString(` ORDER BY telegram_id`)
	return b.String(), args
}

// Get returns (nil, nil) for an unknown subscriber.
func (s *SubscriberStore) Get(ctx context.Context, id int64) (*models.SubscriberPreference, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE telegram_id = $1`, id)
	pref, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get subscriber %d: %v", ErrQueryFailed, id, err)
	}
	return pref, nil
}

func (s *SubscriberStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM subscribers WHERE telegram_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: subscriber exists check: %v", ErrQueryFailed, err)
	}
	return exists, nil
}

// Upsert replaces every preference field. The admin flag survives
// re-registration.
func (s *SubscriberStore) Upsert(ctx context.Context, p *models.SubscriberPreference) error {
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscribers (
			telegram_id, username, experience, min_salary, tags, employer_categories,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			experience = EXCLUDED.experience,
			min_salary = EXCLUDED.min_salary,
			tags = EXCLUDED.tags,
			employer_categories = EXCLUDED.employer_categories,
			updated_at = EXCLUDED.updated_at`,
		p.SubscriberID,
		p.Username,
		string(p.Experience),
		p.MinSalary,
		pq.Array(areasToStrings(p.Tags)),
		pq.Array(categoriesToStrings(p.EmployerCategories)),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert subscriber %d: %v", ErrInsertFailed, p.SubscriberID, err)
	}
	return nil
}

// SetAdmin reports whether the flag actually changed.
func (s *SubscriberStore) SetAdmin(ctx context.Context, id int64, admin bool) (bool, error) {
	var previous bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_admin FROM subscribers WHERE telegram_id = $1`, id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %d", ErrSubscriberNotFound, id)
	}
	if err != nil {
		return false, fmt.Errorf("%w: read admin flag: %v", ErrQueryFailed, err)
	}
	if previous == admin {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE subscribers SET is_admin = $2, updated_at = NOW() WHERE telegram_id = $1`, id, admin)
	if err != nil {
		return false, fmt.Errorf("%w: set admin flag: %v", ErrQueryFailed, err)
	}
	return true, nil
}

// IsAdmin is false for unknown subscribers.
func (s *SubscriberStore) IsAdmin(ctx context.Context, id int64) (bool, error) {
	var admin bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_admin FROM subscribers WHERE telegram_id = $1`, id).Scan(&admin)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: admin check: %v", ErrQueryFailed, err)
	}
	return admin, nil
}

// Count returns the number of registered subscribers.
func (s *SubscriberStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count subscribers: %v", ErrQueryFailed, err)
	}
	return n, nil
}

func scanSubscriber(row rowScanner) (*models.SubscriberPreference, error) {
	var (
		p          models.SubscriberPreference
		experience string
		tags       []string
		categories []string
	)
	err := row.Scan(
		&p.SubscriberID,
		&p.Username,
		&experience,
		&p.MinSalary,
		pq.Array(&tags),
		pq.Array(&categories),
		&p.IsAdmin,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Experience = models.ExperienceBucket(experience)
	p.Tags = stringsToAreas(tags)
	p.EmployerCategories = stringsToCategories(categories)
	return &p, nil
}
