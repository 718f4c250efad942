package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"lawjobs-workers/internal/models"
)

const postingColumns = `id, title, url, employer_name, employer_category, experience, salary,
	address, metro_stations, tags, description, sent, from_admin, created_at`

// PostingStore persists postings. The primary key on id makes ingestion
// idempotent.
type PostingStore struct {
	db *sql.DB
}

func NewPostingStore(db *sql.DB) *PostingStore {
	return &PostingStore{db: db}
}

func (s *PostingStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM postings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: posting exists check: %v", ErrQueryFailed, err)
	}
	return exists, nil
}

// Insert stores p unless its id is already taken. It reports whether a row
// was written.
func (s *PostingStore) Insert(ctx context.Context, p *models.Posting) (bool, error) {
	salary, err := encodeSalary(p.Salary)
	if err != nil {
		return false, fmt.Errorf("%w: encode salary: %v", ErrInsertFailed, err)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO postings (
			id, title, url, employer_name, employer_category, experience, salary,
			address, metro_stations, tags, description, sent, from_admin, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		p.ID,
		p.Title,
		p.URL,
		p.EmployerName,
		string(p.EmployerCategory),
		string(p.Experience),
		salary,
		p.Address,
		pq.Array(nonNil(p.MetroStations)),
		pq.Array(areasToStrings(p.Tags)),
		p.Description,
		p.FromAdmin,
		createdAt,
	)
	if err != nil {
		return false, fmt.Errorf("%w: insert posting %d: %v", ErrInsertFailed, p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrInsertFailed, err)
	}
	return n > 0, nil
}

// GetByID returns (nil, nil) when the posting does not exist.
func (s *PostingStore) GetByID(ctx context.Context, id int64) (*models.Posting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postingColumns+` FROM postings WHERE id = $1`, id)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get posting %d: %v", ErrQueryFailed, id, err)
	}
	return p, nil
}

// FindUnsent lists ids of postings not yet distributed, oldest first.
func (s *PostingStore) FindUnsent(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM postings WHERE NOT sent ORDER BY created_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: find unsent: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan unsent: %v", ErrQueryFailed, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate unsent: %v", ErrQueryFailed, err)
	}
	return ids, nil
}

// MarkSent flips the sent flag once. It reports false when the posting was
// already sent or does not exist.
func (s *PostingStore) MarkSent(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE postings SET sent = TRUE, sent_at = NOW() WHERE id = $1 AND NOT sent`, id)
	if err != nil {
		return false, fmt.Errorf("%w: mark sent %d: %v", ErrQueryFailed, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrQueryFailed, err)
	}
	return n > 0, nil
}

// CountByState returns the number of sent and unsent postings.
func (s *PostingStore) CountByState(ctx context.Context) (sent, unsent int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE sent), COUNT(*) FILTER (WHERE NOT sent)
		FROM postings`).Scan(&sent, &unsent)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: count postings: %v", ErrQueryFailed, err)
	}
	return sent, unsent, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosting(row rowScanner) (*models.Posting, error) {
	var (
		p             models.Posting
		category      string
		experience    string
		salary        []byte
		metroStations []string
		tags          []string
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.URL,
		&p.EmployerName,
		&category,
		&experience,
		&salary,
		&p.Address,
		pq.Array(&metroStations),
		pq.Array(&tags),
		&p.Description,
		&p.Sent,
		&p.FromAdmin,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.EmployerCategory = models.EmployerCategory(category)
	p.Experience = models.ExperienceBucket(experience)
	p.MetroStations = metroStations
	p.Tags = stringsToAreas(tags)
	if p.Salary, err = decodeSalary(salary); err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeSalary(s *models.Salary) (interface{}, error) {
	if s.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(s)
}

func decodeSalary(raw []byte) (*models.Salary, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s models.Salary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode salary: %w", err)
	}
	if s.IsEmpty() {
		return nil, nil
	}
	return &s, nil
}

// nonNil keeps NOT NULL array columns from receiving NULL: pq encodes a nil
// slice as NULL and an empty one as '{}'.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func areasToStrings(areas []models.PracticeArea) []string {
	out := make([]string, len(areas))
	for i, a := range areas {
		out[i] = string(a)
	}
	return out
}

func stringsToAreas(values []string) []models.PracticeArea {
	out := make([]models.PracticeArea, len(values))
	for i, v := range values {
		out[i] = models.PracticeArea(v)
	}
	return out
}

func categoriesToStrings(cats []models.EmployerCategory) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func stringsToCategories(values []string) []models.EmployerCategory {
	out := make([]models.EmployerCategory, len(values))
	for i, v := range values {
		out[i] = models.EmployerCategory(v)
	}
	return out
}
