package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/cases"

	"lawjobs-workers/internal/models"
)

const (
	employerTypesCacheKey = "employer_types:v1"
	employerTypesCacheTTL = time.Hour
)

// EmployerTypeStore serves the small employer category lookup table from a
// Redis cache backed by PostgreSQL.
type EmployerTypeStore struct {
	db    *sql.DB
	redis *redis.Client
}

func NewEmployerTypeStore(db *sql.DB, redisClient *redis.Client) *EmployerTypeStore {
	return &EmployerTypeStore{
		db:    db,
		redis: redisClient,
	}
}

// ByID returns (nil, nil) when no row has the id.
func (s *EmployerTypeStore) ByID(ctx context.Context, id int) (*models.EmployerType, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// ByName matches names case-insensitively and returns (nil, nil) on a miss.
func (s *EmployerTypeStore) ByName(ctx context.Context, name string) (*models.EmployerType, error) {
	want := foldName(name)
	if want == "" {
		return nil, nil
	}
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if foldName(all[i].Name) == want || foldName(string(all[i].Category)) == want {
			return &all[i], nil
		}
	}
	return nil, nil
}

// All lists every employer type ordered by id. A cache failure falls back to
// the database.
func (s *EmployerTypeStore) All(ctx context.Context) ([]models.EmployerType, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, employerTypesCacheKey).Result()
		if err == nil {
			var types []models.EmployerType
			if jsonErr := json.Unmarshal([]byte(cached), &types); jsonErr == nil {
				return types, nil
			}
		}
	}

	types, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(types); err == nil {
			_ = s.redis.Set(ctx, employerTypesCacheKey, data, employerTypesCacheTTL).Err()
		}
	}
	return types, nil
}

// Invalidate drops the cached table.
func (s *EmployerTypeStore) Invalidate(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, employerTypesCacheKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: invalidate employer types: %v", ErrCacheFailed, err)
	}
	return nil
}

func (s *EmployerTypeStore) load(ctx context.Context) ([]models.EmployerType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, category FROM employer_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: load employer types: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	types := make([]models.EmployerType, 0, 2)
	for rows.Next() {
		var (
			t        models.EmployerType
			category string
		)
		if err := rows.Scan(&t.ID, &t.Name, &category); err != nil {
			return nil, fmt.Errorf("%w: scan employer type: %v", ErrQueryFailed, err)
		}
		t.Category = models.EmployerCategory(category)
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate employer types: %v", ErrQueryFailed, err)
	}
	return types, nil
}

// A Caser keeps state between calls, so each fold gets its own.
func foldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
