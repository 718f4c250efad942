// Package matching selects the subscribers whose preferences are compatible
// with a posting.
package matching

import (
	"context"
	"errors"
	"fmt"

	"lawjobs-workers/internal/models"
)

var ErrNoTags = errors.New("POSTING_UNCLASSIFIED")

// Criteria is the predicate pushed down to the subscriber store.
type Criteria struct {
	Tags             []models.PracticeArea
	Experience       models.ExperienceBucket
	EmployerCategory models.EmployerCategory
	// Exactly one of SalaryTo and SalaryFrom is used, SalaryTo first.
	SalaryTo   *int
	SalaryFrom *int
}

// CriteriaFor derives the store predicate from a posting.
func CriteriaFor(p *models.Posting) Criteria {
	c := Criteria{
		Tags:             append([]models.PracticeArea(nil), p.Tags...),
		Experience:       p.Experience,
		EmployerCategory: p.EmployerCategory,
	}
	if p.Salary != nil {
		if p.Salary.To != nil {
			c.SalaryTo = p.Salary.To
		} else if p.Salary.From != nil {
			c.SalaryFrom = p.Salary.From
		}
	}
	return c
}

// SubscriberStore returns candidate preferences for the criteria. It may
// return a superset; the engine filters again.
type SubscriberStore interface {
	AllMatching(ctx context.Context, criteria Criteria) ([]models.SubscriberPreference, error)
}

// Matches reports whether a subscriber should receive the posting.
func Matches(p *models.Posting, s *models.SubscriberPreference) bool {
	if p == nil || s == nil {
		return false
	}
	if !overlaps(p.Tags, s.Tags) {
		return false
	}
	if p.Experience != s.Experience {
		return false
	}
	if !containsCategory(s.EmployerCategories, p.EmployerCategory) {
		return false
	}
	return salaryCompatible(p.Salary, s.MinSalary)
}

// An upper bound must reach the minimum. With only a lower bound, the bound
// must not exceed the minimum.
func salaryCompatible(s *models.Salary, minSalary int) bool {
	if s == nil {
		return true
	}
	if s.To != nil {
		return *s.To >= minSalary
	}
	if s.From != nil {
		return *s.From <= minSalary
	}
	return true
}

func overlaps(a []models.PracticeArea, b []models.PracticeArea) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func containsCategory(set []models.EmployerCategory, c models.EmployerCategory) bool {
	for _, x := range set {
		if x == c {
			return true
		}
	}
	return false
}

type Engine struct {
	store SubscriberStore
}

func NewEngine(store SubscriberStore) *Engine {
	return &Engine{store: store}
}

// FindMatchingSubscribers returns the ids of every matching subscriber in
// store order, without duplicates. Store failures are returned unmasked.
func (e *Engine) FindMatchingSubscribers(ctx context.Context, p *models.Posting) ([]int64, error) {
	if p == nil || len(p.Tags) == 0 {
		return nil, ErrNoTags
	}

	candidates, err := e.store.AllMatching(ctx, CriteriaFor(p))
	if err != nil {
		return nil, fmt.Errorf("load subscribers for posting %d: %w", p.ID, err)
	}

	seen := make(map[int64]struct{}, len(candidates))
	ids := make([]int64, 0, len(candidates))
	for i := range candidates {
		s := &candidates[i]
		if _, dup := seen[s.SubscriberID]; dup {
			continue
		}
		if !Matches(p, s) {
			continue
		}
		seen[s.SubscriberID] = struct{}{}
		ids = append(ids, s.SubscriberID)
	}
	return ids, nil
}
