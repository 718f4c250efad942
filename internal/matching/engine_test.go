package matching

import (
	"context"
	"errors"
	"testing"

	"lawjobs-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockSubscriberStore struct {
	AllMatchingFunc func(ctx context.Context, criteria Criteria) ([]models.SubscriberPreference, error)
	calls           []Criteria
}

func (m *MockSubscriberStore) AllMatching(ctx context.Context, criteria Criteria) ([]models.SubscriberPreference, error) {
	m.calls = append(m.calls, criteria)
	return m.AllMatchingFunc(ctx, criteria)
}

func basePosting() *models.Posting {
	return &models.Posting{
		ID:               1,
		Tags:             []models.PracticeArea{models.AreaCorporate},
		Experience:       models.NoExperience,
		EmployerCategory: models.InHouse,
		Salary:           &models.Salary{To: models.IntPtr(150)},
	}
}

func baseSubscriber(id int64, minSalary int) models.SubscriberPreference {
	return models.SubscriberPreference{
		SubscriberID:       id,
		Experience:         models.NoExperience,
		MinSalary:          minSalary,
		Tags:               []models.PracticeArea{models.AreaCorporate, models.AreaIP},
		EmployerCategories: []models.EmployerCategory{models.InHouse},
	}
}

// ==========================
// Predicate Tests
// ==========================

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		posting  func() *models.Posting
		sub      func() models.SubscriberPreference
		expected bool
	}{
		{
			name:     "upper bound reaches minimum",
			posting:  basePosting,
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 100) },
			expected: true,
		},
		{
			name:     "upper bound below minimum",
			posting:  basePosting,
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 200) },
			expected: false,
		},
		{
			name: "no tag overlap",
			posting: func() *models.Posting {
				p := basePosting()
				p.Tags = []models.PracticeArea{models.AreaCivil}
				return p
			},
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 100) },
			expected: false,
		},
		{
			name: "experience must be equal",
			posting: func() *models.Posting {
				p := basePosting()
				p.Experience = models.OneToThree
				return p
			},
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 100) },
			expected: false,
		},
		{
			name: "employer category not desired",
			posting: func() *models.Posting {
				p := basePosting()
				p.EmployerCategory = models.Consulting
				return p
			},
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 100) },
			expected: false,
		},
		{
			name: "lower bound only at or below minimum",
			posting: func() *models.Posting {
				p := basePosting()
				p.Salary = &models.Salary{From: models.IntPtr(50)}
				return p
			},
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 100) },
			expected: true,
		},
		{
			name: "lower bound only above minimum",
			posting: func() *models.Posting {
				p := basePosting()
				p.Salary = &models.Salary{From: models.IntPtr(150)}
				return p
			},
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 100) },
			expected: false,
		},
		{
			name: "upper bound wins over lower bound",
			posting: func() *models.Posting {
				p := basePosting()
				p.Salary = &models.Salary{From: models.IntPtr(500), To: models.IntPtr(600)}
				return p
			},
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 100) },
			expected: true,
		},
		{
			name: "no salary imposes no filter",
			posting: func() *models.Posting {
				p := basePosting()
				p.Salary = nil
				return p
			},
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 1000000) },
			expected: true,
		},
		{
			name: "empty salary imposes no filter",
			posting: func() *models.Posting {
				p := basePosting()
				p.Salary = &models.Salary{}
				return p
			},
			sub:      func() models.SubscriberPreference { return baseSubscriber(1, 1000000) },
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.sub()
			assert.Equal(t, tt.expected, Matches(tt.posting(), &s))
		})
	}
}

func TestCriteriaFor(t *testing.T) {
	p := basePosting()
	p.Salary = &models.Salary{From: models.IntPtr(10), To: models.IntPtr(20)}

	c := CriteriaFor(p)
	require.NotNil(t, c.SalaryTo)
	assert.Equal(t, 20, *c.SalaryTo)
	assert.Nil(t, c.SalaryFrom)

	p.Salary = &models.Salary{From: models.IntPtr(10)}
	c = CriteriaFor(p)
	assert.Nil(t, c.SalaryTo)
	require.NotNil(t, c.SalaryFrom)
	assert.Equal(t, 10, *c.SalaryFrom)

	c.Tags[0] = models.AreaBanking
	assert.Equal(t, models.AreaCorporate, p.Tags[0])
}

// ==========================
// Engine Tests
// ==========================

func TestEngine_FindMatchingSubscribers(t *testing.T) {
	store := &MockSubscriberStore{
		AllMatchingFunc: func(ctx context.Context, criteria Criteria) ([]models.SubscriberPreference, error) {
			return []models.SubscriberPreference{
				baseSubscriber(10, 100),
				baseSubscriber(20, 200),
				baseSubscriber(30, 50),
				baseSubscriber(10, 100),
			}, nil
		},
	}

	ids, err := NewEngine(store).FindMatchingSubscribers(context.Background(), basePosting())
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 30}, ids)

	require.Len(t, store.calls, 1)
	assert.Equal(t, models.NoExperience, store.calls[0].Experience)
	assert.Equal(t, models.InHouse, store.calls[0].EmployerCategory)
	assert.Equal(t, 150, *store.calls[0].SalaryTo)
}

func TestEngine_FindMatchingSubscribers_NoCandidates(t *testing.T) {
	store := &MockSubscriberStore{
		AllMatchingFunc: func(ctx context.Context, criteria Criteria) ([]models.SubscriberPreference, error) {
			return nil, nil
		},
	}

	ids, err := NewEngine(store).FindMatchingSubscribers(context.Background(), basePosting())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestEngine_FindMatchingSubscribers_RejectsUntagged(t *testing.T) {
	store := &MockSubscriberStore{}
	p := basePosting()
	p.Tags = nil

	_, err := NewEngine(store).FindMatchingSubscribers(context.Background(), p)
	assert.ErrorIs(t, err, ErrNoTags)
	assert.Empty(t, store.calls)
}

func TestEngine_FindMatchingSubscribers_StoreError(t *testing.T) {
	storeErr := errors.New("db down")
	store := &MockSubscriberStore{
		AllMatchingFunc: func(ctx context.Context, criteria Criteria) ([]models.SubscriberPreference, error) {
			return nil, storeErr
		},
	}

	_, err := NewEngine(store).FindMatchingSubscribers(context.Background(), basePosting())
	assert.ErrorIs(t, err, storeErr)
}
