package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockAdminLookup struct {
	IsAdminFunc func(ctx context.Context, subscriberID int64) (bool, error)
}

func (m *MockAdminLookup) IsAdmin(ctx context.Context, subscriberID int64) (bool, error) {
	return m.IsAdminFunc(ctx, subscriberID)
}

func newTestChecker() *Checker {
	return NewChecker([]int64{1}, &MockAdminLookup{
		IsAdminFunc: func(ctx context.Context, id int64) (bool, error) {
			return id == 2, nil
		},
	})
}

func TestChecker_Can(t *testing.T) {
	tests := []struct {
		name       string
		actor      int64
		capability Capability
		expected   bool
	}{
		{name: "superuser manages admins", actor: 1, capability: ManageAdmins, expected: true},
		{name: "superuser submits postings", actor: 1, capability: SubmitPosting, expected: true},
		{name: "admin submits postings", actor: 2, capability: SubmitPosting, expected: true},
		{name: "admin manages reviews", actor: 2, capability: ManageReviews, expected: true},
		{name: "admin cannot manage admins", actor: 2, capability: ManageAdmins, expected: false},
		{name: "regular user denied", actor: 3, capability: SubmitPosting, expected: false},
	}

	c := newTestChecker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := c.Can(context.Background(), tt.actor, tt.capability)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestChecker_Require(t *testing.T) {
	c := newTestChecker()

	assert.NoError(t, c.Require(context.Background(), 2, ManageReviews))

	err := c.Require(context.Background(), 3, ManageReviews)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestChecker_LookupError(t *testing.T) {
	lookupErr := errors.New("db down")
	c := NewChecker(nil, &MockAdminLookup{
		IsAdminFunc: func(ctx context.Context, id int64) (bool, error) {
			return false, lookupErr
		},
	})

	err := c.Require(context.Background(), 5, SubmitPosting)
	assert.ErrorIs(t, err, lookupErr)
	assert.NotErrorIs(t, err, ErrAccessDenied)
}
