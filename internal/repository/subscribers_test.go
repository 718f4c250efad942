package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawjobs-workers/internal/matching"
	"lawjobs-workers/internal/models"
)

var subscriberRowColumns = []string{
	"telegram_id", "username", "experience", "min_salary", "tags",
	"employer_categories", "is_admin", "updated_at",
}

func TestBuildMatchQuery(t *testing.T) {
	base := matching.Criteria{
		Tags:             []models.PracticeArea{models.AreaIP},
		Experience:       models.NoExperience,
		EmployerCategory: models.InHouse,
	}

	t.Run("no salary adds no clause", func(t *testing.T) {
		query, args := buildMatchQuery(base)
		assert.NotContains(t, query, "min_salary <=")
		assert.NotContains(t, query, "min_salary >=")
		assert.Len(t, args, 3)
	})

	t.Run("upper bound wins", func(t *testing.T) {
		c := base
		c.SalaryTo = models.IntPtr(200)
		query, args := buildMatchQuery(c)
		assert.Contains(t, query, "min_salary <= $4")
		require.Len(t, args, 4)
		assert.Equal(t, 200, args[3])
	})

	t.Run("lower bound only", func(t *testing.T) {
		c := base
		c.SalaryFrom = models.IntPtr(50)
		query, args := buildMatchQuery(c)
		assert.Contains(t, query, "min_salary >= $4")
		assert.Equal(t, 50, args[3])
	})
}

func TestSubscriberStore_AllMatching(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM subscribers").
		WithArgs(sqlmock.AnyArg(), "one_to_three", "consulting", 150000).
		WillReturnRows(sqlmock.NewRows(subscriberRowColumns).
			AddRow(int64(10), "anna", "one_to_three", 100000, "{corporate}", "{consulting,in_house}", false, now).
			AddRow(int64(30), "", "one_to_three", 15000, "{corporate,ip}", "{consulting}", true, now))

	prefs, err := NewSubscriberStore(db).AllMatching(context.Background(), matching.Criteria{
		Tags:             []models.PracticeArea{models.AreaCorporate},
		Experience:       models.OneToThree,
		EmployerCategory: models.Consulting,
		SalaryTo:         models.IntPtr(150000),
	})
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, int64(10), prefs[0].SubscriberID)
	assert.Equal(t, []models.EmployerCategory{models.Consulting, models.InHouse}, prefs[0].EmployerCategories)
	assert.Equal(t, []models.PracticeArea{models.AreaCorporate, models.AreaIP}, prefs[1].Tags)
	assert.True(t, prefs[1].IsAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberStore_AllMatching_QueryError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM subscribers").WillReturnError(errors.New("timeout"))

	_, err := NewSubscriberStore(db).AllMatching(context.Background(), matching.Criteria{})
	assert.ErrorIs(t, err, ErrQueryFailed)
}

func TestSubscriberStore_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	updated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("ON CONFLICT \\(telegram_id\\) DO UPDATE").
		WithArgs(int64(5), "user", "no_experience", 30000, sqlmock.AnyArg(), sqlmock.AnyArg(), updated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewSubscriberStore(db).Upsert(context.Background(), &models.SubscriberPreference{
		SubscriberID:       5,
		Username:           "user",
		Experience:         models.NoExperience,
		MinSalary:          30000,
		Tags:               []models.PracticeArea{models.AreaCivil},
		EmployerCategories: []models.EmployerCategory{models.InHouse},
		UpdatedAt:          updated,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberStore_SetAdmin(t *testing.T) {
	t.Run("unknown subscriber", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT is_admin").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

		_, err := NewSubscriberStore(db).SetAdmin(context.Background(), 9, true)
		assert.ErrorIs(t, err, ErrSubscriberNotFound)
	})

	t.Run("already admin", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT is_admin").
			WillReturnRows(sqlmock.NewRows([]string{"is_admin"}).AddRow(true))

		changed, err := NewSubscriberStore(db).SetAdmin(context.Background(), 9, true)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("granted", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT is_admin").
			WillReturnRows(sqlmock.NewRows([]string{"is_admin"}).AddRow(false))
		mock.ExpectExec("UPDATE subscribers SET is_admin").
			WithArgs(int64(9), true).
			WillReturnResult(sqlmock.NewResult(0, 1))

		changed, err := NewSubscriberStore(db).SetAdmin(context.Background(), 9, true)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubscriberStore_IsAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT is_admin").WillReturnError(sql.ErrNoRows)

	admin, err := NewSubscriberStore(db).IsAdmin(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestSubscriberStore_Get(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM subscribers WHERE telegram_id").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(subscriberRowColumns).
			AddRow(int64(3), "u", "no_experience", 0, "{}", "{in_house}", false, time.Now()))

	pref, err := NewSubscriberStore(db).Get(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Empty(t, pref.Tags)
	assert.Equal(t, []models.EmployerCategory{models.InHouse}, pref.EmployerCategories)
}
