package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawjobs-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func createTestPosting() *models.Posting {
	return &models.Posting{
		ID:               42,
		Title:            "Юрист",
		URL:              "https://hh.ru/vacancy/42",
		EmployerName:     "ООО Ромашка",
		EmployerCategory: models.Consulting,
		Experience:       models.OneToThree,
		Salary:           &models.Salary{From: models.IntPtr(100000)},
		MetroStations:    []string{"Арбатская"},
		Tags:             []models.PracticeArea{models.AreaCorporate, models.AreaCivil},
		Description:      "Сопровождение M&A сделок",
		CreatedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// arrayLiteral matches a pq array argument by its encoded form.
type arrayLiteral string

func (a arrayLiteral) Match(v driver.Value) bool {
	switch got := v.(type) {
	case string:
		return got == string(a)
	case []byte:
		return string(got) == string(a)
	}
	return false
}

var postingRowColumns = []string{
	"id", "title", "url", "employer_name", "employer_category", "experience", "salary",
	"address", "metro_stations", "tags", "description", "sent", "from_admin", "created_at",
}

// ==========================
// Tests
// ==========================

func TestPostingStore_Insert(t *testing.T) {
	t.Run("new posting is written", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := createTestPosting()

		mock.ExpectExec("INSERT INTO postings").
			WithArgs(p.ID, p.Title, p.URL, p.EmployerName, "consulting", "one_to_three",
				sqlmock.AnyArg(), "", sqlmock.AnyArg(), sqlmock.AnyArg(), p.Description, false, p.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		inserted, err := NewPostingStore(db).Insert(context.Background(), p)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id is ignored", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec("ON CONFLICT \\(id\\) DO NOTHING").
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := NewPostingStore(db).Insert(context.Background(), createTestPosting())
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("posting without metro binds an empty array", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := createTestPosting()
		p.MetroStations = nil

		mock.ExpectExec("INSERT INTO postings").
			WithArgs(p.ID, p.Title, p.URL, p.EmployerName, "consulting", "one_to_three",
				sqlmock.AnyArg(), "", arrayLiteral("{}"), arrayLiteral(`{"corporate","civil"}`),
				p.Description, false, p.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		inserted, err := NewPostingStore(db).Insert(context.Background(), p)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec("INSERT INTO postings").WillReturnError(errors.New("connection refused"))

		_, err := NewPostingStore(db).Insert(context.Background(), createTestPosting())
		assert.ErrorIs(t, err, ErrInsertFailed)
	})
}

func TestPostingStore_Exists(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := NewPostingStore(db).Exists(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostingStore_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		mock.ExpectQuery("FROM postings WHERE id").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows(postingRowColumns).AddRow(
				int64(42), "Юрист", "https://hh.ru/vacancy/42", "ООО Ромашка", "consulting", "one_to_three",
				[]byte(`{"to":150000}`), "г. Москва", "{Арбатская}", "{corporate,civil}",
				"desc", false, false, created,
			))

		p, err := NewPostingStore(db).GetByID(context.Background(), 42)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, models.Consulting, p.EmployerCategory)
		assert.Equal(t, models.OneToThree, p.Experience)
		assert.Equal(t, []models.PracticeArea{models.AreaCorporate, models.AreaCivil}, p.Tags)
		assert.Equal(t, []string{"Арбатская"}, p.MetroStations)
		require.NotNil(t, p.Salary)
		assert.Nil(t, p.Salary.From)
		assert.Equal(t, 150000, *p.Salary.To)
	})

	t.Run("null salary stays nil", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery("FROM postings WHERE id").
			WillReturnRows(sqlmock.NewRows(postingRowColumns).AddRow(
				int64(1), "t", "", "e", "in_house", "no_experience",
				nil, "", "{}", "{ip}", "d", true, true, time.Now(),
			))

		p, err := NewPostingStore(db).GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Nil(t, p.Salary)
		assert.True(t, p.Sent)
		assert.True(t, p.FromAdmin)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery("FROM postings WHERE id").WillReturnError(sql.ErrNoRows)

		p, err := NewPostingStore(db).GetByID(context.Background(), 9)
		assert.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestPostingStore_FindUnsent(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT id FROM postings WHERE NOT sent").
		WithArgs(1000).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)).AddRow(int64(5)))

	ids, err := NewPostingStore(db).FindUnsent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostingStore_MarkSent(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "first time", affected: 1, want: true},
		{name: "already sent", affected: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)

			mock.ExpectExec("UPDATE postings SET sent = TRUE").
				WithArgs(int64(42)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			changed, err := NewPostingStore(db).MarkSent(context.Background(), 42)
			require.NoError(t, err)
			assert.Equal(t, tt.want, changed)
		})
	}
}

func TestPostingStore_CountByState(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"sent", "unsent"}).AddRow(10, 2))

	sent, unsent, err := NewPostingStore(db).CountByState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, sent)
	assert.Equal(t, 2, unsent)
}
