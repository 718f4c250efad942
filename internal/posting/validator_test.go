// internal/posting/validator_test.go
package posting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lawjobs-workers/internal/classification"
	"lawjobs-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockPostingChecker struct {
	ExistsFunc func(ctx context.Context, id int64) (bool, error)
}

func (m *MockPostingChecker) Exists(ctx context.Context, id int64) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, id)
	}
	return false, nil
}

type staticEmployerTypes []models.EmployerType

func (s staticEmployerTypes) ByID(_ context.Context, id int) (*models.EmployerType, error) {
	for i := range s {
		if s[i].ID == id {
			return &s[i], nil
		}
	}
	return nil, nil
}

func (s staticEmployerTypes) ByName(_ context.Context, name string) (*models.EmployerType, error) {
	for i := range s {
		if strings.EqualFold(s[i].Name, name) {
			return &s[i], nil
		}
	}
	return nil, nil
}

var testEmployerTypes = staticEmployerTypes{
	{ID: 1, Name: "Консалтинг", Category: models.Consulting},
	{ID: 2, Name: "Инхаус", Category: models.InHouse},
}

func newTestValidator(checker PostingChecker) *Validator {
	return NewValidator(checker, testEmployerTypes, classification.NewClassifier(classification.DefaultConfig()))
}

func validFields() []string {
	return []string{
		"12345",
		"Младший юрист",
		"ООО Ромашка",
		"инхаус",
		"0",
		"100-200",
		"Сопровождение сделок, подготовка устава, патентные споры",
	}
}

func withField(idx int, value string) []string {
	f := validFields()
	f[idx] = value
	return f
}

// ==========================
// Field Parser Tests
// ==========================

func TestParseSalary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *models.Salary
		wantErr  bool
	}{
		{name: "range", input: "100-200", expected: &models.Salary{From: models.IntPtr(100), To: models.IntPtr(200)}},
		{name: "range with spaces and em dash", input: " 100 — 200 ", expected: &models.Salary{From: models.IntPtr(100), To: models.IntPtr(200)}},
		{name: "range with thousands", input: "100 000 - 150 000 руб.", expected: &models.Salary{From: models.IntPtr(100000), To: models.IntPtr(150000)}},
		{name: "from to words", input: "от 80000 до 120000", expected: &models.Salary{From: models.IntPtr(80000), To: models.IntPtr(120000)}},
		{name: "lower bound capitalised", input: "От 100", expected: &models.Salary{From: models.IntPtr(100)}},
		{name: "lower bound no space", input: "от100", expected: &models.Salary{From: models.IntPtr(100)}},
		{name: "upper bound", input: "До 200", expected: &models.Salary{To: models.IntPtr(200)}},
		{name: "upper bound lower case", input: "до 70 000", expected: &models.Salary{To: models.IntPtr(70000)}},
		{name: "no data", input: "нет данных", expected: nil},
		{name: "no salary", input: "Без зарплаты", expected: nil},
		{name: "unknown", input: "неизвестно", expected: nil},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "bare number", input: "100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSalary(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFormat))
				assert.Equal(t, MsgSalary, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseExperience(t *testing.T) {
	tests := []struct {
		input    string
		expected models.ExperienceBucket
		wantErr  bool
	}{
		{input: "0", expected: models.NoExperience},
		{input: " 0 ", expected: models.NoExperience},
		{input: "1-3", expected: models.OneToThree},
		{input: "1 — 3", expected: models.OneToThree},
		{input: "1–3 года", expected: models.OneToThree},
		{input: "опыт 1-3 года", expected: models.OneToThree},
		{input: "Опыт работы: 1 — 3", expected: models.OneToThree},
		{input: "1-30", wantErr: true},
		{input: "опыт 0", wantErr: true},
		{input: "2", wantErr: true},
		{input: "11-3", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseExperience(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFormat))
				assert.Equal(t, MsgExperience, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseIdentifierFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		message string
	}{
		{name: "valid", input: "12345", want: 12345},
		{name: "trimmed", input: " 42 ", want: 42},
		{name: "ten digits", input: "1234567890", want: 1234567890},
		{name: "two tokens", input: "12 34", message: MsgIdentifierFormat},
		{name: "letters", input: "12a", message: MsgIdentifierFormat},
		{name: "negative", input: "-5", message: MsgIdentifierFormat},
		{name: "non ascii digits", input: "١٢٣", message: MsgIdentifierFormat},
		{name: "too long", input: "12345678901", message: MsgIdentifierTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdentifierFormat(tt.input)
			if tt.message != "" {
				require.Error(t, err)
				assert.Equal(t, tt.message, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitSubmission(t *testing.T) {
	text := "/vacancy\n12345\nЮрист\n  ООО Ромашка \nинхаус\n0\nот 100\nПервая строка\n\nВторая строка"

	fields, err := SplitSubmission(text)
	require.NoError(t, err)
	require.Len(t, fields, FieldCount)

	assert.Equal(t, "12345", fields[FieldIdentifier])
	assert.Equal(t, "ООО Ромашка", fields[FieldEmployerName])
	assert.Equal(t, "от 100", fields[FieldSalary])
	assert.Equal(t, "Первая строка\n\nВторая строка", fields[FieldDescription])

	_, err = SplitSubmission("/vacancy\n12345\nЮрист")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFormat))
}

// ==========================
// Validator Tests
// ==========================

func TestValidator_ValidateAndBuild_Success(t *testing.T) {
	v := newTestValidator(&MockPostingChecker{})

	p, err := v.ValidateAndBuild(context.Background(), validFields())
	require.NoError(t, err)

	assert.Equal(t, int64(12345), p.ID)
	assert.Equal(t, "Младший юрист", p.Title)
	assert.Equal(t, "ООО Ромашка", p.EmployerName)
	assert.Equal(t, models.InHouse, p.EmployerCategory)
	assert.Equal(t, models.NoExperience, p.Experience)
	assert.Equal(t, &models.Salary{From: models.IntPtr(100), To: models.IntPtr(200)}, p.Salary)
	assert.Equal(t, []models.PracticeArea{models.AreaCorporate, models.AreaIP}, p.Tags)
	assert.True(t, p.FromAdmin)
	assert.False(t, p.Sent)
}

func TestValidator_ValidateAndBuild_EmployerCategoryForms(t *testing.T) {
	v := newTestValidator(&MockPostingChecker{})
	tests := []struct {
		input    string
		expected models.EmployerCategory
	}{
		{input: "1", expected: models.Consulting},
		{input: "2", expected: models.InHouse},
		{input: "КОНСАЛТИНГ", expected: models.Consulting},
		{input: "Инхаус", expected: models.InHouse},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := v.ValidateAndBuild(context.Background(), withField(FieldEmployerCategory, tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.EmployerCategory)
		})
	}
}

func TestValidator_ValidateAndBuild_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		message string
		kind    error
	}{
		{name: "bad identifier", fields: withField(FieldIdentifier, "abc"), message: MsgIdentifierFormat, kind: ErrInvalidFormat},
		{name: "unknown category id", fields: withField(FieldEmployerCategory, "7"), message: MsgEmployerCategory, kind: ErrInvalidFormat},
		{name: "unknown category name", fields: withField(FieldEmployerCategory, "Госсектор"), message: MsgEmployerCategory, kind: ErrInvalidFormat},
		{name: "bad experience", fields: withField(FieldExperience, "5 лет"), message: MsgExperience, kind: ErrInvalidFormat},
		{name: "bad salary", fields: withField(FieldSalary, "договорная"), message: MsgSalary, kind: ErrInvalidFormat},
		{name: "no practice area", fields: withField(FieldDescription, "Ищем курьера"), message: MsgEmptyClassification, kind: ErrEmptyClassification},
		{name: "wrong field count", fields: validFields()[:5], message: MsgMissingFields, kind: ErrInvalidFormat},
	}

	v := newTestValidator(&MockPostingChecker{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := v.ValidateAndBuild(context.Background(), tt.fields)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Equal(t, tt.message, err.Error())
			assert.True(t, errors.Is(err, tt.kind))
		})
	}
}

func TestValidator_ValidateAndBuild_FirstErrorWins(t *testing.T) {
	fields := validFields()
	fields[FieldExperience] = "много"
	fields[FieldSalary] = "abc"

	_, err := newTestValidator(&MockPostingChecker{}).ValidateAndBuild(context.Background(), fields)
	require.Error(t, err)
	assert.Equal(t, MsgExperience, err.Error())
}

func TestValidator_ValidateAndBuild_DuplicateIdentifier(t *testing.T) {
	checker := &MockPostingChecker{
		ExistsFunc: func(ctx context.Context, id int64) (bool, error) {
			return id == 12345, nil
		},
	}

	_, err := newTestValidator(checker).ValidateAndBuild(context.Background(), validFields())
	require.Error(t, err)
	assert.Equal(t, MsgIdentifierTaken, err.Error())
	assert.True(t, errors.Is(err, ErrDuplicateIdentifier))
	assert.True(t, errors.Is(err, ErrInvalidFormat))

	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "POSTING_DUPLICATE", ve.Code())
}

func TestValidator_ValidateAndBuild_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	checker := &MockPostingChecker{
		ExistsFunc: func(ctx context.Context, id int64) (bool, error) {
			return false, storeErr
		},
	}

	_, err := newTestValidator(checker).ValidateAndBuild(context.Background(), validFields())
	require.Error(t, err)
	assert.True(t, errors.Is(err, storeErr))
	_, isValidation := AsValidationError(err)
	assert.False(t, isValidation)
}

func TestValidator_TagsRoundTrip(t *testing.T) {
	v := newTestValidator(&MockPostingChecker{})
	p, err := v.ValidateAndBuild(context.Background(), validFields())
	require.NoError(t, err)

	rederived := classification.NewClassifier(classification.DefaultConfig()).ClassifyTags(p.Description, nil)
	assert.Equal(t, p.Tags, rederived)
}

// ==========================
// Rendering Tests
// ==========================

func TestRenderMessage(t *testing.T) {
	p := &models.Posting{
		ID:           777,
		Title:        "Юрист",
		EmployerName: "Ромашка",
		Tags:         []models.PracticeArea{models.AreaCorporate, models.AreaIP},
		Salary:       &models.Salary{From: models.IntPtr(100)},
		Description:  "Описание",
	}

	got := RenderMessage(p, false)
	assert.Equal(t,
		"<strong>Юрист</strong> | Ромашка\n"+
			"<strong>Отрасли</strong>: Корпоративное право, Интеллектуальная собственность\n"+
			"💵 От 100\n"+
			"\nID: 777",
		got)

	p.FromAdmin = true
	p.Salary = &models.Salary{From: models.IntPtr(100), To: models.IntPtr(200)}
	got = RenderMessage(p, true)
	assert.True(t, strings.HasPrefix(got, "👑 Вакансия не из HH 👑\n\n<strong>Юрист</strong>"))
	assert.Contains(t, got, "💵 100 - 200\nОписание\n")

	p.Salary = &models.Salary{To: models.IntPtr(300)}
	assert.Contains(t, RenderMessage(p, false), "💵 До 300")
}

func TestRenderMessage_TruncatesDescription(t *testing.T) {
	p := &models.Posting{
		ID:          1,
		Title:       "Юрист",
		Description: strings.Repeat("я", MaxDescriptionLength+50),
	}

	got := RenderMessage(p, true)
	assert.Contains(t, got, strings.Repeat("я", MaxDescriptionLength+1)+" ...")
	assert.NotContains(t, got, strings.Repeat("я", MaxDescriptionLength+2))
}

func TestRejectionMessage(t *testing.T) {
	_, err := ParseSalary("abc")
	msg := RejectionMessage(err)
	assert.True(t, strings.HasPrefix(msg, MsgSalary+"\n\n"))
	assert.Contains(t, msg, "строго каждое поле на отдельной строке")
}
