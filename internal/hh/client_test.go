package hh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawjobs-workers/internal/common/config"
	commonhttp "lawjobs-workers/internal/common/http"
	"lawjobs-workers/internal/models"
)

func createTestConfig(baseURL string) config.HHConfig {
	return config.HHConfig{
		BaseURL:          baseURL,
		UserAgent:        "lawjobs-test",
		Text:             "Юрист",
		SearchFields:     []string{"name", "description"},
		Experience:       []string{"noExperience", "between1And3"},
		Employment:       []string{"full"},
		Area:             "1",
		ProfessionalRole: "146",
		Label:            "not_from_agency",
		PerPage:          100,
		PeriodDays:       1,
		OrderBy:          "salary_desc",
		Timeout:          2000,
	}
}

func TestSearchParams_Values(t *testing.T) {
	v := ParamsFromConfig(createTestConfig("")).Values()

	assert.Equal(t, "Юрист", v.Get("text"))
	assert.Equal(t, []string{"name", "description"}, v["search_field"])
	assert.Equal(t, []string{"noExperience", "between1And3"}, v["experience"])
	assert.Equal(t, "146", v.Get("professional_role"))
	assert.Equal(t, "100", v.Get("per_page"))
	assert.Equal(t, "1", v.Get("period"))
	assert.Empty(t, v.Get("page"))
}

func TestClient_Endpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lawjobs-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/vacancies":
			assert.Equal(t, "salary_desc", r.URL.Query().Get("order_by"))
			_, _ = w.Write([]byte(`{"found":1,"pages":1,"items":[{
				"id":"101","name":"Юрист","alternate_url":"https://hh.ru/vacancy/101",
				"employer":{"id":"9","name":"ООО Право"},
				"experience":{"id":"between1And3"},
				"salary":{"from":80000,"to":null},
				"address":{"city":"Москва","street":"Тверская","building":"1","metro_stations":[{"station_name":"Охотный ряд"}]}
			}]}`))
		case "/vacancies/101":
			_, _ = w.Write([]byte(`{"id":"101","description":"<p>Договоры</p>","key_skills":[{"name":"M&A"},{"name":""}]}`))
		case "/employers/9":
			_, _ = w.Write([]byte(`{"id":"9","description":"Юридическая фирма"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(createTestConfig(srv.URL))
	ctx := context.Background()

	res, err := client.SearchVacancies(ctx, ParamsFromConfig(createTestConfig(srv.URL)))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	item := res.Items[0]
	id, err := item.PostingID()
	require.NoError(t, err)
	assert.Equal(t, int64(101), id)
	assert.Equal(t, models.OneToThree, ExperienceBucket(item.Experience.ID))
	assert.Equal(t, "г. Москва, ул. Тверская, д. 1", FormatAddress(item.Address))
	assert.Equal(t, []string{"Охотный ряд"}, MetroStations(item.Address))

	salary := item.Salary.ToSalary()
	require.NotNil(t, salary)
	assert.Equal(t, 80000, *salary.From)
	assert.Nil(t, salary.To)

	detail, err := client.GetVacancy(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, []string{"M&A"}, detail.SkillNames())

	employer, err := client.GetEmployer(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, "Юридическая фирма", employer.Description)

	_, err = client.GetEmployer(ctx, "404")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestNewClientWith_DefaultsHTTPClient(t *testing.T) {
	c := NewClientWith(nil, "https://api.hh.ru/")
	assert.Equal(t, "https://api.hh.ru", c.baseURL)

	c = NewClientWith(commonhttp.NewClient(time.Second), "x")
	assert.NotNil(t, c.http)
}

func TestExperienceBucket(t *testing.T) {
	assert.Equal(t, models.NoExperience, ExperienceBucket("noExperience"))
	assert.Equal(t, models.OneToThree, ExperienceBucket("between3And6"))
}

func TestSalary_ToSalary(t *testing.T) {
	assert.Nil(t, (*Salary)(nil).ToSalary())
	assert.Nil(t, (&Salary{From: models.IntPtr(0)}).ToSalary())
}

func TestFormatAddress_Partial(t *testing.T) {
	assert.Equal(t, "", FormatAddress(nil))
	assert.Equal(t, "г. Москва", FormatAddress(&Address{City: "Москва"}))
}
