// Package hh talks to the hh.ru public vacancy API.
package hh

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lawjobs-workers/internal/common/config"
	commonhttp "lawjobs-workers/internal/common/http"
	"lawjobs-workers/internal/models"
)

var ErrFetchFailed = errors.New("SOURCE_FETCH_FAILED")

// SearchParams mirrors the query string of GET /vacancies.
type SearchParams struct {
	Text             string
	SearchFields     []string
	Experience       []string
	Employment       []string
	Area             string
	ProfessionalRole string
	Label            string
	PerPage          int
	PeriodDays       int
	OrderBy          string
	Page             int
}

// ParamsFromConfig copies the configured search so callers can override
// fields per run.
func ParamsFromConfig(cfg config.HHConfig) SearchParams {
	return SearchParams{
		Text:             cfg.Text,
		SearchFields:     append([]string(nil), cfg.SearchFields...),
		Experience:       append([]string(nil), cfg.Experience...),
		Employment:       append([]string(nil), cfg.Employment...),
		Area:             cfg.Area,
		ProfessionalRole: cfg.ProfessionalRole,
		Label:            cfg.Label,
		PerPage:          cfg.PerPage,
		PeriodDays:       cfg.PeriodDays,
		OrderBy:          cfg.OrderBy,
	}
}

// Values encodes the params. Empty fields are left out.
func (p SearchParams) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("text", p.Text)
	for _, f := range p.SearchFields {
		v.Add("search_field", f)
	}
	for _, e := range p.Experience {
		v.Add("experience", e)
	}
	for _, e := range p.Employment {
		v.Add("employment", e)
	}
	set("area", p.Area)
	set("professional_role", p.ProfessionalRole)
	set("label", p.Label)
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.PeriodDays > 0 {
		v.Set("period", strconv.Itoa(p.PeriodDays))
	}
	set("order_by", p.OrderBy)
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v
}

type Client struct {
	http    *commonhttp.Client
	baseURL string
}

func NewClient(cfg config.HHConfig) *Client {
	httpClient := commonhttp.NewClient(
		config.GetDuration(cfg.Timeout),
		commonhttp.WithUserAgent(cfg.UserAgent),
		commonhttp.WithRateLimit(cfg.RequestsPerSecond, 1),
	)
	return NewClientWith(httpClient, cfg.BaseURL)
}

// NewClientWith uses an existing HTTP client, mainly for tests.
func NewClientWith(httpClient *commonhttp.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = commonhttp.NewClient(15 * time.Second)
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) SearchVacancies(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	var out SearchResponse
	endpoint := c.baseURL + "/vacancies?" + params.Values().Encode()
	if err := c.http.GetJSON(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("%w: search vacancies: %v", ErrFetchFailed, err)
	}
	return &out, nil
}

func (c *Client) GetVacancy(ctx context.Context, id string) (*VacancyDetail, error) {
	var out VacancyDetail
	if err := c.http.GetJSON(ctx, c.baseURL+"/vacancies/"+url.PathEscape(id), &out); err != nil {
		return nil, fmt.Errorf("%w: vacancy %s: %v", ErrFetchFailed, id, err)
	}
	return &out, nil
}

func (c *Client) GetEmployer(ctx context.Context, id string) (*Employer, error) {
	var out Employer
	if err := c.http.GetJSON(ctx, c.baseURL+"/employers/"+url.PathEscape(id), &out); err != nil {
		return nil, fmt.Errorf("%w: employer %s: %v", ErrFetchFailed, id, err)
	}
	return &out, nil
}

// ExperienceBucket maps the hh.ru experience id. Anything other than
// noExperience is treated as one to three years.
func ExperienceBucket(id string) models.ExperienceBucket {
	if id == "noExperience" {
		return models.NoExperience
	}
	return models.OneToThree
}
