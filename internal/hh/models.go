package hh

import (
	"strconv"
	"strings"

	"lawjobs-workers/internal/models"
)

type SearchResponse struct {
	Items []VacancyItem `json:"items"`
	Found int           `json:"found"`
	Pages int           `json:"pages"`
	Page  int           `json:"page"`
}

type VacancyItem struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	AlternateURL string      `json:"alternate_url"`
	Employer     EmployerRef `json:"employer"`
	Experience   struct {
		ID string `json:"id"`
	} `json:"experience"`
	Salary  *Salary  `json:"salary"`
	Address *Address `json:"address"`
}

type EmployerRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	AlternateURL string `json:"alternate_url"`
}

type Salary struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

type Address struct {
	City          string `json:"city"`
	Street        string `json:"street"`
	Building      string `json:"building"`
	MetroStations []struct {
		StationName string `json:"station_name"`
	} `json:"metro_stations"`
}

type VacancyDetail struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	KeySkills   []struct {
		Name string `json:"name"`
	} `json:"key_skills"`
}

// SkillNames returns the key skill labels used as classifier seeds.
func (d *VacancyDetail) SkillNames() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.KeySkills))
	for _, s := range d.KeySkills {
		if s.Name != "" {
			out = append(out, s.Name)
		}
	}
	return out
}

type Employer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PostingID parses the numeric hh.ru id.
func (v *VacancyItem) PostingID() (int64, error) {
	return strconv.ParseInt(v.ID, 10, 64)
}

// ToSalary drops the range when both bounds are missing or zero.
func (s *Salary) ToSalary() *models.Salary {
	if s == nil {
		return nil
	}
	out := &models.Salary{}
	if s.From != nil && *s.From > 0 {
		out.From = models.IntPtr(*s.From)
	}
	if s.To != nil && *s.To > 0 {
		out.To = models.IntPtr(*s.To)
	}
	if out.IsEmpty() {
		return nil
	}
	return out
}

// FormatAddress renders "г. {city}, ул. {street}, д. {building}", leaving
// out missing parts.
func FormatAddress(a *Address) string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	if a.City != "" {
		parts = append(parts, "г. "+a.City)
	}
	if a.Street != "" {
		parts = append(parts, "ул. "+a.Street)
	}
	if a.Building != "" {
		parts = append(parts, "д. "+a.Building)
	}
	return strings.Join(parts, ", ")
}

func MetroStations(a *Address) []string {
	if a == nil || len(a.MetroStations) == 0 {
		return nil
	}
	out := make([]string, 0, len(a.MetroStations))
	for _, m := range a.MetroStations {
		out = append(out, m.StationName)
	}
	return out
}
