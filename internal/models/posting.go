// internal/models/posting.go
package models

import "time"

// Salary is an optional pay range. Either bound may be absent.
type Salary struct {
	From *int `json:"from,omitempty"`
	To   *int `json:"to,omitempty"`
}

// IsEmpty reports whether neither bound is set.
func (s *Salary) IsEmpty() bool {
	return s == nil || (s.From == nil && s.To == nil)
}

type Posting struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	URL              string           `json:"url,omitempty"`
	EmployerName     string           `json:"employerName"`
	EmployerCategory EmployerCategory `json:"employerCategory"`
	Experience       ExperienceBucket `json:"experience"`
	Salary           *Salary          `json:"salary,omitempty"`
	Address          string           `json:"address,omitempty"`
	MetroStations    []string         `json:"metroStations,omitempty"`
	Tags             []PracticeArea   `json:"tags"`
	Description      string           `json:"description"`
	Sent             bool             `json:"sent"`
	FromAdmin        bool             `json:"fromAdmin"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// Distributable reports whether the posting may be handed to the match engine.
func (p *Posting) Distributable() bool {
	return p != nil && len(p.Tags) > 0 && !p.Sent
}

// IntPtr is a small helper for building salary bounds.
func IntPtr(v int) *int {
	return &v
}
