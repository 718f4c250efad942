// internal/models/subscriber.go
package models

import "time"

// SubscriberPreference is a user's stored matching criteria. Registration
// replaces it wholesale.
type SubscriberPreference struct {
	SubscriberID       int64              `json:"subscriberId"`
	Username           string             `json:"username,omitempty"`
	Experience         ExperienceBucket   `json:"experience"`
	MinSalary          int                `json:"minSalary"`
	Tags               []PracticeArea     `json:"tags"`
	EmployerCategories []EmployerCategory `json:"employerCategories"`
	IsAdmin            bool               `json:"isAdmin"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type Review struct {
	ID          string     `json:"id"`
	ReviewerID  int64      `json:"reviewerId"`
	Description string     `json:"description"`
	Resolved    bool       `json:"resolved"`
	AdminID     *int64     `json:"adminId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}
