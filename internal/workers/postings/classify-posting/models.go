package classifyposting

import "lawjobs-workers/internal/models"

type Input struct {
	Description         string   `json:"description"`
	Seeds               []string `json:"seeds,omitempty"`
	EmployerDescription *string  `json:"employerDescription,omitempty"`
}

type Output struct {
	Tags             []models.PracticeArea   `json:"tags"`
	EmployerCategory models.EmployerCategory `json:"employerCategory"`
	Classified       bool                    `json:"classified"`
}
