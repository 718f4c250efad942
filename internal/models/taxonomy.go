// internal/models/taxonomy.go
package models

import "fmt"

// PracticeArea is one tag of the fixed legal practice taxonomy.
type PracticeArea string

const (
	AreaCorporate         PracticeArea = "corporate"
	AreaIP                PracticeArea = "ip"
	AreaDataPrivacy       PracticeArea = "data_privacy"
	AreaDisputeResolution PracticeArea = "dispute_resolution"
	AreaCivil             PracticeArea = "civil"
	AreaLabour            PracticeArea = "labour"
	AreaBanking           PracticeArea = "banking"
)

// PracticeAreas is the enumeration order used for every classification result.
var PracticeAreas = []PracticeArea{
	AreaCorporate,
	AreaIP,
	AreaDataPrivacy,
	AreaDisputeResolution,
	AreaCivil,
	AreaLabour,
	AreaBanking,
}

var practiceAreaNames = map[PracticeArea]string{
	AreaCorporate:         "Корпоративное право",
	AreaIP:                "Интеллектуальная собственность",
	AreaDataPrivacy:       "Персональные данные",
	AreaDisputeResolution: "Разрешение споров",
	AreaCivil:             "Гражданское право",
	AreaLabour:            "Трудовое право",
	AreaBanking:           "Банковское право",
}

// DisplayName returns the Russian label shown to subscribers.
func (a PracticeArea) DisplayName() string {
	if name, ok := practiceAreaNames[a]; ok {
		return name
	}
	return string(a)
}

// ParsePracticeArea accepts either the code or the display name.
func ParsePracticeArea(s string) (PracticeArea, error) {
	for _, area := range PracticeAreas {
		if string(area) == s || practiceAreaNames[area] == s {
			return area, nil
		}
	}
	return "", fmt.Errorf("unknown practice area %q", s)
}

// EmployerCategory buckets an employer as consulting or in-house.
type EmployerCategory string

const (
	Consulting EmployerCategory = "consulting"
	InHouse    EmployerCategory = "in_house"
)

var EmployerCategories = []EmployerCategory{Consulting, InHouse}

func (c EmployerCategory) DisplayName() string {
	switch c {
	case Consulting:
		return "Консалтинг"
	case InHouse:
		return "Инхаус"
	}
	return string(c)
}

func ParseEmployerCategory(s string) (EmployerCategory, error) {
	for _, c := range EmployerCategories {
		if string(c) == s || c.DisplayName() == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown employer category %q", s)
}

// ExperienceBucket is ordinal; matching compares buckets for equality.
type ExperienceBucket string

const (
	NoExperience ExperienceBucket = "no_experience"
	OneToThree   ExperienceBucket = "one_to_three"
)

var ExperienceBuckets = []ExperienceBucket{NoExperience, OneToThree}

func (e ExperienceBucket) DisplayName() string {
	switch e {
	case NoExperience:
		return "Меньше 1 года"
	case OneToThree:
		return "1-3 года"
	}
	return string(e)
}

func ParseExperienceBucket(s string) (ExperienceBucket, error) {
	for _, e := range ExperienceBuckets {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown experience bucket %q", s)
}

// EmployerType is a row of the employer category lookup table.
type EmployerType struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	Category EmployerCategory `json:"category"`
}
