// Package posting validates admin-submitted postings and renders postings as
// chat messages.
package posting

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lawjobs-workers/internal/models"
)

// PostingChecker reports whether an identifier is already stored.
type PostingChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// EmployerTypeLookup resolves employer categories. Both methods return
// (nil, nil) when nothing matches.
type EmployerTypeLookup interface {
	ByID(ctx context.Context, id int) (*models.EmployerType, error)
	ByName(ctx context.Context, name string) (*models.EmployerType, error)
}

type TagClassifier interface {
	ClassifyTags(description string, seeds []string) []models.PracticeArea
}

// Validator turns the seven raw submission fields into a Posting candidate.
// It stops at the first invalid field and never writes to storage.
type Validator struct {
	postings      PostingChecker
	employerTypes EmployerTypeLookup
	classifier    TagClassifier
	now           func() time.Time
}

func NewValidator(postings PostingChecker, employerTypes EmployerTypeLookup, classifier TagClassifier) *Validator {
	return &Validator{
		postings:      postings,
		employerTypes: employerTypes,
		classifier:    classifier,
		now:           time.Now,
	}
}

// ValidateAndBuild checks identifier, employer category, experience, salary
// and tags in that order. A *ValidationError is returned for bad input; store
// failures are returned as they are.
func (v *Validator) ValidateAndBuild(ctx context.Context, fields []string) (*models.Posting, error) {
	if len(fields) != FieldCount {
		return nil, newValidationError("submission", MsgMissingFields, ErrInvalidFormat)
	}

	id, err := v.ParseIdentifier(ctx, fields[FieldIdentifier])
	if err != nil {
		return nil, err
	}

	category, err := v.ParseEmployerCategory(ctx, fields[FieldEmployerCategory])
	if err != nil {
		return nil, err
	}

	experience, err := ParseExperience(fields[FieldExperience])
	if err != nil {
		return nil, err
	}

	salary, err := ParseSalary(fields[FieldSalary])
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(fields[FieldDescription])
	tags := v.classifier.ClassifyTags(description, nil)
	if len(tags) == 0 {
		return nil, newValidationError("description", MsgEmptyClassification, ErrEmptyClassification)
	}

	return &models.Posting{
		ID:               id,
		Title:            strings.TrimSpace(fields[FieldTitle]),
		EmployerName:     strings.TrimSpace(fields[FieldEmployerName]),
		EmployerCategory: category,
		Experience:       experience,
		Salary:           salary,
		Tags:             tags,
		Description:      description,
		FromAdmin:        true,
		CreatedAt:        v.now().UTC(),
	}, nil
}

// ParseIdentifier applies the format rules and then checks uniqueness.
func (v *Validator) ParseIdentifier(ctx context.Context, raw string) (int64, error) {
	id, err := ParseIdentifierFormat(raw)
	if err != nil {
		return 0, err
	}

	exists, err := v.postings.Exists(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("check posting %d: %w", id, err)
	}
	if exists {
		return 0, newValidationError("identifier", MsgIdentifierTaken, ErrInvalidFormat, ErrDuplicateIdentifier)
	}
	return id, nil
}

// ParseEmployerCategory accepts a numeric id from the category table or a
// category name in any letter case.
func (v *Validator) ParseEmployerCategory(ctx context.Context, raw string) (models.EmployerCategory, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", newValidationError("employer_category", MsgEmployerCategory, ErrInvalidFormat)
	}

	var (
		et  *models.EmployerType
		err error
	)
	if n, convErr := strconv.Atoi(s); convErr == nil {
		et, err = v.employerTypes.ByID(ctx, n)
	} else {
		et, err = v.employerTypes.ByName(ctx, s)
	}
	if err != nil {
		return "", fmt.Errorf("lookup employer type %q: %w", s, err)
	}
	if et == nil {
		return "", newValidationError("employer_category", MsgEmployerCategory, ErrInvalidFormat)
	}
	return et.Category, nil
}
