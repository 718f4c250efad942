package posting

import (
	"regexp"
	"strconv"
	"strings"

	"lawjobs-workers/internal/models"
)

// FieldCount is the number of lines in an admin submission: identifier,
// title, employer name, employer category, experience, salary, description.
const FieldCount = 7

const (
	FieldIdentifier = iota
	FieldTitle
	FieldEmployerName
	FieldEmployerCategory
	FieldExperience
	FieldSalary
	FieldDescription
)

const maxIdentifierLength = 10

var (
	commandLine  = regexp.MustCompile(`^\s*/vacancy(?:@\w+)?\s*\n`)
	lineBreak    = regexp.MustCompile(`\s*\n\s*`)
	experienceNo = regexp.MustCompile(`^\s*0\s*$`)
	experience13 = regexp.MustCompile(`(?:^|\D)1\s*[-—–]\s*3(?:\D|$)`)

	// Digits with optional space-grouped thousands: "100000" or "100 000".
	number      = `(\d+(?:[ \x{00a0}]\d{3})*)`
	salaryRange = regexp.MustCompile(`(?is)^\s*(?:от\s*)?` + number + `\s*(?:[-—–]|до)\s*` + number + `\D*$`)
	salaryFrom  = regexp.MustCompile(`(?is)^\s*от\s*` + number + `\D*$`)
	salaryTo    = regexp.MustCompile(`(?is)^\s*до\s*` + number + `\D*$`)
	salaryNone  = regexp.MustCompile(`(?is)(?:нет|без)\s*з(?:п|арплаты)|нет\s*данных|неизвестно`)
)

// SplitSubmission strips the leading command line and splits the rest into
// FieldCount fields. Everything after the sixth line break belongs to the
// description.
func SplitSubmission(text string) ([]string, error) {
	text = commandLine.ReplaceAllString(text, "")
	text = strings.TrimLeft(text, " \t\r\n")

	fields := lineBreak.Split(text, FieldCount)
	if len(fields) < FieldCount {
		return nil, newValidationError("submission", MsgMissingFields, ErrInvalidFormat)
	}
	return fields, nil
}

// ParseIdentifierFormat checks the syntactic rules of an identifier. The
// uniqueness check is done by the Validator.
func ParseIdentifierFormat(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || !isASCIIDigits(s) {
		return 0, newValidationError("identifier", MsgIdentifierFormat, ErrInvalidFormat)
	}
	if len(s) > maxIdentifierLength {
		return 0, newValidationError("identifier", MsgIdentifierTooLong, ErrInvalidFormat)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, newValidationError("identifier", MsgIdentifierFormat, ErrInvalidFormat)
	}
	return id, nil
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseExperience maps "0" to NoExperience and a "1-3" anywhere in the text
// (hyphen, en or em dash, any spacing) to OneToThree.
func ParseExperience(raw string) (models.ExperienceBucket, error) {
	switch {
	case experienceNo.MatchString(raw):
		return models.NoExperience, nil
	case experience13.MatchString(raw):
		return models.OneToThree, nil
	}
	return "", newValidationError("experience", MsgExperience, ErrInvalidFormat)
}

// ParseSalary recognises, in order: a range, a lower bound ("от N"), an upper
// bound ("до N") and phrases meaning no data. The last yields a nil salary
// without error.
func ParseSalary(raw string) (*models.Salary, error) {
	if m := salaryRange.FindStringSubmatch(raw); m != nil {
		from, errFrom := atoiGrouped(m[1])
		to, errTo := atoiGrouped(m[2])
		if errFrom == nil && errTo == nil {
			return &models.Salary{From: &from, To: &to}, nil
		}
	}
	if m := salaryFrom.FindStringSubmatch(raw); m != nil {
		if from, err := atoiGrouped(m[1]); err == nil {
			return &models.Salary{From: &from}, nil
		}
	}
	if m := salaryTo.FindStringSubmatch(raw); m != nil {
		if to, err := atoiGrouped(m[1]); err == nil {
			return &models.Salary{To: &to}, nil
		}
	}
	if salaryNone.MatchString(raw) {
		return nil, nil
	}
	return nil, newValidationError("salary", MsgSalary, ErrInvalidFormat)
}

func atoiGrouped(s string) (int, error) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	return strconv.Atoi(s)
}
