// Package registration models subscriber registration as a state machine.
//
// Valid state graph:
//
//	AWAITING_EXPERIENCE ──► AWAITING_SALARY ──► AWAITING_TAGS ──► AWAITING_EMPLOYER_TYPES ──► COMPLETE
//	                                              ▲     │               ▲     │
//	                                              └─────┘               └─────┘
//	                                              toggle                toggle
//
// COMPLETE is terminal. Transitions are pure: they take the current state, the
// accumulator and one input, and return new values without touching storage.
package registration

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"lawjobs-workers/internal/models"
)

type State string

const (
	StateAwaitingExperience    State = "AWAITING_EXPERIENCE"
	StateAwaitingSalary        State = "AWAITING_SALARY"
	StateAwaitingTags          State = "AWAITING_TAGS"
	StateAwaitingEmployerTypes State = "AWAITING_EMPLOYER_TYPES"
	StateComplete              State = "COMPLETE"
)

var (
	ErrInvalidInput         = errors.New("REGISTRATION_INPUT_INVALID")
	ErrEmptySelection       = errors.New("REGISTRATION_EMPTY_SELECTION")
	ErrTransitionNotAllowed = errors.New("REGISTRATION_TRANSITION_NOT_ALLOWED")
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[State][]State{
	StateAwaitingExperience:    {StateAwaitingSalary},
	StateAwaitingSalary:        {StateAwaitingTags},
	StateAwaitingTags:          {StateAwaitingTags, StateAwaitingEmployerTypes},
	StateAwaitingEmployerTypes: {StateAwaitingEmployerTypes, StateComplete},
}

func ParseState(s string) (State, error) {
	st := State(s)
	switch st {
	case StateAwaitingExperience, StateAwaitingSalary, StateAwaitingTags, StateAwaitingEmployerTypes, StateComplete:
		return st, nil
	}
	return "", fmt.Errorf("unknown registration state %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// InputKind is the kind of user action fed into a transition.
type InputKind string

const (
	InputSelect InputKind = "select"
	InputToggle InputKind = "toggle"
	InputSave   InputKind = "save"
)

type Input struct {
	Kind  InputKind `json:"kind"`
	Value string    `json:"value,omitempty"`
}

// Accumulator carries the answers collected so far.
type Accumulator struct {
	Experience         models.ExperienceBucket   `json:"experience,omitempty"`
	MinSalary          int                       `json:"minSalary,omitempty"`
	Tags               []models.PracticeArea     `json:"tags,omitempty"`
	EmployerCategories []models.EmployerCategory `json:"employerCategories,omitempty"`
}

func (a Accumulator) clone() Accumulator {
	a.Tags = append([]models.PracticeArea(nil), a.Tags...)
	a.EmployerCategories = append([]models.EmployerCategory(nil), a.EmployerCategories...)
	return a
}

// Preference builds the stored preference record from a completed
// accumulator.
func (a Accumulator) Preference(subscriberID int64, username string, now time.Time) models.SubscriberPreference {
	c := a.clone()
	return models.SubscriberPreference{
		SubscriberID:       subscriberID,
		Username:           username,
		Experience:         c.Experience,
		MinSalary:          c.MinSalary,
		Tags:               orderedTags(c.Tags),
		EmployerCategories: orderedCategories(c.EmployerCategories),
		UpdatedAt:          now,
	}
}

// SalaryOptions are the selectable minimum salaries.
var SalaryOptions = []int{15000, 30000, 50000, 70000, 100000}

// Start returns the initial state and an empty accumulator.
func Start() (State, Accumulator) {
	return StateAwaitingExperience, Accumulator{}
}

// Transition applies one input. On error the returned state and accumulator
// are the inputs unchanged.
func Transition(state State, acc Accumulator, in Input) (State, Accumulator, error) {
	next, out, err := step(state, acc.clone(), in)
	if err != nil {
		return state, acc, err
	}
	if !IsTransitionAllowed(state, next) {
		return state, acc, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, state, next)
	}
	return next, out, nil
}

func step(state State, acc Accumulator, in Input) (State, Accumulator, error) {
	switch state {
	case StateAwaitingExperience:
		if in.Kind != InputSelect {
			return "", acc, unexpected(state, in)
		}
		exp, err := models.ParseExperienceBucket(in.Value)
		if err != nil {
			return "", acc, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		acc.Experience = exp
		return StateAwaitingSalary, acc, nil

	case StateAwaitingSalary:
		if in.Kind != InputSelect {
			return "", acc, unexpected(state, in)
		}
		salary, err := strconv.Atoi(in.Value)
		if err != nil || !isSalaryOption(salary) {
			return "", acc, fmt.Errorf("%w: salary option %q", ErrInvalidInput, in.Value)
		}
		acc.MinSalary = salary
		return StateAwaitingTags, acc, nil

	case StateAwaitingTags:
		switch in.Kind {
		case InputToggle:
			area, err := models.ParsePracticeArea(in.Value)
			if err != nil || !isTagOption(area) {
				return "", acc, fmt.Errorf("%w: tag %q", ErrInvalidInput, in.Value)
			}
			acc.Tags = toggle(acc.Tags, area)
			return StateAwaitingTags, acc, nil
		case InputSave:
			if len(acc.Tags) == 0 {
				return "", acc, ErrEmptySelection
			}
			return StateAwaitingEmployerTypes, acc, nil
		}
		return "", acc, unexpected(state, in)

	case StateAwaitingEmployerTypes:
		switch in.Kind {
		case InputToggle:
			category, err := models.ParseEmployerCategory(in.Value)
			if err != nil {
				return "", acc, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			acc.EmployerCategories = toggle(acc.EmployerCategories, category)
			return StateAwaitingEmployerTypes, acc, nil
		case InputSave:
			if len(acc.EmployerCategories) == 0 {
				return "", acc, ErrEmptySelection
			}
			return StateComplete, acc, nil
		}
		return "", acc, unexpected(state, in)
	}
	return "", acc, fmt.Errorf("%w: %s is terminal", ErrTransitionNotAllowed, state)
}

func unexpected(state State, in Input) error {
	return fmt.Errorf("%w: %s input in state %s", ErrInvalidInput, in.Kind, state)
}

func toggle[T comparable](set []T, v T) []T {
	for i, x := range set {
		if x == v {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return append(set, v)
}

func isSalaryOption(v int) bool {
	for _, o := range SalaryOptions {
		if o == v {
			return true
		}
	}
	return false
}

func isTagOption(a models.PracticeArea) bool {
	for _, o := range TagOptions {
		if o == a {
			return true
		}
	}
	return false
}

func orderedTags(set []models.PracticeArea) []models.PracticeArea {
	out := make([]models.PracticeArea, 0, len(set))
	for _, a := range models.PracticeAreas {
		for _, s := range set {
			if s == a {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func orderedCategories(set []models.EmployerCategory) []models.EmployerCategory {
	out := make([]models.EmployerCategory, 0, len(set))
	for _, c := range models.EmployerCategories {
		for _, s := range set {
			if s == c {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
