package classification

import (
	"strings"

	"lawjobs-workers/internal/models"
)

// Config holds the tunable classification policy.
type Config struct {
	// EmptyEmployerDefault is returned when an employer has no description.
	EmptyEmployerDefault models.EmployerCategory
}

// DefaultConfig assumes employers without a self-description are in-house.
func DefaultConfig() Config {
	return Config{EmptyEmployerDefault: models.InHouse}
}

// Classifier applies the pattern library. It holds no mutable state and may be
// shared between goroutines.
type Classifier struct {
	config Config
}

func NewClassifier(config Config) *Classifier {
	if config.EmptyEmployerDefault == "" {
		config.EmptyEmployerDefault = models.InHouse
	}
	return &Classifier{config: config}
}

// ClassifyTags returns the practice areas hit by the description or by the
// seed keywords, in enumeration order. The result is never nil. An empty
// description yields no tags regardless of seeds.
func (c *Classifier) ClassifyTags(description string, seeds []string) []models.PracticeArea {
	tags := make([]models.PracticeArea, 0, len(models.PracticeAreas))
	if strings.TrimSpace(description) == "" {
		return tags
	}

	buffer := strings.Join(append([]string(nil), seeds...), " ")

	for _, area := range models.PracticeAreas {
		re := AreaPattern(area)
		if re == nil {
			continue
		}
		if re.MatchString(description) || (buffer != "" && re.MatchString(buffer)) {
			tags = append(tags, area)
		}
	}
	return tags
}

// ClassifyEmployer buckets an employer by its self-description. A nil or
// blank description resolves to the configured default.
func (c *Classifier) ClassifyEmployer(description *string) models.EmployerCategory {
	if description == nil || strings.TrimSpace(*description) == "" {
		return c.config.EmptyEmployerDefault
	}
	if EmployerPattern().MatchString(*description) {
		return models.Consulting
	}
	return models.InHouse
}

// HasTag reports whether tags contains area.
func HasTag(tags []models.PracticeArea, area models.PracticeArea) bool {
	for _, t := range tags {
		if t == area {
			return true
		}
	}
	return false
}
