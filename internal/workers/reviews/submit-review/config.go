package submitreview

import (
	"time"

	"lawjobs-workers/internal/common/config"
)

// MinReviewLength is the shortest accepted review, in characters.
const MinReviewLength = 20

type Config struct {
	Timeout   time.Duration
	MinLength int
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:   config.GetDuration(wc.Timeout),
		MinLength: MinReviewLength,
	}
}
