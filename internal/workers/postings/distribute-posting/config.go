package distributeposting

import (
	"time"

	"lawjobs-workers/internal/common/config"
)

const (
	defaultConcurrency = 8
	defaultTimeout     = 30 * time.Second
)

type Config struct {
	Timeout     time.Duration
	Concurrency int
	// ClaimTTL bounds how long a crashed worker can block a posting.
	ClaimTTL time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	concurrency := cfg.Distribution.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Config{
		Timeout:     timeout,
		Concurrency: concurrency,
		ClaimTTL:    2 * timeout,
	}
}
