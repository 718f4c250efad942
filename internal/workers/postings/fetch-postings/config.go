package fetchpostings

import (
	"time"

	"lawjobs-workers/internal/common/config"
	"lawjobs-workers/internal/hh"
)

const (
	defaultFetchConcurrency = 4
	defaultMaxPages         = 20
	defaultUnsentLimit      = 1000
)

type Config struct {
	Timeout          time.Duration
	Search           hh.SearchParams
	FetchConcurrency int
	MaxPages         int
	UnsentLimit      int
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	concurrency := cfg.HH.FetchConcurrency
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	return &Config{
		Timeout:          config.GetDuration(wc.Timeout),
		Search:           hh.ParamsFromConfig(cfg.HH),
		FetchConcurrency: concurrency,
		MaxPages:         defaultMaxPages,
		UnsentLimit:      defaultUnsentLimit,
	}
}
