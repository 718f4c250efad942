package sendrunreport

import (
	"time"

	"lawjobs-workers/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	Recipients  []string
	AlertTopic  string
	AlertOnZero bool
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:     config.GetDuration(wc.Timeout),
		Recipients:  append([]string(nil), cfg.Reports.Recipients...),
		AlertTopic:  cfg.Reports.AlertTopic,
		AlertOnZero: cfg.Reports.AlertOnZero,
	}
}
