package scheduler

import (
	"strings"
	"time"

	"github.com/smallbiznis/kiosk/internal/config"
)

// Config controls scheduler intervals and locking.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	LockTTL     time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		JobTimeout:  30 * time.Second,
		LockTTL:     2 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	out := DefaultConfig()
	if jobs := strings.TrimSpace(cfg.SchedulerJobs); jobs != "" {
		for _, job := range strings.Split(jobs, ",") {
			if job = strings.TrimSpace(job); job != "" {
				out.EnabledJobs = append(out.EnabledJobs, job)
			}
		}
	}
	return out
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
