package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type RetryLimits struct {
	MaxAttempts      int     `yaml:"max_attempts"`
	FallbackAttempts int     `yaml:"fallback_attempts"`
	BaseDelaySec     float64 `yaml:"base_delay_sec"`
	MaxBackoffSec    float64 `yaml:"max_backoff_sec"`
}

type WaitLimits struct {
	FloorSec   float64 `yaml:"floor_sec"`
	CeilingSec float64 `yaml:"ceiling_sec"`
	DefaultSec float64 `yaml:"default_sec"`
}

type PacingLimits struct {
	Wait  WaitLimits  `yaml:"wait"`
	Retry RetryLimits `yaml:"retry"`
}

// DefaultPacingLimits mirrors the upstream rate limit behavior observed
// in production: the API tolerates roughly one request every 15-60s.
func DefaultPacingLimits() PacingLimits {
	return PacingLimits{
		Wait:  WaitLimits{FloorSec: 15, CeilingSec: 60, DefaultSec: 31},
		Retry: RetryLimits{MaxAttempts: 3, FallbackAttempts: 10, BaseDelaySec: 10, MaxBackoffSec: 60},
	}
}

// LoadPacingLimits reads the pacing YAML file. A missing file falls back
// to defaults; a malformed file is an error so a typo cannot silently
// disable rate limiting.
func LoadPacingLimits(path string) (PacingLimits, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultPacingLimits(), nil
	}
	if err != nil {
		return PacingLimits{}, fmt.Errorf("read pacing limits: %w", err)
	}

	limits := DefaultPacingLimits()
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return PacingLimits{}, fmt.Errorf("parse pacing limits: %w", err)
	}

	if limits.Wait.FloorSec <= 0 || limits.Wait.CeilingSec < limits.Wait.FloorSec {
		return PacingLimits{}, fmt.Errorf("pacing limits: invalid wait bounds floor=%.1f ceiling=%.1f",
			limits.Wait.FloorSec, limits.Wait.CeilingSec)
	}

	return limits, nil
}
