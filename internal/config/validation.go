package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig matches every *ValidationErrors via errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// FieldError is one rejected setting.
type FieldError struct {
	Key    string
	Value  any
	Reason string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Fields []FieldError
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("  - %s: %s (got %v)\n", f.Key, f.Reason, f.Value))
	}
	return sb.String()
}

func (e *ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

func (e *ValidationErrors) add(key string, value any, reason string) {
	e.Fields = append(e.Fields, FieldError{Key: key, Value: value, Reason: reason})
}

func (e *ValidationErrors) orNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// Validate checks the settings used by the serve command.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if strings.TrimSpace(c.SourcePath) == "" {
		errs.add("source_path", c.SourcePath, "is required")
	}
	if c.StartStep < 0 {
		errs.add("start_step", c.StartStep, "must be >= 0")
	}
	if c.StartDelaySeconds < 0 {
		errs.add("start_delay_seconds", c.StartDelaySeconds, "must be >= 0")
	}
	if c.SpeedIntervalSeconds <= 0 {
		errs.add("speed_interval_seconds", c.SpeedIntervalSeconds, "must be > 0")
	}
	if c.ShardSize < 1 {
		errs.add("shard_size", c.ShardSize, "must be >= 1")
	}
	if c.BindPort < 1 || c.BindPort > 65535 {
		errs.add("bind_port", c.BindPort, "must be between 1 and 65535")
	}
	if _, err := c.LogLevel(); err != nil {
		errs.add("logging.level", c.Logging.Level, "is not a log level")
	}
	if err := c.Notify.Validate(); err != nil {
		errs.add("notify", c.Notify.Topic, err.Error())
	}

	return errs.orNil()
}

// ValidateFetch checks the settings used by the fetch command.
func (c *Config) ValidateFetch() error {
	errs := &ValidationErrors{}

	if c.ShardSize < 1 {
		errs.add("shard_size", c.ShardSize, "must be >= 1")
	}
	if c.Fetch.Workers < 1 {
		errs.add("fetch.workers", c.Fetch.Workers, "must be >= 1")
	}
	if c.Fetch.RatePerSecond < 1 {
		errs.add("fetch.rate_per_second", c.Fetch.RatePerSecond, "must be >= 1")
	}
	if c.Fetch.TimeoutSec < 1 {
		errs.add("fetch.timeout_sec", c.Fetch.TimeoutSec, "must be >= 1")
	}
	if c.Fetch.RetryCount < 0 {
		errs.add("fetch.retry_count", c.Fetch.RetryCount, "must be >= 0")
	}
	if c.Fetch.RetryDelay < 0 {
		errs.add("fetch.retry_delay_sec", c.Fetch.RetryDelay, "must be >= 0")
	}
	if err := c.Notify.Validate(); err != nil {
		errs.add("notify", c.Notify.Topic, err.Error())
	}

	return errs.orNil()
}

// CheckStartStep rejects a start step the loaded match cannot reach. An
// empty match only accepts start step 0.
func (c *Config) CheckStartStep(stepCount int) error {
	if c.StartStep == 0 || c.StartStep < stepCount {
		return nil
	}
	errs := &ValidationErrors{}
	errs.add("start_step", c.StartStep, fmt.Sprintf("must be below the match's %d steps", stepCount))
	return errs
}
