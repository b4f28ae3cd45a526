package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ValidationError represents a config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("config validation failed:\n")
	for _, err := range e {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// checker accumulates field failures for Validate.
type checker struct {
	errs ValidationErrors
}

func (c *checker) failf(field, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) min(field string, got, lo int, unit string) {
	if got < lo {
		c.failf(field, "must be at least %d%s, got %d", lo, unit, got)
	}
}

func (c *checker) nonEmpty(field, got string) {
	if got == "" {
		c.failf(field, "must not be empty")
	}
}

func (c *checker) absURL(field, got string, schemes ...string) {
	u, err := url.Parse(got)
	if err == nil && u.Host != "" && (len(schemes) == 0 || slices.Contains(schemes, u.Scheme)) && u.Scheme != "" {
		return
	}
	if len(schemes) > 0 {
		c.failf(field, "must be an absolute %s URL, got %q", strings.Join(schemes, "/"), got)
		return
	}
	c.failf(field, "must be an absolute URL, got %q", got)
}

// Validate checks every setting and returns all failures at once as
// ValidationErrors. Secrets are checked separately by RequireSecrets.
func Validate(cfg *Config) error {
	var c checker

	if !slices.Contains(validLogLevels, strings.ToLower(cfg.LogLevel)) {
		c.failf("log_level", "must be one of: %s; got %q", strings.Join(validLogLevels, ", "), cfg.LogLevel)
	}
	c.min("log_rotation.max_size_mb", cfg.LogRotation.MaxSizeMB, 1, "")
	c.min("log_rotation.max_backups", cfg.LogRotation.MaxBackups, 0, "")
	c.min("log_rotation.max_age_days", cfg.LogRotation.MaxAgeDays, 0, "")

	c.absURL("practicum.endpoint", cfg.Practicum.Endpoint, "http", "https")
	c.min("practicum.timeout", cfg.Practicum.Timeout, 1, "s")

	if cfg.Telegram.ChatID != "" && !validChatID(cfg.Telegram.ChatID) {
		c.failf("telegram.chat_id", "must be a numeric id or @username, got %q", cfg.Telegram.ChatID)
	}
	if cfg.Telegram.APIServer != "" {
		c.absURL("telegram.api_server", cfg.Telegram.APIServer)
	}

	c.min("poll.interval", cfg.Poll.Interval, 1, "s")
	c.min("notify.min_interval_ms", cfg.Notify.MinIntervalMs, 0, "ms")
	c.min("notify.burst", cfg.Notify.Burst, 1, "")

	if p := cfg.Daemon.HTTPPort; p < 1 || p > 65535 {
		c.failf("daemon.http_port", "must be between 1 and 65535, got %d", p)
	}
	c.nonEmpty("daemon.http_bind", cfg.Daemon.HTTPBind)
	c.min("daemon.shutdown_timeout", cfg.Daemon.ShutdownTimeout, 1, "s")
	c.nonEmpty("daemon.pid_file", cfg.Daemon.PIDFile)
	c.min("daemon.metrics.collection_interval", cfg.Daemon.Metrics.CollectionInterval, 1, "s")

	if len(c.errs) > 0 {
		return c.errs
	}
	return nil
}

func validChatID(s string) bool {
	if strings.HasPrefix(s, "@") {
		return len(s) > 1
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}
