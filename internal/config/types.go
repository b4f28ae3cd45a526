package config

import "time"

// Config is the root configuration structure for the application.
type Config struct {
	LogLevel    string            `yaml:"log_level" mapstructure:"log_level"`
	LogFile     string            `yaml:"log_file" mapstructure:"log_file"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	Practicum   PracticumConfig   `yaml:"practicum" mapstructure:"practicum"`
	Telegram    TelegramConfig    `yaml:"telegram" mapstructure:"telegram"`
	Poll        PollConfig        `yaml:"poll" mapstructure:"poll"`
	Notify      NotifyConfig      `yaml:"notify" mapstructure:"notify"`
	Daemon      DaemonConfig      `yaml:"daemon" mapstructure:"daemon"`
}

// LogRotationConfig controls rotation of the JSON log file.
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// PracticumConfig holds review API settings.
type PracticumConfig struct {
	Token    string `yaml:"token,omitempty" mapstructure:"token"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c PracticumConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TelegramConfig holds bot credentials and the notification destination.
type TelegramConfig struct {
	Token     string `yaml:"token,omitempty" mapstructure:"token"`
	ChatID    string `yaml:"chat_id,omitempty" mapstructure:"chat_id"`
	APIServer string `yaml:"api_server,omitempty" mapstructure:"api_server"`
}

// PollConfig holds poll loop settings.
type PollConfig struct {
	Interval int `yaml:"interval" mapstructure:"interval"` // seconds
}

// IntervalDuration returns Interval as a time.Duration.
func (c PollConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// NotifyConfig holds delivery settings.
type NotifyConfig struct {
	ErrorAlerts   bool `yaml:"error_alerts" mapstructure:"error_alerts"`
	MinIntervalMs int  `yaml:"min_interval_ms" mapstructure:"min_interval_ms"` // 0 = unlimited
	Burst         int  `yaml:"burst" mapstructure:"burst"`
}

// MinInterval returns MinIntervalMs as a time.Duration.
func (c NotifyConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	HTTPPort        int           `yaml:"http_port" mapstructure:"http_port"`
	HTTPBind        string        `yaml:"http_bind" mapstructure:"http_bind"`
	ShutdownTimeout int           `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	PIDFile         string        `yaml:"pid_file" mapstructure:"pid_file"`
	Metrics         MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// MetricsConfig holds metrics collection configuration.
type MetricsConfig struct {
	CollectionInterval int `yaml:"collection_interval" mapstructure:"collection_interval"`
}

// Redacted returns a copy with secrets masked, suitable for display.
func (c Config) Redacted() Config {
	c.Practicum.Token = redact(c.Practicum.Token)
	c.Telegram.Token = redact(c.Telegram.Token)
	return c
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
