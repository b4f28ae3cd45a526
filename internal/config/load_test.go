package config

import (
	"testing"
	"time"
)

const fullConfigYAML = `log_level: debug
log_file: /var/log/test.log
log_rotation:
  max_size_mb: 5
  max_backups: 7
  max_age_days: 14
  compress: true
practicum:
  endpoint: https://review.example.com/api/statuses/
  timeout: 10
telegram:
  chat_id: "-1001234567890"
  api_server: http://127.0.0.1:8081
poll:
  interval: 300
notify:
  error_alerts: true
  min_interval_ms: 250
  burst: 2
daemon:
  http_port: 8080
  http_bind: "0.0.0.0"
  shutdown_timeout: 60
  pid_file: /tmp/test.pid
  metrics:
    collection_interval: 30
`

func TestLoadFromPath_FullFile(t *testing.T) {
	isolateConfig(t)
	path := writeConfigFile(t, t.TempDir(), fullConfigYAML)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	want := Config{
		LogLevel:    "debug",
		LogFile:     "/var/log/test.log",
		LogRotation: LogRotationConfig{MaxSizeMB: 5, MaxBackups: 7, MaxAgeDays: 14, Compress: true},
		Practicum:   PracticumConfig{Endpoint: "https://review.example.com/api/statuses/", Timeout: 10},
		Telegram:    TelegramConfig{ChatID: "-1001234567890", APIServer: "http://127.0.0.1:8081"},
		Poll:        PollConfig{Interval: 300},
		Notify:      NotifyConfig{ErrorAlerts: true, MinIntervalMs: 250, Burst: 2},
		Daemon: DaemonConfig{
			HTTPPort:        8080,
			HTTPBind:        "0.0.0.0",
			ShutdownTimeout: 60,
			PIDFile:         "/tmp/test.pid",
			Metrics:         MetricsConfig{CollectionInterval: 30},
		},
	}
	if *cfg != want {
		t.Errorf("LoadFromPath() =\n%+v\nwant\n%+v", *cfg, want)
	}
	if cfg.Practicum.TimeoutDuration() != 10*time.Second || cfg.Notify.MinInterval() != 250*time.Millisecond {
		t.Errorf("durations = %v, %v", cfg.Practicum.TimeoutDuration(), cfg.Notify.MinInterval())
	}
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	isolateConfig(t)
	path := writeConfigFile(t, t.TempDir(), "log_level: warn\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	want := NewDefaultConfig()
	want.LogLevel = "warn"
	if *cfg != want {
		t.Errorf("LoadFromPath() = %+v, want defaults with log_level=warn", *cfg)
	}
}

func TestLoadFromPath_SecretsFromEnv(t *testing.T) {
	isolateConfig(t)
	t.Setenv("PRACTICUM_TOKEN", "legacy-practicum")
	t.Setenv("HWNOTIFY_TELEGRAM_TOKEN", "prefixed-telegram")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	path := writeConfigFile(t, t.TempDir(), "poll:\n  interval: 60\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Practicum.Token != "legacy-practicum" || cfg.Telegram.Token != "prefixed-telegram" || cfg.Telegram.ChatID != "42" {
		t.Errorf("secrets = %q %q %q", cfg.Practicum.Token, cfg.Telegram.Token, cfg.Telegram.ChatID)
	}
	if err := cfg.RequireSecrets(); err != nil {
		t.Errorf("RequireSecrets() = %v", err)
	}
}

func TestLoadFromPath_Errors(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantValidation bool
	}{
		{"invalid yaml", "invalid: [yaml: content", false},
		{"port out of range", "daemon:\n  http_port: 99999\n", true},
		{"chat id not numeric", "telegram:\n  chat_id: homework\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			_, err := LoadFromPath(writeConfigFile(t, t.TempDir(), tt.content))
			if err == nil {
				t.Fatal("LoadFromPath() expected error")
			}
			if IsValidationError(err) != tt.wantValidation {
				t.Errorf("IsValidationError(%v) = %v, want %v", err, !tt.wantValidation, tt.wantValidation)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFromPath("/nonexistent/config.yaml"); err == nil {
			t.Fatal("LoadFromPath() expected error for missing file")
		}
	})
}

func TestLoadWithDefaults(t *testing.T) {
	cfg := LoadWithDefaults()

	if *cfg != NewDefaultConfig() {
		t.Errorf("LoadWithDefaults() = %+v", *cfg)
	}
	if cfg.Notify.ErrorAlerts {
		t.Error("error alerts should be opt-in")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}
