package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultLogLevel = "info"
	DefaultLogFile  = "~/.config/hwnotify/hwnotify.log"

	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
	DefaultLogCompress   = false

	DefaultPracticumEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultPracticumTimeout  = 30 // seconds

	DefaultPollInterval = 600 // seconds

	DefaultNotifyErrorAlerts   = false
	DefaultNotifyMinIntervalMs = 1000
	DefaultNotifyBurst         = 1

	DefaultDaemonHTTPPort        = 7610
	DefaultDaemonHTTPBind        = "127.0.0.1"
	DefaultDaemonShutdownTimeout = 30 // seconds
	DefaultDaemonPIDFile         = "~/.config/hwnotify/daemon.pid"
	DefaultDaemonMetricsInterval = 15 // seconds
)

// legacyEnv maps secret keys to the unprefixed variable names accepted for
// compatibility with existing deployments.
var legacyEnv = map[string]string{
	"practicum.token":  "PRACTICUM_TOKEN",
	"telegram.token":   "TELEGRAM_TOKEN",
	"telegram.chat_id": "TELEGRAM_CHAT_ID",
}

// NewDefaultConfig returns a Config populated with default values and no secrets.
func NewDefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		LogFile:  DefaultLogFile,
		LogRotation: LogRotationConfig{
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   DefaultLogCompress,
		},
		Practicum: PracticumConfig{
			Endpoint: DefaultPracticumEndpoint,
			Timeout:  DefaultPracticumTimeout,
		},
		Poll: PollConfig{
			Interval: DefaultPollInterval,
		},
		Notify: NotifyConfig{
			ErrorAlerts:   DefaultNotifyErrorAlerts,
			MinIntervalMs: DefaultNotifyMinIntervalMs,
			Burst:         DefaultNotifyBurst,
		},
		Daemon: DaemonConfig{
			HTTPPort:        DefaultDaemonHTTPPort,
			HTTPBind:        DefaultDaemonHTTPBind,
			ShutdownTimeout: DefaultDaemonShutdownTimeout,
			PIDFile:         DefaultDaemonPIDFile,
			Metrics: MetricsConfig{
				CollectionInterval: DefaultDaemonMetricsInterval,
			},
		},
	}
}

// setViperDefaults registers all default configuration values with a viper instance.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", DefaultLogFile)
	v.SetDefault("log_rotation.max_size_mb", DefaultLogMaxSizeMB)
	v.SetDefault("log_rotation.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log_rotation.max_age_days", DefaultLogMaxAgeDays)
	v.SetDefault("log_rotation.compress", DefaultLogCompress)

	// Secrets have empty defaults so env-only values are seen by Unmarshal
	v.SetDefault("practicum.token", "")
	v.SetDefault("practicum.endpoint", DefaultPracticumEndpoint)
	v.SetDefault("practicum.timeout", DefaultPracticumTimeout)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_server", "")

	v.SetDefault("poll.interval", DefaultPollInterval)

	v.SetDefault("notify.error_alerts", DefaultNotifyErrorAlerts)
	v.SetDefault("notify.min_interval_ms", DefaultNotifyMinIntervalMs)
	v.SetDefault("notify.burst", DefaultNotifyBurst)

	v.SetDefault("daemon.http_port", DefaultDaemonHTTPPort)
	v.SetDefault("daemon.http_bind", DefaultDaemonHTTPBind)
	v.SetDefault("daemon.shutdown_timeout", DefaultDaemonShutdownTimeout)
	v.SetDefault("daemon.pid_file", DefaultDaemonPIDFile)
	v.SetDefault("daemon.metrics.collection_interval", DefaultDaemonMetricsInterval)
}

// bindLegacyEnv lets the unprefixed secret variables satisfy the secret keys.
// The prefixed name stays first so it wins when both are set.
func bindLegacyEnv(v *viper.Viper) {
	for key, legacy := range legacyEnv {
		_ = v.BindEnv(key, envName(key), legacy)
	}
}
