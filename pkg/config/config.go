// Package config reads runtime settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Env      string // APP_ENV: "production" switches logs to JSON
	LogLevel string // ZENO_LOG_LEVEL

	// MaxTasks bounds concurrently running tasks. 0 keeps the default of
	// one OS thread per task with no limit.
	MaxTasks int

	// ShutdownGrace is how long `zeno run` waits for live tasks after the
	// main script returns. Zero waits without a limit.
	ShutdownGrace time.Duration

	// MetricsAddr enables the /metrics and /healthz listener when set.
	MetricsAddr string
}

const defaultShutdownGrace = 30 * time.Second

// Load reads files (default ".env") into the environment without
// overriding variables that are already set, then builds a Config. Missing
// files are not an error.
func Load(files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	cfg := Config{
		Env:           os.Getenv("APP_ENV"),
		LogLevel:      os.Getenv("ZENO_LOG_LEVEL"),
		MaxTasks:      cast.ToInt(os.Getenv("ZENO_MAX_TASKS")),
		ShutdownGrace: defaultShutdownGrace,
		MetricsAddr:   os.Getenv("ZENO_METRICS_ADDR"),
	}
	if cfg.MaxTasks < 0 {
		cfg.MaxTasks = 0
	}
	if raw := os.Getenv("ZENO_SHUTDOWN_GRACE"); raw != "" {
		if d, err := cast.ToDurationE(raw); err == nil && d >= 0 {
			cfg.ShutdownGrace = d
		}
	}
	return cfg
}
