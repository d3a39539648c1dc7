package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr       string
	BackendBaseURL string
	BackendTimeout time.Duration

	ServicesPath string
	StatePath    string

	IncidentsInterval     time.Duration
	AlertsInterval        time.Duration
	NotificationsInterval time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}

func Load() Config {
	return Config{
		HTTPAddr:       getenv("RESILICORE_HTTP_ADDR", ":8080"),
		BackendBaseURL: getenv("RESILICORE_BACKEND_URL", "http://localhost:3001"),
		BackendTimeout: getduration("RESILICORE_BACKEND_TIMEOUT", 10*time.Second),

		ServicesPath: getenv("RESILICORE_SERVICES_PATH", "config/services.yaml"),
		StatePath:    getenv("RESILICORE_STATE_PATH", "state.yaml"),

		IncidentsInterval:     getduration("RESILICORE_INCIDENTS_INTERVAL", 15*time.Second),
		AlertsInterval:        getduration("RESILICORE_ALERTS_INTERVAL", 20*time.Second),
		NotificationsInterval: getduration("RESILICORE_NOTIFICATIONS_INTERVAL", 30*time.Second),
	}
}
