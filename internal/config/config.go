package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env               string
	HTTPPort          string
	APIBaseURL        string
	APITimeout        time.Duration
	RedisAddr         string
	QueueBackend      string
	RecentBackend     string
	SessionIssuer     string
	SessionSigningKey string
	SessionTTL        time.Duration
	SessionIdle       time.Duration
	RateLimitPerMin   int
	Timezone          string
	LateCutoff        string
	NotifyDismiss     time.Duration
	CORSOrigins       []string
}

// Load returns application config populated from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() App {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env file")
	}
	return App{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPPort:          getEnv("HTTP_PORT", "8081"),
		APIBaseURL:        strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		APITimeout:        durationEnv("API_TIMEOUT", 15*time.Second),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		QueueBackend:      getEnv("QUEUE_BACKEND", "redis"),
		RecentBackend:     getEnv("RECENT_BACKEND", "redis"),
		SessionIssuer:     getEnv("SESSION_ISSUER", "church-attendance"),
		SessionSigningKey: getEnv("SESSION_SIGNING_KEY", "dev-signing-secret-change"),
		SessionTTL:        durationEnv("SESSION_TTL", 30*24*time.Hour),
		SessionIdle:       durationEnv("SESSION_IDLE", 2*time.Hour),
		RateLimitPerMin:   intEnv("RATE_LIMIT_PER_MIN", 240),
		Timezone:          getEnv("TIMEZONE", "Asia/Seoul"),
		LateCutoff:        getEnv("LATE_CUTOFF", "09:00"),
		NotifyDismiss:     durationEnv("NOTIFY_DISMISS", 3*time.Second),
		CORSOrigins:       listEnv("CORS_ORIGINS", []string{"http://localhost:3000"}),
	}
}

// Location resolves Timezone, falling back to UTC when the zone database lacks it.
func (a App) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		log.Printf("invalid timezone %q: %v, using UTC", a.Timezone, err)
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Production reports whether the server runs in release mode.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod" || boolEnv("FORCE_RELEASE", false)
}
