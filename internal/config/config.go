package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	CORS     CORSConfig
	Queue    QueueConfig
	Log      LogConfig
	Redis    RedisConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// QueueConfig holds the knobs of the patient queue core
type QueueConfig struct {
	TotalStations         int
	StationPolicy         string // "shared" or "exclusive"
	RecentCallsLimit      int
	RecentCallsFetchLimit int
	CalledBy              string
	RefreshInterval       time.Duration
	WriteTimeout          time.Duration
	Timezone              string // IANA name; sets where "completed today" starts
}

type LogConfig struct {
	Level  string
	Format string
}

// RedisConfig is optional; an empty Addr keeps the writer lock in-process
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockKey  string
	LockTTL  time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "clinic_queue"),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Queue: QueueConfig{
			TotalStations:         parseInt(getEnv("STATION_COUNT", "6"), 6),
			StationPolicy:         strings.ToLower(getEnv("STATION_POLICY", "shared")),
			RecentCallsLimit:      parseInt(getEnv("RECENT_CALLS_LIMIT", "10"), 10),
			RecentCallsFetchLimit: parseInt(getEnv("RECENT_CALLS_FETCH_LIMIT", "20"), 20),
			CalledBy:              getEnv("CALLED_BY", "System"),
			RefreshInterval:       parseDuration(getEnv("REFRESH_INTERVAL", "5s"), 5*time.Second),
			WriteTimeout:          parseDuration(getEnv("WRITE_TIMEOUT", "5s"), 5*time.Second),
			Timezone:              getEnv("CLINIC_TIMEZONE", "UTC"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			LockKey:  getEnv("REDIS_LOCK_KEY", "clinic-queue:writer"),
			LockTTL:  parseDuration(getEnv("REDIS_LOCK_TTL", "15s"), 15*time.Second),
		},
	}

	return config
}

// Validate rejects settings the queue core cannot run with
func (c *Config) Validate() error {
	if c.Queue.TotalStations < 1 {
		return fmt.Errorf("STATION_COUNT must be at least 1, got %d", c.Queue.TotalStations)
	}
	if c.Queue.StationPolicy != "shared" && c.Queue.StationPolicy != "exclusive" {
		return fmt.Errorf("STATION_POLICY must be 'shared' or 'exclusive', got %q", c.Queue.StationPolicy)
	}
	if c.Queue.RecentCallsLimit < 1 {
		return fmt.Errorf("RECENT_CALLS_LIMIT must be at least 1, got %d", c.Queue.RecentCallsLimit)
	}
	if c.Queue.RecentCallsFetchLimit < c.Queue.RecentCallsLimit {
		return fmt.Errorf("RECENT_CALLS_FETCH_LIMIT (%d) must not be below RECENT_CALLS_LIMIT (%d)",
			c.Queue.RecentCallsFetchLimit, c.Queue.RecentCallsLimit)
	}
	if c.Queue.WriteTimeout <= 0 {
		return fmt.Errorf("WRITE_TIMEOUT must be positive")
	}
	if _, err := c.Queue.Location(); err != nil {
		return fmt.Errorf("CLINIC_TIMEZONE is not a known time zone: %w", err)
	}
	// a writer holds the lock for one write plus one refresh, each bounded by WRITE_TIMEOUT
	if c.Redis.Addr != "" && c.Redis.LockTTL <= 2*c.Queue.WriteTimeout {
		return fmt.Errorf("REDIS_LOCK_TTL (%s) must exceed twice WRITE_TIMEOUT (%s)",
			c.Redis.LockTTL, c.Queue.WriteTimeout)
	}
	return nil
}

// Location resolves Timezone, defaulting to UTC
func (q QueueConfig) Location() (*time.Location, error) {
	if q.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(q.Timezone)
}

// DSN builds the MySQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		fmt.Printf("Warning: Invalid duration format '%s', using default\n", s)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		fmt.Printf("Warning: Invalid integer '%s', using default\n", s)
		return fallback
	}
	return n
}

func parseOrigins(s string) []string {
	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
