package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Default tracked-ID set, fall 2024 season.
const defaultAnimeIDs = "50306,52215,52995,53033,53287,54726,54853,55071," +
	"55150,55823,55887,55994,56228,56647,56784,56843,56894,56964,57066," +
	"57181,57360,57533,57554,57611,57635,57891,57944,58172,58572,58714," +
	"59131,59145,59425"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Metadata API settings
	ClientID string

	// Season settings
	SeasonCode          string
	AceCap              int
	SeasonStartOverride string // YYYY-MM-DD, Monday of the first season week
	SeasonNameOverride  string

	// Data collection settings
	AnimeIDs          string // comma-separated tracked IDs
	SecondaryAnimeIDs string // optional secondary tracked list
	EnablePosts       bool

	// Report settings
	SortColumn string
	OutputDir  string

	// Console settings
	Verbosity   int
	LogFilePath string // empty disables file logging

	// Network settings
	MaxConcurrency int
	RetryLimit     int
	SleepTimeSec   int
	RateLimitMs    int

	// Snapshot storage settings
	EnableDB         bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		ClientID: getEnv("MAL_CLIENT_ID", ""),

		SeasonCode:          getEnv("SEASON_CODE", "24fall"),
		AceCap:              getEnvInt("ACE_CAP", 70000),
		SeasonStartOverride: getEnv("SEASON_START_OVERRIDE", ""),
		SeasonNameOverride:  getEnv("SEASON_NAME_OVERRIDE", ""),

		AnimeIDs:          getEnv("ANIME_IDS", defaultAnimeIDs),
		SecondaryAnimeIDs: getEnv("SECONDARY_ANIME_IDS", ""),
		EnablePosts:       getEnvBool("ENABLE_POSTS", false),

		SortColumn: getEnv("SORT_COLUMN", "id"),
		OutputDir:  getEnv("OUTPUT_DIR", "./output"),

		Verbosity:   getEnvInt("VERBOSITY", 1),
		LogFilePath: getEnv("LOG_FILE", ""),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 9999),
		RetryLimit:     getEnvInt("RETRY_LIMIT", 3),
		SleepTimeSec:   getEnvInt("SLEEP_TIME", 20),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 0),

		EnableDB:         getEnvBool("ENABLE_DB", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "fal_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// ParseIDList parses a comma-separated list of numeric title IDs. An empty
// string yields an empty list; any non-numeric entry is an error.
func ParseIDList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid title ID %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
