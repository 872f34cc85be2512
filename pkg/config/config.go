package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the bot reads from the environment.
type Config struct {
	// Discord
	DiscordToken    string
	PublicChannelID string
	AllowedAddRoles []string

	// Google Sheets
	ServiceAccountEmail string
	PrivateKey          string
	TasksSheetID        string
	CompletionsSheetID  string
	LogSheetID          string

	// Polling
	FastPollInterval time.Duration
	SlowPollInterval time.Duration

	// Cache
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	// Logging
	LogLevel string
	LogFile  string

	// Timezone used for completion log timestamps.
	Timezone string
}

// Load reads configuration from the environment (and a .env file if one
// exists) and validates that every required identifier is present. A
// validation error here is fatal: the process must not start scheduling
// with missing credentials.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:    os.Getenv("DISCORD_TOKEN"),
		PublicChannelID: os.Getenv("DISCORD_PUBLIC_CHANNEL_ID"),
		AllowedAddRoles: getListEnv("ALLOWED_ADD_ROLES", []string{"Boss"}),

		ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
		PrivateKey:          os.Getenv("GOOGLE_PRIVATE_KEY"),
		TasksSheetID:        os.Getenv("GOOGLE_SHEET_1_ID"),
		CompletionsSheetID:  os.Getenv("GOOGLE_SHEET_2_ID"),
		LogSheetID:          os.Getenv("GOOGLE_SHEET_3_ID"),

		FastPollInterval: getDurationEnv("FAST_POLL_INTERVAL", time.Minute),
		SlowPollInterval: getDurationEnv("SLOW_POLL_INTERVAL", 10*time.Minute),

		CacheTTL:           getDurationEnv("CACHE_TTL", 5*time.Minute),
		CacheSweepInterval: getDurationEnv("CACHE_SWEEP_INTERVAL", 30*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "logs/bot.log"),

		Timezone: getEnv("TIMEZONE", "Asia/Ho_Chi_Minh"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := []struct {
		name, value string
	}{
		{"DISCORD_TOKEN", c.DiscordToken},
		{"DISCORD_PUBLIC_CHANNEL_ID", c.PublicChannelID},
		{"GOOGLE_SERVICE_ACCOUNT_EMAIL", c.ServiceAccountEmail},
		{"GOOGLE_PRIVATE_KEY", c.PrivateKey},
		{"GOOGLE_SHEET_1_ID", c.TasksSheetID},
		{"GOOGLE_SHEET_2_ID", c.CompletionsSheetID},
		{"GOOGLE_SHEET_3_ID", c.LogSheetID},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC if the
// name is unknown rather than refusing to start.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
