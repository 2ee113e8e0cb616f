package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every tunable the engine reads from the environment.
// Values are resolved once at startup so the rest of the code never
// reaches for os.Getenv directly.
type Config struct {
	Port string

	// Storage
	UseMemoryStore bool

	// Cache
	RedisAddr       string
	RedisPassword   string
	DefaultCacheTTL time.Duration

	// Transport (Twilio WhatsApp)
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
	PublicBaseURL      string
	MediaDir           string

	// AI provider
	OpenAIAPIKey string
	ChatModel    string

	// Router tunables
	DefaultCountryCode string
	HistoryLimit       int
	RateLimitPerWindow int
	RateLimitWindow    time.Duration
	DedupTTL           time.Duration
	WelcomeTTL         time.Duration
	SessionIdleTTL     time.Duration
	AIResponseTTL      time.Duration

	// Admin API
	AdminAPIKey string
}

// Load reads the environment into a Config, applying defaults for
// anything unset.
func Load() *Config {
	return &Config{
		Port: envString("PORT", "8080"),

		UseMemoryStore: envString("USE_MEMORY_STORE", "") == "true",

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		DefaultCacheTTL: envDuration("CACHE_TTL_SECONDS", 300*time.Second),

		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"),
		PublicBaseURL:      envString("PUBLIC_BASE_URL", "http://localhost:8080"),
		MediaDir:           envString("MEDIA_DIR", os.TempDir()),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		ChatModel:    envString("CHAT_MODEL", "gpt-4o-mini"),

		DefaultCountryCode: envString("DEFAULT_COUNTRY_CODE", "57"),
		HistoryLimit:       envInt("HISTORY_LIMIT", 10),
		RateLimitPerWindow: envInt("RATE_LIMIT_PER_MINUTE", 20),
		RateLimitWindow:    60 * time.Second,
		DedupTTL:           envDuration("DEDUP_TTL_SECONDS", 10*time.Second),
		WelcomeTTL:         envHours("WELCOME_TTL_HOURS", 24*time.Hour),
		SessionIdleTTL:     envDuration("SESSION_IDLE_SECONDS", 30*time.Minute),
		AIResponseTTL:      envDuration("AI_RESPONSE_TTL_SECONDS", 300*time.Second),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func envHours(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Hour
		}
	}
	return fallback
}
