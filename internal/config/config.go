// Package config loads configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime settings. Every threshold the orchestrator applies is
// tunable here; the zero-config defaults are the shipped values.
type Config struct {
	DatabaseURL  string
	GoogleAPIKey string
	XAIAPIKey    string
	OpenAIAPIKey string
	CatalogPath  string
	LLMModel     string
	XAIModel     string
	OpenAIModel  string
	// MonitorProviders are provider names restricted to monitoring; they
	// never produce visible room output.
	MonitorProviders []string

	EmbeddingModel      string
	MemoryTopK          int
	SimilarityThreshold float64

	// Scheduling.
	PulseMin            time.Duration
	PulseMax            time.Duration
	StaggerMin          time.Duration
	StaggerMax          time.Duration
	MentionReplyMin     time.Duration
	MentionReplyMax     time.Duration
	GreetFirstReplyMin  time.Duration
	GreetFirstReplyMax  time.Duration
	GreetSecondReplyMin time.Duration
	GreetSecondReplyMax time.Duration
	UrgentReplyDelay    time.Duration
	NormalReplyDelay    time.Duration
	PresenceUpperBound  int

	// Rotation.
	RotationInterval  time.Duration
	ActiveFractionMin float64
	ActiveFractionMax float64
	ActiveFloor       int

	// Spam guard.
	MinSendDelay        time.Duration
	PenaltyWindow       time.Duration
	DedupWindow         time.Duration
	BurstWindow         time.Duration
	OwnSimilarity       float64
	BurstSimilarity     float64
	SaturationWindow    int
	SaturationThreshold int

	// Ledgers.
	TopicCooldown  time.Duration
	GreetingLimit  int
	GreetingWindow time.Duration

	// Generation.
	ProviderTimeout  time.Duration
	PolicyRetries    int
	HistoryLimit     int
	RecentSpeakers   int
	AmbientCharLimit int
	AmbientWordLimit int
	DirectCharLimit  int
	DirectWordLimit  int
}

// Load reads env vars, applies defaults, and validates required fields.
func Load() Config {
	cfg := Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		XAIAPIKey:    os.Getenv("XAI_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		CatalogPath:  os.Getenv("CATALOG_PATH"),
		LLMModel:     os.Getenv("LLM_MODEL"),
		XAIModel:     os.Getenv("XAI_MODEL"),
		OpenAIModel:  os.Getenv("OPENAI_MODEL"),

		EmbeddingModel:      os.Getenv("EMBEDDING_MODEL"),
		MemoryTopK:          getEnvInt("MEMORY_TOP_K", 5),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.7),

		PulseMin:            getEnvDuration("PULSE_MIN", 30*time.Second),
		PulseMax:            getEnvDuration("PULSE_MAX", 60*time.Second),
		StaggerMin:          getEnvDuration("STAGGER_MIN", 15*time.Second),
		StaggerMax:          getEnvDuration("STAGGER_MAX", 30*time.Second),
		MentionReplyMin:     getEnvDuration("MENTION_REPLY_MIN", 1500*time.Millisecond),
		MentionReplyMax:     getEnvDuration("MENTION_REPLY_MAX", 3*time.Second),
		GreetFirstReplyMin:  getEnvDuration("GREET_FIRST_REPLY_MIN", 2*time.Second),
		GreetFirstReplyMax:  getEnvDuration("GREET_FIRST_REPLY_MAX", 3*time.Second),
		GreetSecondReplyMin: getEnvDuration("GREET_SECOND_REPLY_MIN", 4*time.Second),
		GreetSecondReplyMax: getEnvDuration("GREET_SECOND_REPLY_MAX", 7*time.Second),
		UrgentReplyDelay:    getEnvDuration("URGENT_REPLY_DELAY", 2*time.Second),
		NormalReplyDelay:    getEnvDuration("NORMAL_REPLY_DELAY", 6*time.Second),
		PresenceUpperBound:  getEnvInt("PRESENCE_UPPER_BOUND", 25),

		RotationInterval:  getEnvDuration("ROTATION_INTERVAL", 3*time.Hour),
		ActiveFractionMin: getEnvFloat("ACTIVE_FRACTION_MIN", 0.30),
		ActiveFractionMax: getEnvFloat("ACTIVE_FRACTION_MAX", 0.40),
		ActiveFloor:       getEnvInt("ACTIVE_FLOOR", 5),

		MinSendDelay:        getEnvDuration("MIN_SEND_DELAY", 5*time.Second),
		PenaltyWindow:       getEnvDuration("PENALTY_WINDOW", time.Minute),
		DedupWindow:         getEnvDuration("DEDUP_WINDOW", time.Hour),
		BurstWindow:         getEnvDuration("BURST_WINDOW", 60*time.Second),
		OwnSimilarity:       getEnvFloat("OWN_SIMILARITY", 0.95),
		BurstSimilarity:     getEnvFloat("BURST_SIMILARITY", 0.70),
		SaturationWindow:    getEnvInt("SATURATION_WINDOW", 10),
		SaturationThreshold: getEnvInt("SATURATION_THRESHOLD", 4),

		TopicCooldown:  getEnvDuration("TOPIC_COOLDOWN", 96*time.Hour),
		GreetingLimit:  getEnvInt("GREETING_LIMIT", 2),
		GreetingWindow: getEnvDuration("GREETING_WINDOW", 3*time.Hour),

		ProviderTimeout:  getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		PolicyRetries:    getEnvInt("POLICY_RETRIES", 2),
		HistoryLimit:     getEnvInt("HISTORY_LIMIT", 25),
		RecentSpeakers:   getEnvInt("RECENT_SPEAKERS", 8),
		AmbientCharLimit: getEnvInt("AMBIENT_CHAR_LIMIT", 220),
		AmbientWordLimit: getEnvInt("AMBIENT_WORD_LIMIT", 40),
		DirectCharLimit:  getEnvInt("DIRECT_CHAR_LIMIT", 400),
		DirectWordLimit:  getEnvInt("DIRECT_WORD_LIMIT", 80),
	}

	if cfg.CatalogPath == "" {
		cfg.CatalogPath = "personas.yaml"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "gemini-2.5-flash"
	}
	if cfg.XAIModel == "" {
		cfg.XAIModel = "grok-4-fast"
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-004"
	}
	if raw := os.Getenv("MONITOR_PROVIDERS"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.MonitorProviders = append(cfg.MonitorProviders, name)
			}
		}
	}

	if cfg.GoogleAPIKey == "" {
		log.Fatal("GOOGLE_API_KEY environment variable is required")
	}

	return cfg
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
