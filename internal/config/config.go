// Package config provides configuration for the learnchat server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort      int   `toml:"http_port"`
	MaxUploadSize int64 `toml:"max_upload_bytes"`

	// Language model endpoint
	LLMMode    string        `toml:"llm_mode"`
	LLMBaseURL string        `toml:"llm_base_url"`
	LLMAPIKey  string        `toml:"llm_api_key"`
	LLMTimeout time.Duration `toml:"-"`
	Models     Models        `toml:"models"`

	// External collaborators
	TavilyAPIKey    string `toml:"tavily_api_key"`
	TavilyBaseURL   string `toml:"tavily_base_url"`
	MediaServiceURL string `toml:"media_service_url"`
	SelfBaseURL     string `toml:"self_base_url"`

	// Storage
	StorageDir  string `toml:"storage_dir"`
	PublicDir   string `toml:"public_dir"`
	DatabaseURL string `toml:"database_url"`

	// Chat loop
	ChatMaxSteps       int           `toml:"chat_max_steps"`
	StreamTextMaxSteps int           `toml:"stream_text_max_steps"`
	ChatMaxDuration    time.Duration `toml:"-"`
	ToolTimeout        time.Duration `toml:"-"`

	// Live course stream
	LivePollInterval time.Duration `toml:"-"`

	// Logging
	LogMode  string `toml:"log_mode"`
	LogLevel string `toml:"log_level"`
}

// Models names the model used by each endpoint family.
type Models struct {
	Chat       string `toml:"chat"`
	Structured string `toml:"structured"`
	Outline    string `toml:"outline"`
	Topics     string `toml:"topics"`
	Vision     string `toml:"vision"`
	Review     string `toml:"review"`
}

// fileDurations holds the duration settings, in milliseconds, of the TOML file.
type fileDurations struct {
	LLMTimeoutMs       int `toml:"llm_timeout_ms"`
	ChatMaxDurationMs  int `toml:"chat_max_duration_ms"`
	ToolTimeoutMs      int `toml:"tool_timeout_ms"`
	LivePollIntervalMs int `toml:"live_poll_interval_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPPort:      3000,
		MaxUploadSize: 10 << 20,
		LLMMode:       "openai",
		LLMBaseURL:    "http://localhost:1234/v1",
		LLMAPIKey:     "lm-studio",
		LLMTimeout:    120 * time.Second,
		Models: Models{
			Chat:       "qwen2.5-7b-instruct-1m",
			Structured: "qwq-32b",
			Outline:    "qwen2.5-14b-instruct@q8_0",
			Topics:     "qwen2.5-14b-instruct",
			Vision:     "llava-v1.5-7b",
			Review:     "qwen2.5-14b-instruct-1m@q8_0",
		},
		TavilyBaseURL:      "https://api.tavily.com",
		MediaServiceURL:    "http://localhost:8188",
		SelfBaseURL:        "http://localhost:3000",
		StorageDir:         "storage/courses",
		PublicDir:          "public",
		DatabaseURL:        "file:learnchat.db?cache=shared&mode=rwc",
		ChatMaxSteps:       15,
		StreamTextMaxSteps: 5,
		ChatMaxDuration:    30 * time.Second,
		ToolTimeout:        20 * time.Second,
		LivePollInterval:   5007 * time.Millisecond,
		LogMode:            "dev",
		LogLevel:           "info",
	}
}

// Load loads configuration from defaults, an optional TOML file named by
// CONFIG_FILE, .env files and environment variables, in that order.
func Load() (*Config, error) {
	// .env files never override variables that are already set.
	_ = godotenv.Load(".env.local", ".env")

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	var fc fileDurations
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	if fc.LLMTimeoutMs > 0 {
		cfg.LLMTimeout = time.Duration(fc.LLMTimeoutMs) * time.Millisecond
	}
	if fc.ChatMaxDurationMs > 0 {
		cfg.ChatMaxDuration = time.Duration(fc.ChatMaxDurationMs) * time.Millisecond
	}
	if fc.ToolTimeoutMs > 0 {
		cfg.ToolTimeout = time.Duration(fc.ToolTimeoutMs) * time.Millisecond
	}
	if fc.LivePollIntervalMs > 0 {
		cfg.LivePollInterval = time.Duration(fc.LivePollIntervalMs) * time.Millisecond
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.MaxUploadSize = int64(getEnvInt("MAX_UPLOAD_BYTES", int(cfg.MaxUploadSize)))

	cfg.LLMMode = getEnv("LLM_MODE", cfg.LLMMode)
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMTimeout = getEnvMillis("LLM_TIMEOUT_MS", cfg.LLMTimeout)
	cfg.Models.Chat = getEnv("CHAT_MODEL", cfg.Models.Chat)
	cfg.Models.Structured = getEnv("STRUCTURED_MODEL", cfg.Models.Structured)
	cfg.Models.Outline = getEnv("OUTLINE_MODEL", cfg.Models.Outline)
	cfg.Models.Topics = getEnv("TOPICS_MODEL", cfg.Models.Topics)
	cfg.Models.Vision = getEnv("VISION_MODEL", cfg.Models.Vision)
	cfg.Models.Review = getEnv("REVIEW_MODEL", cfg.Models.Review)

	cfg.TavilyAPIKey = getEnv("TVLY_API_KEY", cfg.TavilyAPIKey)
	cfg.TavilyBaseURL = getEnv("TVLY_BASE_URL", cfg.TavilyBaseURL)
	cfg.MediaServiceURL = getEnv("MEDIA_SERVICE_URL", cfg.MediaServiceURL)
	cfg.SelfBaseURL = getEnv("SELF_BASE_URL", cfg.SelfBaseURL)

	cfg.StorageDir = getEnv("STORAGE_DIR", cfg.StorageDir)
	cfg.PublicDir = getEnv("PUBLIC_DIR", cfg.PublicDir)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)

	cfg.ChatMaxSteps = getEnvInt("CHAT_MAX_STEPS", cfg.ChatMaxSteps)
	cfg.StreamTextMaxSteps = getEnvInt("STREAM_TEXT_MAX_STEPS", cfg.StreamTextMaxSteps)
	cfg.ChatMaxDuration = getEnvMillis("CHAT_MAX_DURATION_MS", cfg.ChatMaxDuration)
	cfg.ToolTimeout = getEnvMillis("TOOL_TIMEOUT_MS", cfg.ToolTimeout)
	cfg.LivePollInterval = getEnvMillis("LIVE_POLL_INTERVAL_MS", cfg.LivePollInterval)

	cfg.LogMode = getEnv("LOG_MODE", cfg.LogMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvMillis(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil && intVal > 0 {
			return time.Duration(intVal) * time.Millisecond
		}
	}
	return defaultVal
}
