package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"vkr-topics/api/internal/llm"
	"vkr-topics/api/internal/llm/engines"
	"vkr-topics/api/internal/topic"
)

const DefaultModel = "openrouter:deepseek/deepseek-chat-v3.1:free"

type Config struct {
	Port string

	DefaultModel     string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	OpenRouterAPIKey string
	GeminiAPIKey     string
	Temperature      float32
	LLMTimeout       time.Duration
	PromptDir        string

	DatabaseURL      string
	TelegramBotToken string
	WebhookURL       string

	DefaultTopicsCount  int
	MaxTopicsPerRequest int

	LogLevel  string
	LogFormat string
}

func mustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("missing required env %s", k)
	}
	return v, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getIntEnv(k string, def int) (int, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", k, err)
	}
	return n, nil
}

func getFloatEnv(k string, def float32) (float32, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", k, err)
	}
	return float32(f), nil
}

func getDurationEnv(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", k, err)
	}
	return d, nil
}

// Load читает .env (если есть) и переменные окружения. Вызывается один раз при старте.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DefaultModel:     getEnv("DEFAULT_MODEL", DefaultModel),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		PromptDir:        getEnv("PROMPT_DIR", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.Temperature, err = getFloatEnv("LLM_TEMPERATURE", llm.DefaultTemperature); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getDurationEnv("LLM_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.DefaultTopicsCount, err = getIntEnv("DEFAULT_TOPICS_COUNT", 5); err != nil {
		return nil, err
	}
	if cfg.MaxTopicsPerRequest, err = getIntEnv("MAX_TOPICS_PER_REQUEST", 10); err != nil {
		return nil, err
	}

	if cfg.MaxTopicsPerRequest < 1 || cfg.MaxTopicsPerRequest > topic.MaxCount {
		cfg.MaxTopicsPerRequest = topic.MaxCount
	}
	if cfg.DefaultTopicsCount < 1 {
		cfg.DefaultTopicsCount = 1
	}
	cfg.DefaultTopicsCount = min(cfg.DefaultTopicsCount, cfg.MaxTopicsPerRequest)
	return cfg, nil
}

// RequireTelegram checks the settings the bot binary cannot start without.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken != "" {
		return nil
	}
	_, err := mustEnv("TELEGRAM_BOT_TOKEN")
	return err
}

// Keys собирает ключи провайдеров для фабрики движков.
func (c *Config) Keys() engines.Keys {
	return engines.Keys{
		OpenAI:     c.OpenAIAPIKey,
		Anthropic:  c.AnthropicAPIKey,
		OpenRouter: c.OpenRouterAPIKey,
		Gemini:     c.GeminiAPIKey,
		Timeout:    c.LLMTimeout,
	}
}

// ClampCount maps an adapter-supplied count into 1..MaxTopicsPerRequest; zero or less means the default.
func (c *Config) ClampCount(n int) int {
	if n <= 0 {
		return c.DefaultTopicsCount
	}
	return min(n, c.MaxTopicsPerRequest)
}

// NewLogger builds the root logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithField("log_level", c.LogLevel).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
