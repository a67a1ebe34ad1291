package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	STT      STTConfig
	LLM      LLMConfig
	Chat     ChatConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type STTConfig struct {
	Backend       string // "openai" or "local"
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	LocalBaseURL  string // default: "http://localhost:8178"
	Language      string
}

type LLMConfig struct {
	Provider     string // "openai", "anthropic" or "ollama"
	OpenAIKey    string
	AnthropicKey string
	OllamaURL    string
	Model        string
}

type ChatConfig struct {
	MaxMessageLen   int // reject user messages longer than this
	HistoryLimit    int // prior turns read back for context, 0 = all
	ContextMaxChars int // character budget for the assembled prompt
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxMessageLen, err := getEnvInt("CHAT_MAX_MESSAGE_LEN", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_MAX_MESSAGE_LEN: %w", err)
	}

	historyLimit, err := getEnvInt("CHAT_HISTORY_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_HISTORY_LIMIT: %w", err)
	}

	contextMaxChars, err := getEnvInt("CHAT_CONTEXT_MAX_CHARS", 48000)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_CONTEXT_MAX_CHARS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		STT: STTConfig{
			Backend:       getEnv("STT_BACKEND", "openai"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("STT_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("STT_OPENAI_MODEL", ""),
			LocalBaseURL:  getEnv("STT_LOCAL_BASE_URL", "http://localhost:8178"),
			Language:      getEnv("STT_LANGUAGE", ""),
		},
		LLM: LLMConfig{
			Provider:     getEnv("LLM_PROVIDER", "openai"),
			OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
			AnthropicKey: getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:    getEnv("OLLAMA_URL", "http://localhost:11434"),
			Model:        getEnv("LLM_MODEL", "gpt-4o"),
		},
		Chat: ChatConfig{
			MaxMessageLen:   maxMessageLen,
			HistoryLimit:    historyLimit,
			ContextMaxChars: contextMaxChars,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	needsOpenAI := (c.STT.Backend == "openai" && c.STT.OpenAIKey == "") ||
		(c.LLM.Provider == "openai" && c.LLM.OpenAIKey == "")
	if needsOpenAI {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.LLM.Provider == "anthropic" && c.LLM.AnthropicKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
