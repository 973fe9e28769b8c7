package app

import (
	"time"

	"github.com/boxabirds/docqa/internal/pkg/envutil"
	"github.com/boxabirds/docqa/internal/pkg/logger"
	"github.com/boxabirds/docqa/internal/retrieval"
)

type Config struct {
	Port string

	EmbedEndpoints []string
	EmbedModel     string
	EmbedDim       int
	EmbedTimeout   time.Duration
	EmbedAPIKey    string
	EmbedCacheTTL  time.Duration

	ChatEndpoint  string
	ChatModel     string
	ChatMaxTokens int
	ChatAPIKey    string

	RequestDeadline  time.Duration
	PromptCharBudget int
	HistoryLimit     int

	Retrieval retrieval.Config
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port: envutil.String("PORT", "8080"),

		EmbedEndpoints: envutil.StringList("EMBED_ENDPOINTS", []string{"http://localhost:8001/v1"}),
		EmbedModel:     envutil.String("EMBED_MODEL", "BAAI/bge-m3"),
		EmbedDim:       envutil.Int("EMBED_DIM", 1024),
		EmbedTimeout:   time.Duration(envutil.Int("EMBED_TIMEOUT_SECS", 15)) * time.Second,
		EmbedAPIKey:    envutil.String("EMBED_API_KEY", ""),
		EmbedCacheTTL:  time.Duration(envutil.Int("EMBED_CACHE_TTL_SECS", 600)) * time.Second,

		ChatEndpoint:  envutil.String("CHAT_ENDPOINT", "http://localhost:8000/v1"),
		ChatModel:     envutil.String("CHAT_MODEL", "Qwen/Qwen2.5-7B-Instruct"),
		ChatMaxTokens: envutil.Int("CHAT_MAX_TOKENS", 1000),
		ChatAPIKey:    envutil.String("CHAT_API_KEY", ""),

		RequestDeadline:  time.Duration(envutil.Int("REQUEST_DEADLINE_SECS", 120)) * time.Second,
		PromptCharBudget: envutil.Int("PROMPT_CHAR_BUDGET", 24000),
		HistoryLimit:     envutil.Int("HISTORY_LIMIT", 10),

		Retrieval: retrieval.ConfigFromEnv(),
	}

	log.Info("Config loaded",
		"embed_model", cfg.EmbedModel,
		"embed_dim", cfg.EmbedDim,
		"embed_endpoints", len(cfg.EmbedEndpoints),
		"chat_model", cfg.ChatModel,
		"request_deadline", cfg.RequestDeadline.String(),
	)
	return cfg
}
