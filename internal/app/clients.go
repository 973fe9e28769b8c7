package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/boxabirds/docqa/internal/clients/embed"
	"github.com/boxabirds/docqa/internal/clients/genai"
	"github.com/boxabirds/docqa/internal/clients/redcache"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

type Clients struct {
	Embedder   embed.Embedder
	Generator  genai.Generator
	embedCache *redcache.Cache
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	embedder, err := embed.New(embed.Options{
		Endpoints: cfg.EmbedEndpoints,
		Model:     cfg.EmbedModel,
		Dimension: cfg.EmbedDim,
		APIKey:    cfg.EmbedAPIKey,
		Timeout:   cfg.EmbedTimeout,
	}, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init embedding client: %w", err)
	}

	// Redis query-vector cache is optional; without REDIS_ADDR every query
	// embeds fresh.
	var cache *redcache.Cache
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		cache, err = redcache.New(redcache.Options{
			Addr: strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			TTL:  cfg.EmbedCacheTTL,
		}, embedder, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init embedding cache: %w", err)
		}
		embedder = cache
	}

	generator, err := genai.New(genai.Options{
		Endpoint:  cfg.ChatEndpoint,
		Model:     cfg.ChatModel,
		MaxTokens: cfg.ChatMaxTokens,
		APIKey:    cfg.ChatAPIKey,
	}, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init chat client: %w", err)
	}

	return Clients{
		Embedder:   embedder,
		Generator:  generator,
		embedCache: cache,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.embedCache != nil {
		_ = c.embedCache.Close()
	}
}
