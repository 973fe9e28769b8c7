package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/boxabirds/docqa/internal/pkg/httpx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
	"github.com/boxabirds/docqa/internal/sse"
)

// Message is one chat turn on the wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator streams chat completions from an OpenAI-compatible endpoint.
type Generator interface {
	// StreamChat forwards each content delta to onDelta and returns the full
	// assistant text once the upstream sends its completion marker. An error
	// from onDelta aborts the stream and is returned unchanged.
	StreamChat(ctx context.Context, messages []Message, onDelta func(delta string) error) (string, error)
}

// Options configures the generation client. Endpoint is an OpenAI-compatible
// base URL including any /v1 prefix.
type Options struct {
	Endpoint   string
	Model      string
	MaxTokens  int
	APIKey     string
	HTTPClient *http.Client
}

type client struct {
	log       *logger.Logger
	endpoint  string
	model     string
	maxTokens int
	apiKey    string
	hc        *http.Client
}

func New(opts Options, log *logger.Logger) (Generator, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("missing chat endpoint")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, fmt.Errorf("missing chat model")
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	// No client-level timeout: streams run until the request context ends.
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	return &client{
		log:       log.With("client", "genai"),
		endpoint:  endpoint,
		model:     model,
		maxTokens: maxTokens,
		apiKey:    strings.TrimSpace(opts.APIKey),
		hc:        hc,
	}, nil
}

type chatCompletionsRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
	Stream    bool      `json:"stream"`
}

type chatCompletionsChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) StreamChat(ctx context.Context, messages []Message, onDelta func(delta string) error) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages required")
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(chatCompletionsRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
		Stream:    true,
	}); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/chat/completions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return "", httpx.ParseHTTPError(resp.StatusCode, raw)
	}

	var (
		full    strings.Builder
		sawDone bool
	)
	err = sse.Scan(resp.Body, func(event string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" {
			return nil
		}
		if data == "[DONE]" {
			sawDone = true
			return nil
		}

		var chunk chatCompletionsChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Keepalive and vendor frames are not all JSON; skip them.
			return nil
		}
		if chunk.Error != nil {
			return fmt.Errorf("chat stream error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			return nil
		}

		d := chunk.Choices[0].Delta.Content
		if d == "" {
			return nil
		}
		full.WriteString(d)
		if onDelta != nil {
			return onDelta(d)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if !sawDone {
		return "", fmt.Errorf("chat stream ended without completion marker")
	}
	return full.String(), nil
}
