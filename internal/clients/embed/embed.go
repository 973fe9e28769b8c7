package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/boxabirds/docqa/internal/pkg/httpx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

// ErrUnavailable reports that every configured endpoint failed.
var ErrUnavailable = errors.New("embed: all endpoints unavailable")

// DimensionError reports a vector whose width does not match the store schema.
type DimensionError struct {
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embed: dimension mismatch: got %d, want %d", e.Got, e.Want)
}

// Inputs longer than this are truncated before the request goes out.
const maxInputRunes = 8192

// Embedder turns text into a fixed-width vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
	Dimension() int
}

// Options configures the embedding client. Endpoints are OpenAI-compatible
// base URLs (including any /v1 prefix) tried in order.
type Options struct {
	Endpoints  []string
	Model      string
	Dimension  int
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type client struct {
	log       *logger.Logger
	endpoints []string
	model     string
	dim       int
	apiKey    string
	timeout   time.Duration
	hc        *http.Client
}

func New(opts Options, log *logger.Logger) (Embedder, error) {
	endpoints := make([]string, 0, len(opts.Endpoints))
	for _, ep := range opts.Endpoints {
		ep = strings.TrimRight(strings.TrimSpace(ep), "/")
		if ep == "" {
			continue
		}
		endpoints = append(endpoints, ep)
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("missing embedding endpoints")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, fmt.Errorf("missing embedding model")
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	return &client{
		log:       log.With("client", "embed"),
		endpoints: endpoints,
		model:     model,
		dim:       opts.Dimension,
		apiKey:    strings.TrimSpace(opts.APIKey),
		timeout:   timeout,
		hc:        hc,
	}, nil
}

func (c *client) Model() string  { return c.model }
func (c *client) Dimension() int { return c.dim }

// Embed tries each endpoint in order and returns the first successful vector.
// Transient failures move on to the next endpoint; 4xx replies and context
// cancellation are final.
func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		text = " "
	}
	if r := []rune(text); len(r) > maxInputRunes {
		text = string(r[:maxInputRunes])
	}

	var lastErr error
	for _, ep := range c.endpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vec, err := c.embedOnce(ctx, ep, text)
		if err == nil {
			if len(vec) != c.dim {
				return nil, &DimensionError{Got: len(vec), Want: c.dim}
			}
			return vec, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !httpx.IsTransient(err) {
			return nil, err
		}

		c.log.Warn("Embedding endpoint failed; trying next",
			"endpoint", ep,
			"error", err.Error(),
		)
		lastErr = err
	}

	return nil, fmt.Errorf("%w (last: %v)", ErrUnavailable, lastErr)
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) embedOnce(parent context.Context, endpoint, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(embeddingsRequest{Model: c.model, Input: []string{text}}); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint+"/embeddings", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpx.ParseHTTPError(resp.StatusCode, raw)
	}

	var out embeddingsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("embed decode error: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response missing data")
	}

	vec := make([]float32, len(out.Data[0].Embedding))
	for i, f := range out.Data[0].Embedding {
		vec[i] = float32(f)
	}
	return vec, nil
}
