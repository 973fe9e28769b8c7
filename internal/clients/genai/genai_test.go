package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boxabirds/docqa/internal/pkg/httpx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newGenerator(t *testing.T, url string) Generator {
	t.Helper()
	g, err := New(Options{Endpoint: url + "/v1", Model: "test-model"}, testLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func writeDelta(w http.ResponseWriter, content string) {
	fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
	w.(http.Flusher).Flush()
}

func TestStreamChatForwardsDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model     string    `json:"model"`
			Messages  []Message `json:"messages"`
			MaxTokens int       `json:"max_tokens"`
			Stream    bool      `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || !req.Stream || req.MaxTokens != 1000 || len(req.Messages) != 2 {
			t.Errorf("unexpected request %+v", req)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		writeDelta(w, "Hel")
		writeDelta(w, "lo")
		writeDelta(w, "!")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	g := newGenerator(t, srv.URL)
	var deltas []string
	full, err := g.StreamChat(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "say hello"},
	}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if full != "Hello!" {
		t.Fatalf("expected full text Hello!, got %q", full)
	}
	if strings.Join(deltas, "|") != "Hel|lo|!" {
		t.Fatalf("deltas out of order: %v", deltas)
	}
}

func TestStreamChatMissingCompletionMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeDelta(w, "partial")
	}))
	defer srv.Close()

	g := newGenerator(t, srv.URL)
	full, err := g.StreamChat(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	if err == nil {
		t.Fatalf("expected error for truncated stream, got text %q", full)
	}
	if full != "" {
		t.Fatalf("truncated stream must not return text, got %q", full)
	}
}

func TestStreamChatHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := newGenerator(t, srv.URL)
	_, err := g.StreamChat(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	var he *httpx.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *httpx.HTTPError, got %v", err)
	}
	if he.StatusCode != http.StatusServiceUnavailable || he.Message != "model overloaded" {
		t.Fatalf("unexpected error fields: %+v", he)
	}
}

func TestStreamChatCallbackAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeDelta(w, "one")
		writeDelta(w, "two")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	boom := errors.New("client went away")
	g := newGenerator(t, srv.URL)
	calls := 0
	_, err := g.StreamChat(context.Background(), []Message{{Role: "user", Content: "q"}}, func(d string) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected stream abort after first delta, got %d calls", calls)
	}
}

func TestStreamChatErrorFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeDelta(w, "ok so far")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"backend exploded\"}}\n\n")
	}))
	defer srv.Close()

	g := newGenerator(t, srv.URL)
	_, err := g.StreamChat(context.Background(), []Message{{Role: "user", Content: "q"}}, nil)
	if err == nil || !strings.Contains(err.Error(), "backend exploded") {
		t.Fatalf("expected stream error frame to surface, got %v", err)
	}
}
