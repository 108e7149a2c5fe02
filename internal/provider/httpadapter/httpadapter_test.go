package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/provider"
)

func testMessages() []models.ChatMessage {
	return []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}}
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireResponse{
			Choices: []wireChoice{{Message: wireMessage{Content: "hello there"}}},
			Usage:   &wireUsage{PromptTokens: 3, CompletionTokens: 5},
		})
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, TimeoutSeconds: 5, MaxConnectionsPerServer: 2, ConnectionLifetimeMinutes: 1})
	result, err := a.Complete(context.Background(), testMessages(), "mock/default", 0.7, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello there", result.Content)
	assert.Equal(t, 3, result.InputTokens)
	assert.Equal(t, 5, result.OutputTokens)
}

func TestCompleteMapsHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, TimeoutSeconds: 5, MaxConnectionsPerServer: 2, ConnectionLifetimeMinutes: 1})
	_, err := a.Complete(context.Background(), testMessages(), "mock/default", 0.7, 100)
	require.Error(t, err)
	assert.True(t, provider.IsTransient(err))
}

func TestCompleteTreatsEmptyChoicesAsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireResponse{Choices: nil})
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, TimeoutSeconds: 5, MaxConnectionsPerServer: 2, ConnectionLifetimeMinutes: 1})
	result, err := a.Complete(context.Background(), testMessages(), "mock/default", 0.7, 100)
	require.NoError(t, err)
	assert.Empty(t, result.Content)
}

func TestCompleteStreamParsesSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		chunk1, _ := json.Marshal(wireResponse{Choices: []wireChoice{{Delta: wireMessage{Content: "hel"}}}})
		chunk2, _ := json.Marshal(wireResponse{Choices: []wireChoice{{Delta: wireMessage{Content: "lo"}}}})
		fmt.Fprintf(w, "data: %s\n\n", chunk1)
		flusher.Flush()
		fmt.Fprintf(w, "data: %s\n\n", chunk2)
		flusher.Flush()
		fmt.Fprintf(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, TimeoutSeconds: 5, MaxConnectionsPerServer: 2, ConnectionLifetimeMinutes: 1})
	fragCh, errCh := a.CompleteStream(context.Background(), testMessages(), "mock/default", 0.7, 100)

	var got []string
	for frag := range fragCh {
		got = append(got, frag.Content)
	}
	err := <-errCh
	require.NoError(t, err)
	assert.Equal(t, []string{"hel", "lo"}, got)
}
