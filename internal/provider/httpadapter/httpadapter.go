// Package httpadapter is a concrete provider.Adapter speaking the
// OpenAI-compatible wire format exercised by internal/mockprovider. It is
// a collaborator outside the orchestration core, kept minimal — one wire
// format — so routing/resilience/accounting never need to know it exists.
package httpadapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/provider"
)

// Config configures one Adapter instance. Every field mirrors the
// configuration surface in spec.md section 6.
type Config struct {
	BaseURL                  string
	APIKey                   string
	TimeoutSeconds           int
	MaxConnectionsPerServer  int
	ConnectionLifetimeMinutes int
	UseHTTP2                 bool
}

// Adapter implements provider.Adapter against one upstream base URL.
type Adapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New constructs an Adapter with a shared, pooled *http.Client sized per
// cfg. The client and its connection pool are shared across every
// concurrent request that uses this Adapter, per spec.md section 5.
func New(cfg Config) *Adapter {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxConnectionsPerServer,
		MaxIdleConnsPerHost: cfg.MaxConnectionsPerServer,
		MaxConnsPerHost:     cfg.MaxConnectionsPerServer,
		IdleConnTimeout:     time.Duration(cfg.ConnectionLifetimeMinutes) * time.Minute,
	}
	if cfg.UseHTTP2 {
		_ = http2.ConfigureTransport(transport)
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	return &Adapter{baseURL: strings.TrimRight(cfg.BaseURL, "/"), apiKey: cfg.APIKey, client: client}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type wireChoice struct {
	Message      wireMessage `json:"message"`
	Delta        wireMessage `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

type wireResponse struct {
	Choices []wireChoice `json:"choices"`
	Usage   *wireUsage   `json:"usage"`
}

func toWireMessages(msgs []models.ChatMessage) []wireMessage {
	out := make([]wireMessage, len(msgs))
	for i, m := range msgs {
		out[i] = wireMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func (a *Adapter) buildRequest(ctx context.Context, path string, body wireRequest) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("httpadapter: marshal request: %w", err)
	}
	u, err := url.JoinPath(a.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("httpadapter: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("httpadapter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	return req, nil
}

// Complete implements provider.Adapter.
func (a *Adapter) Complete(ctx context.Context, messages []models.ChatMessage, model models.ModelID, temperature float64, maxTokens int) (provider.CompletionResult, error) {
	req, err := a.buildRequest(ctx, "/v1/chat/completions", wireRequest{
		Model:       string(model),
		Messages:    toWireMessages(messages),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return provider.CompletionResult{}, provider.NewParseError(err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return provider.CompletionResult{}, provider.ClassifyContextError(ctx)
		}
		return provider.CompletionResult{}, provider.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return provider.CompletionResult{}, provider.NewHTTPStatusError(resp.StatusCode, fmt.Errorf("%s", string(body)))
	}

	var parsed wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return provider.CompletionResult{}, provider.NewParseError(err)
	}
	if len(parsed.Choices) == 0 {
		return provider.CompletionResult{}, nil // empty result: AttemptLoop treats as transient
	}

	result := provider.CompletionResult{Content: parsed.Choices[0].Message.Content}
	if parsed.Usage != nil {
		result.InputTokens = parsed.Usage.PromptTokens
		result.OutputTokens = parsed.Usage.CompletionTokens
	}
	return result, nil
}

// CompleteStream implements provider.Adapter, parsing the upstream SSE
// stream and mapping each "data: {...}" event to a StreamFragment.
func (a *Adapter) CompleteStream(ctx context.Context, messages []models.ChatMessage, model models.ModelID, temperature float64, maxTokens int) (<-chan provider.StreamFragment, <-chan error) {
	fragCh := make(chan provider.StreamFragment)
	errCh := make(chan error, 1)

	go func() {
		defer close(fragCh)
		defer close(errCh)

		req, err := a.buildRequest(ctx, "/v1/chat/completions", wireRequest{
			Model:       string(model),
			Messages:    toWireMessages(messages),
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Stream:      true,
		})
		if err != nil {
			errCh <- provider.NewParseError(err)
			return
		}

		resp, err := a.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				errCh <- provider.ClassifyContextError(ctx)
				return
			}
			errCh <- provider.NewNetworkError(err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			errCh <- provider.NewHTTPStatusError(resp.StatusCode, fmt.Errorf("%s", string(body)))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				errCh <- provider.ClassifyContextError(ctx)
				return
			default:
			}

			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				errCh <- nil
				return
			}

			var chunk wireResponse
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				errCh <- provider.NewParseError(err)
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			frag := provider.StreamFragment{Content: chunk.Choices[0].Delta.Content}
			if chunk.Usage != nil {
				frag.Usage = &provider.Usage{InputTokens: chunk.Usage.PromptTokens, OutputTokens: chunk.Usage.CompletionTokens}
			}
			select {
			case fragCh <- frag:
			case <-ctx.Done():
				errCh <- provider.ClassifyContextError(ctx)
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- provider.NewNetworkError(err)
			return
		}
		errCh <- nil
	}()

	return fragCh, errCh
}
