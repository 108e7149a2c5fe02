package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langdock/gateway-core/internal/accounting"
	"github.com/langdock/gateway-core/internal/fallback"
	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/orchestrator"
	"github.com/langdock/gateway-core/internal/pricing"
	"github.com/langdock/gateway-core/internal/provider"
	"github.com/langdock/gateway-core/internal/provider/providertest"
	"github.com/langdock/gateway-core/internal/resilience"
	"github.com/langdock/gateway-core/internal/routing"
	"github.com/langdock/gateway-core/internal/streaming"
)

func testEngine(t *testing.T, adapter *providertest.FakeAdapter) (*gin.Engine, *accounting.MemorySink) {
	gin.SetMode(gin.TestMode)

	chain, err := fallback.New("large", "balanced", "default")
	require.NoError(t, err)
	router := routing.New(routing.Config{DefaultModel: "default", LargeContextModel: "large", BalancedModel: "balanced"})
	policy := resilience.New(
		resilience.RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond, MaxJitter: 0},
		resilience.NewRegistry(resilience.BreakerConfig{FailureThreshold: 100, Cooldown: time.Minute}),
	)
	sink := accounting.NewMemorySink()
	accountant := accounting.New(pricing.NewMemoryLookup(), sink, nil)
	loop := orchestrator.New(adapter, policy, chain, accountant, 3)
	assembler := streaming.New(router, adapter, policy, chain, accountant, 3)
	breakers := resilience.NewRegistry(resilience.BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute})
	handler := NewHandler(router, loop, assembler, accountant, breakers)

	engine := gin.New()
	engine.Use(CorrelationIDMiddleware())
	engine.POST("/v1/chat/completions", handler.ChatCompletion)
	engine.GET("/healthz", handler.Health)
	return engine, sink
}

func TestChatCompletionSuccess(t *testing.T) {
	adapter := providertest.NewFakeAdapter().
		ScriptComplete("default", providertest.Response{Result: provider.CompletionResult{Content: "hi there"}})
	engine, sink := testEngine(t, adapter)

	body, _ := json.Marshal(models.ChatRequest{Messages: []models.ChatMessage{{Role: models.RoleUser, Content: "hello"}}})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hi there", resp.Content)
	assert.Len(t, sink.Entries(), 1)
}

func TestChatCompletionValidationError(t *testing.T) {
	adapter := providertest.NewFakeAdapter()
	engine, _ := testEngine(t, adapter)

	body, _ := json.Marshal(models.ChatRequest{})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatCompletionAllProvidersFailed(t *testing.T) {
	adapter := providertest.NewFakeAdapter().
		ScriptComplete("default", providertest.Response{Err: provider.NewHTTPStatusError(503, errBoom)}).
		ScriptComplete("large", providertest.Response{Err: provider.NewHTTPStatusError(503, errBoom)}).
		ScriptComplete("balanced", providertest.Response{Err: provider.NewHTTPStatusError(503, errBoom)})
	engine, _ := testEngine(t, adapter)

	body, _ := json.Marshal(models.ChatRequest{Messages: []models.ChatMessage{{Role: models.RoleUser, Content: "hello"}}})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthzReportsBreakerState(t *testing.T) {
	adapter := providertest.NewFakeAdapter()
	engine, _ := testEngine(t, adapter)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "breakers")
}

type errBoomType string

func (e errBoomType) Error() string { return string(e) }

var errBoom = errBoomType("boom")
