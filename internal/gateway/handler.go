package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/langdock/gateway-core/internal/accounting"
	"github.com/langdock/gateway-core/internal/models"
	"github.com/langdock/gateway-core/internal/orchestrator"
	"github.com/langdock/gateway-core/internal/problem"
	"github.com/langdock/gateway-core/internal/resilience"
	"github.com/langdock/gateway-core/internal/routing"
	"github.com/langdock/gateway-core/internal/streaming"
	"github.com/langdock/gateway-core/internal/tokens"
	"github.com/langdock/gateway-core/internal/validator"
)

// Handler wires the full orchestration core (Router, AttemptLoop,
// StreamingAssembler, Accountant) to gin's HTTP transport.
type Handler struct {
	router     *routing.Router
	loop       *orchestrator.Loop
	assembler  *streaming.Assembler
	accountant *accounting.Accountant
	breakers   *resilience.Registry
}

// NewHandler constructs a Handler from the orchestration core's
// top-level components.
func NewHandler(router *routing.Router, loop *orchestrator.Loop, assembler *streaming.Assembler, accountant *accounting.Accountant, breakers *resilience.Registry) *Handler {
	return &Handler{router: router, loop: loop, assembler: assembler, accountant: accountant, breakers: breakers}
}

// ChatCompletion handles POST /v1/chat/completions.
func (h *Handler) ChatCompletion(c *gin.Context) {
	correlationID := CorrelationID(c)
	start := time.Now()

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.WithFields(log.Fields{
			"correlation_id": correlationID,
			"error":          err.Error(),
			"event":          "parse_error",
		}).Warn("gateway: failed to parse request body")
		h.writeProblem(c, problem.Validation("failed to parse request body: "+err.Error()), correlationID)
		return
	}

	if err := validator.ValidateRequest(&req); err != nil {
		log.WithFields(log.Fields{
			"correlation_id": correlationID,
			"error":          err.Error(),
			"event":          "validation_failed",
		}).Warn("gateway: request validation failed")
		h.writeProblem(c, problem.Validation(err.Error()), correlationID)
		return
	}

	estimated := routing.EstimateTokens(&req)
	initialModel, err := h.router.Select(estimated, req.Model)
	if err != nil {
		h.writeError(c, err, correlationID)
		return
	}

	outcome := h.loop.Execute(c.Request.Context(), &req, initialModel, correlationID)

	if !outcome.IsSuccess() {
		failure := outcome.FailureValue()
		if errors.Is(failure.Cause, orchestrator.ErrClientCancel) {
			// Caller hung up: abandon silently, no response body.
			return
		}
		h.writeError(c, failure.Cause, correlationID)
		return
	}

	success := outcome.SuccessValue()
	responseTime := time.Since(start)

	inputTokens := estimated
	if success.InputTokens > 0 {
		inputTokens = tokens.Of(success.InputTokens)
	}
	outputTokens := tokens.Of(success.OutputTokens)
	if success.OutputTokens == 0 {
		outputTokens = tokens.EstimateText(success.Content)
	}

	cost := h.accountant.Track(c.Request.Context(), success.ModelUsed, inputTokens, outputTokens, success.ModelUsed.Provider(), responseTime, success.Attempts > 1)

	resp := models.ChatResponse{
		Content:          success.Content,
		Model:            success.ModelUsed,
		TokensUsed:       inputTokens.Int() + outputTokens.Int(),
		EstimatedCostUSD: cost.Dollars(),
		ResponseTime:     formatDuration(responseTime),
	}

	log.WithFields(log.Fields{
		"correlation_id": correlationID,
		"model":          success.ModelUsed,
		"attempts":       success.Attempts,
		"latency_ms":     responseTime.Milliseconds(),
		"event":          "success",
	}).Info("gateway: request successful")

	c.JSON(http.StatusOK, resp)
}

// ChatCompletionStream handles POST /v1/chat/completions/stream.
func (h *Handler) ChatCompletionStream(c *gin.Context) {
	correlationID := CorrelationID(c)

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeProblem(c, problem.Validation("failed to parse request body: "+err.Error()), correlationID)
		return
	}
	if err := validator.ValidateRequest(&req); err != nil {
		h.writeProblem(c, problem.Validation(err.Error()), correlationID)
		return
	}

	frames, err := h.assembler.RunStream(c.Request.Context(), &req, correlationID)
	if err != nil {
		h.writeError(c, err, correlationID)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		frame, ok := <-frames
		if !ok {
			return false
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			log.WithFields(log.Fields{
				"correlation_id": correlationID,
				"error":          err.Error(),
			}).Error("gateway: failed to marshal stream frame")
			return false
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		return true
	})
}

// Health handles GET /healthz. It reports circuit breaker state for
// visibility only; per spec.md section 9 Open Question 4, health does
// not influence routing.
func (h *Handler) Health(c *gin.Context) {
	breakers := h.breakers.Snapshot()
	states := make(map[string]string, len(breakers))
	for provider, state := range breakers {
		states[provider] = state.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"breakers": states,
	})
}

// Ready handles GET /readyz: a bare liveness signal, since the core has
// no external dependency to probe beyond what /healthz already reports.
func (h *Handler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handler) writeError(c *gin.Context, err error, correlationID string) {
	var perr *problem.Error
	if errors.As(err, &perr) {
		h.writeProblem(c, perr, correlationID)
		return
	}
	h.writeProblem(c, problem.Internal(err), correlationID)
}

func (h *Handler) writeProblem(c *gin.Context, err *problem.Error, correlationID string) {
	details := problem.ToDetails(err, correlationID)
	c.JSON(details.Status, details)
}

func formatDuration(d time.Duration) string {
	hh := int64(d.Hours())
	mm := int64(d.Minutes()) % 60
	ss := d.Seconds() - float64(hh*3600+mm*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hh, mm, ss)
}
