package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/langdock/gateway-core/internal/money"
	"github.com/langdock/gateway-core/internal/tokens"
)

// RequestLog is the immutable accounting row written for every successful
// orchestration. It corresponds 1:1 to a request that produced a Success
// AttemptOutcome.
type RequestLog struct {
	ID             uuid.UUID
	Timestamp      time.Time
	ModelUsed      ModelID
	InputTokens    tokens.Count
	OutputTokens   tokens.Count
	EstimatedCost  money.Amount
	ProviderName   string
	ResponseTime   time.Duration
	WasFallback    bool
}

// NewRequestLog stamps a fresh UUID and the current UTC timestamp.
func NewRequestLog(model ModelID, input, output tokens.Count, cost money.Amount, provider string, responseTime time.Duration, wasFallback bool) RequestLog {
	return RequestLog{
		ID:            uuid.New(),
		Timestamp:     time.Now().UTC(),
		ModelUsed:     model,
		InputTokens:   input,
		OutputTokens:  output,
		EstimatedCost: cost,
		ProviderName:  provider,
		ResponseTime:  responseTime,
		WasFallback:   wasFallback,
	}
}

// TotalTokens is InputTokens + OutputTokens.
func (l RequestLog) TotalTokens() tokens.Count {
	return l.InputTokens.Add(l.OutputTokens)
}

// AttemptTrace is a supplemental, non-billing record of a single attempt
// made by the AttemptLoop, kept for operational debugging. It does not
// participate in any of spec.md's accounting invariants.
type AttemptTrace struct {
	ID            string // ULID, sortable by creation order
	RequestID     string
	AttemptNumber int
	Model         ModelID
	Provider      string
	StartedAt     time.Time
	EndedAt       time.Time
	Status        string // "success" | "failed"
	ErrorKind     string
	ErrorMessage  string
	LatencyMs     int64
	InputTokens   int
	OutputTokens  int
}
