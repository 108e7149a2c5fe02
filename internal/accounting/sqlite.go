package accounting

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/langdock/gateway-core/internal/models"
)

// SQLiteSink persists RequestLog rows to the request_logs table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink wraps an already-opened, already-migrated database.
func NewSQLiteSink(db *sql.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

// Save implements Sink.
func (s *SQLiteSink) Save(ctx context.Context, entry models.RequestLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO request_logs (id, timestamp, model_used, input_tokens, output_tokens,
			estimated_cost_usd, provider_name, response_time_ms, was_fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Timestamp, string(entry.ModelUsed),
		entry.InputTokens.Int(), entry.OutputTokens.Int(), entry.EstimatedCost.Micros(),
		entry.ProviderName, entry.ResponseTime.Milliseconds(), entry.WasFallback)
	if err != nil {
		return fmt.Errorf("accounting: save request log %s: %w", entry.ID, err)
	}
	return nil
}

// SQLiteTraceSink persists AttemptTrace rows to the attempt_traces table.
type SQLiteTraceSink struct {
	db *sql.DB
}

// NewSQLiteTraceSink wraps an already-opened, already-migrated database.
func NewSQLiteTraceSink(db *sql.DB) *SQLiteTraceSink {
	return &SQLiteTraceSink{db: db}
}

// SaveTrace implements TraceSink.
func (s *SQLiteTraceSink) SaveTrace(ctx context.Context, trace models.AttemptTrace) error {
	id := trace.ID
	if id == "" {
		id = ulid.Make().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempt_traces (id, request_id, attempt_number, model, provider_name,
			started_at, ended_at, status, error_kind, error_message, latency_ms,
			input_tokens, output_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, trace.RequestID, trace.AttemptNumber, string(trace.Model), trace.Provider,
		trace.StartedAt, trace.EndedAt, trace.Status, trace.ErrorKind, trace.ErrorMessage,
		trace.LatencyMs, trace.InputTokens, trace.OutputTokens)
	if err != nil {
		return fmt.Errorf("accounting: save attempt trace %s: %w", id, err)
	}
	return nil
}
