// Package storage owns the SQLite-backed persistence layer exercised by
// the RequestLogSink and PricingLookup implementations. Column layout
// mirrors the request_logs / model_pricing tables from spec.md section 6
// exactly; SQLite is used in place of the unspecified "the persistent
// store itself" so the accounting path is exercisable end to end without
// a live Postgres instance, the same way aigoflow-inference-service
// persists its accounting rows.
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS request_logs (
	id                  TEXT PRIMARY KEY,
	timestamp           DATETIME NOT NULL,
	model_used          TEXT NOT NULL,
	input_tokens        INTEGER NOT NULL,
	output_tokens       INTEGER NOT NULL,
	estimated_cost_usd  INTEGER NOT NULL, -- micro-dollars
	provider_name       TEXT NOT NULL,
	response_time_ms    INTEGER NOT NULL,
	was_fallback        BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_request_logs_timestamp ON request_logs(timestamp);
CREATE INDEX IF NOT EXISTS idx_request_logs_provider ON request_logs(provider_name);

CREATE TABLE IF NOT EXISTS model_pricing (
	id                         TEXT PRIMARY KEY,
	model_name                 TEXT NOT NULL UNIQUE,
	provider_name              TEXT NOT NULL,
	input_cost_per_1m_tokens   REAL NOT NULL,
	output_cost_per_1m_tokens  REAL NOT NULL,
	max_context_tokens         INTEGER NOT NULL,
	updated_at                 DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS attempt_traces (
	id             TEXT PRIMARY KEY,
	request_id     TEXT NOT NULL,
	attempt_number INTEGER NOT NULL,
	model          TEXT NOT NULL,
	provider_name  TEXT NOT NULL,
	started_at     DATETIME NOT NULL,
	ended_at       DATETIME NOT NULL,
	status         TEXT NOT NULL,
	error_kind     TEXT,
	error_message  TEXT,
	latency_ms     INTEGER NOT NULL,
	input_tokens   INTEGER NOT NULL,
	output_tokens  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempt_traces_request ON attempt_traces(request_id);
`

// Open opens (creating if necessary) a SQLite database at path and applies
// the schema idempotently.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	log.WithField("path", path).Info("storage: schema ready")
	return db, nil
}
