package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Table names.
const (
	tableLedger   = "ledger_entries"
	tableAnswers  = "answer_events"
	tableXP       = "xp_events"
	tableLLM      = "llm_request_events"
	tableSequence = "global_sequence"
)

// migrate creates missing tables. Statements are idempotent and the column
// types are the common subset of SQLite and Postgres apart from timestamps.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	ts := "TIMESTAMP"
	if drv.Dialect() == dialect.Postgres {
		ts = "TIMESTAMPTZ"
	}

	stmts := []struct {
		name string
		ddl  string
	}{
		{tableSequence, `CREATE TABLE IF NOT EXISTS global_sequence (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			next_val BIGINT NOT NULL DEFAULT 1
		)`},
		{tableLedger, `CREATE TABLE IF NOT EXISTS ledger_entries (
			learner_id TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			score INTEGER NULL,
			updated_at ` + ts + ` NOT NULL,
			PRIMARY KEY (learner_id, lesson_id)
		)`},
		{tableAnswers, `CREATE TABLE IF NOT EXISTS answer_events (
			sequence BIGINT PRIMARY KEY,
			created_at ` + ts + ` NOT NULL,
			learner_id TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			archetype TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			xp INTEGER NOT NULL DEFAULT 0
		)`},
		{"answer_events_learner_idx", `CREATE INDEX IF NOT EXISTS answer_events_learner_idx ON answer_events (learner_id, sequence)`},
		{tableXP, `CREATE TABLE IF NOT EXISTS xp_events (
			sequence BIGINT PRIMARY KEY,
			created_at ` + ts + ` NOT NULL,
			learner_id TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			reason TEXT NOT NULL
		)`},
		{"xp_events_learner_idx", `CREATE INDEX IF NOT EXISTS xp_events_learner_idx ON xp_events (learner_id)`},
		{tableLLM, `CREATE TABLE IF NOT EXISTS llm_request_events (
			sequence BIGINT PRIMARY KEY,
			created_at ` + ts + ` NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			purpose TEXT NOT NULL,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms BIGINT NOT NULL DEFAULT 0,
			success BOOLEAN NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			request_body TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT ''
		)`},
	}
	for _, s := range stmts {
		if err := drv.Exec(ctx, s.ddl, []any{}, nil); err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
