package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var llmColumns = []string{"sequence", "created_at", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
	"request_body", "response_body"}

func (r *eventRepo) selectLLM(ctx context.Context, configure func(*entsql.Selector)) ([]LLMRequestEvent, error) {
	b := entsql.Dialect(r.drv.Dialect())
	sel := b.Select(llmColumns...).From(b.Table(tableLLM))
	configure(sel)
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		var e LLMRequestEvent
		if err := rows.Scan(&e.Sequence, &e.CreatedAt, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage,
			&e.RequestBody, &e.ResponseBody); err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read LLM events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) LLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	return r.selectLLM(ctx, func(s *entsql.Selector) {
		if opts.After > 0 {
			s.Where(entsql.GT("sequence", opts.After))
		}
		s.OrderBy(entsql.Desc("sequence"))
		if opts.Limit > 0 {
			s.Limit(opts.Limit)
		}
	})
}

func (r *eventRepo) LLMRequest(ctx context.Context, sequence int64) (*LLMRequestEvent, error) {
	events, err := r.selectLLM(ctx, func(s *entsql.Selector) {
		s.Where(entsql.EQ("sequence", sequence))
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	usage, err := r.llmUsage(ctx, "purpose")
	for i := range usage {
		usage[i].Purpose = usage[i].key
	}
	return usage, err
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	usage, err := r.llmUsage(ctx, "model")
	for i := range usage {
		usage[i].Model = usage[i].key
	}
	return usage, err
}

// llmUsage aggregates LLM requests grouped by column.
func (r *eventRepo) llmUsage(ctx context.Context, column string) ([]LLMUsage, error) {
	b := entsql.Dialect(r.drv.Dialect())
	query, args := b.Select(column, "COUNT(*)",
		"COALESCE(SUM(input_tokens), 0)", "COALESCE(SUM(output_tokens), 0)",
		"COALESCE(SUM(latency_ms), 0)").
		From(b.Table(tableLLM)).
		GroupBy(column).
		OrderBy(column).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query LLM usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			u         LLMUsage
			latencyMs int64
		)
		if err := rows.Scan(&u.key, &u.Calls, &u.InputTokens, &u.OutputTokens, &latencyMs); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		if u.Calls > 0 {
			u.AvgLatencyMs = latencyMs / int64(u.Calls)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read LLM usage: %w", err)
	}
	return out, nil
}
