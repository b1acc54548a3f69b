package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/coursiz/internal/score"
)

// eventRepo implements EventRepo backed by SQL tables and the global
// sequence counter.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
	now func() time.Time
}

func (r *eventRepo) clock() time.Time {
	if r.now != nil {
		return r.now().UTC()
	}
	return time.Now().UTC()
}

// insert assigns the next sequence and inserts one row into table.
func (r *eventRepo) insert(ctx context.Context, table string, columns []string, values []any) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(r.drv.Dialect()).
		Insert(table).
		Columns(append([]string{"sequence", "created_at"}, columns...)...).
		Values(append([]any{seqNum, r.clock()}, values...)...).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (r *eventRepo) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	err := r.insert(ctx, tableAnswers,
		[]string{"learner_id", "lesson_id", "card_id", "archetype", "correct", "xp"},
		[]any{data.LearnerID, data.LessonID, data.CardID, data.Archetype, data.Correct, data.XP},
	)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendXP(ctx context.Context, data XPEventData) error {
	if data.Amount <= 0 {
		return fmt.Errorf("save xp event: amount must be positive, got %d", data.Amount)
	}
	err := r.insert(ctx, tableXP,
		[]string{"learner_id", "lesson_id", "amount", "reason"},
		[]any{data.LearnerID, data.LessonID, data.Amount, data.Reason},
	)
	if err != nil {
		return fmt.Errorf("save xp event: %w", err)
	}
	return nil
}

func (r *eventRepo) Award(ctx context.Context, a score.Award) error {
	return r.AppendXP(ctx, XPEventData{
		LearnerID: a.LearnerID,
		LessonID:  a.LessonID,
		Amount:    a.Amount,
		Reason:    a.Reason,
	})
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	err := r.insert(ctx, tableLLM,
		[]string{"provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body"},
		[]any{data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody},
	)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) Answers(ctx context.Context, learnerID string, opts QueryOpts) ([]AnswerEvent, error) {
	b := entsql.Dialect(r.drv.Dialect())
	sel := b.Select("sequence", "created_at", "learner_id", "lesson_id", "card_id", "archetype", "correct", "xp").
		From(b.Table(tableAnswers)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("sequence")
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	var out []AnswerEvent
	for rows.Next() {
		var ev AnswerEvent
		if err := rows.Scan(&ev.Sequence, &ev.CreatedAt, &ev.LearnerID, &ev.LessonID,
			&ev.CardID, &ev.Archetype, &ev.Correct, &ev.XP); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read answer events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) Stats(ctx context.Context, learnerID string) (Stats, error) {
	var st Stats
	var err error

	if st.TotalXP, err = r.scalar(ctx, tableXP, "COALESCE(SUM(amount), 0)", entsql.EQ("learner_id", learnerID)); err != nil {
		return Stats{}, fmt.Errorf("total xp: %w", err)
	}
	if st.Answers, err = r.scalar(ctx, tableAnswers, "COUNT(*)", entsql.EQ("learner_id", learnerID)); err != nil {
		return Stats{}, fmt.Errorf("count answers: %w", err)
	}
	correct := entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("correct", true))
	if st.CorrectAnswers, err = r.scalar(ctx, tableAnswers, "COUNT(*)", correct); err != nil {
		return Stats{}, fmt.Errorf("count correct answers: %w", err)
	}
	done := entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("completed", true))
	if st.LessonsCompleted, err = r.scalar(ctx, tableLedger, "COUNT(*)", done); err != nil {
		return Stats{}, fmt.Errorf("count completed lessons: %w", err)
	}
	return st, nil
}

// scalar runs SELECT expr FROM table WHERE pred and returns the integer.
func (r *eventRepo) scalar(ctx context.Context, table, expr string, pred *entsql.Predicate) (int, error) {
	b := entsql.Dialect(r.drv.Dialect())
	query, args := b.Select(expr).From(b.Table(table)).Where(pred).Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	return entsql.ScanInt(rows)
}
