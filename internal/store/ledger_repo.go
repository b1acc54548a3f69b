package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/coursiz/internal/ledger"
)

// LedgerRepo is the SQL-backed progress ledger for authenticated learners.
// It implements ledger.Store and ledger.Resetter.
type LedgerRepo struct {
	drv *entsql.Driver
}

var (
	_ ledger.Store    = (*LedgerRepo)(nil)
	_ ledger.Resetter = (*LedgerRepo)(nil)
)

// Load returns every entry recorded for learnerID.
func (r *LedgerRepo) Load(ctx context.Context, learnerID string) (ledger.Ledger, error) {
	b := entsql.Dialect(r.drv.Dialect())
	query, args := b.Select("lesson_id", "completed", "score", "updated_at").
		From(b.Table(tableLedger)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return ledger.Ledger{}, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			e     ledger.Entry
			score entsql.NullInt64
		)
		if err := rows.Scan(&e.LessonID, &e.Completed, &score, &e.UpdatedAt); err != nil {
			return ledger.Ledger{}, fmt.Errorf("scan ledger entry: %w", err)
		}
		if score.Valid {
			e.Score = ledger.ScoreOf(int(score.Int64))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return ledger.Ledger{}, fmt.Errorf("read ledger: %w", err)
	}
	return ledger.New(entries...), nil
}

// Upsert writes e for learnerID. The merge happens in the database: the
// completed flag is OR-ed so it never reverts, and a NULL incoming score
// keeps the stored one.
func (r *LedgerRepo) Upsert(ctx context.Context, learnerID string, e ledger.Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	var score any
	if e.Score != nil {
		score = *e.Score
	}

	d := r.drv.Dialect()
	excluded := entsql.Dialect(d).Table("excluded")
	query, args := entsql.Dialect(d).
		Insert(tableLedger).
		Columns("learner_id", "lesson_id", "completed", "score", "updated_at").
		Values(learnerID, e.LessonID, e.Completed, score, e.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("learner_id", "lesson_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.Set("completed", entsql.Expr(u.Table().C("completed")+" OR "+excluded.C("completed")))
				u.Set("score", entsql.Expr("COALESCE("+excluded.C("score")+", "+u.Table().C("score")+")"))
				u.SetExcluded("updated_at")
			}),
		).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("upsert ledger entry %s: %w", e.LessonID, err)
	}
	return nil
}

// Reset deletes every entry for learnerID.
func (r *LedgerRepo) Reset(ctx context.Context, learnerID string) error {
	query, args := entsql.Dialect(r.drv.Dialect()).
		Delete(tableLedger).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}
