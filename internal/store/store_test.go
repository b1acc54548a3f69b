package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/score"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "coursiz.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{tableLedger, tableAnswers, tableXP, tableLLM, tableSequence} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coursiz.db")
	ctx := context.Background()

	s, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.LedgerRepo().Upsert(ctx, "u1", ledger.Entry{LessonID: "l1", Completed: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	s.Close()

	s, err = Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	l, err := s.LedgerRepo().Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !l.Completed("l1") {
		t.Error("entry lost across reopen")
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestLedgerUpsertMerge(t *testing.T) {
	s := openTestStore(t)
	repo := s.LedgerRepo()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	steps := []struct {
		name      string
		entry     ledger.Entry
		wantDone  bool
		wantScore int // -1 = no score
	}{
		{"first completion", ledger.Entry{LessonID: "l1", Completed: true, Score: ledger.ScoreOf(60), UpdatedAt: at}, true, 60},
		{"re-completion overwrites score", ledger.Entry{LessonID: "l1", Completed: true, Score: ledger.ScoreOf(90), UpdatedAt: at.Add(time.Hour)}, true, 90},
		{"completed never reverts", ledger.Entry{LessonID: "l1", Completed: false, Score: ledger.ScoreOf(40), UpdatedAt: at.Add(2 * time.Hour)}, true, 40},
		{"nil score keeps stored", ledger.Entry{LessonID: "l1", Completed: true, UpdatedAt: at.Add(3 * time.Hour)}, true, 40},
	}

	for _, st := range steps {
		if err := repo.Upsert(ctx, "u1", st.entry); err != nil {
			t.Fatalf("%s: upsert: %v", st.name, err)
		}
		l, err := repo.Load(ctx, "u1")
		if err != nil {
			t.Fatalf("%s: load: %v", st.name, err)
		}
		e, ok := l.Entry("l1")
		if !ok {
			t.Fatalf("%s: entry missing", st.name)
		}
		if e.Completed != st.wantDone {
			t.Errorf("%s: completed = %v, want %v", st.name, e.Completed, st.wantDone)
		}
		got := -1
		if e.Score != nil {
			got = *e.Score
		}
		if got != st.wantScore {
			t.Errorf("%s: score = %d, want %d", st.name, got, st.wantScore)
		}
		if !e.UpdatedAt.Equal(st.entry.UpdatedAt) {
			t.Errorf("%s: updated_at = %v, want %v", st.name, e.UpdatedAt, st.entry.UpdatedAt)
		}
	}
	if l, _ := repo.Load(ctx, "u1"); l.Len() != 1 {
		t.Errorf("entries = %d, want 1 per (learner, lesson)", l.Len())
	}
}

func TestLedgerIsolatedPerLearnerAndReset(t *testing.T) {
	s := openTestStore(t)
	repo := s.LedgerRepo()
	ctx := context.Background()

	repo.Upsert(ctx, "u1", ledger.Entry{LessonID: "l1", Completed: true})
	repo.Upsert(ctx, "u1", ledger.Entry{LessonID: "l2", Completed: true, Score: ledger.ScoreOf(80)})
	repo.Upsert(ctx, "u2", ledger.Entry{LessonID: "l1", Completed: true})

	l, err := repo.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.Len() != 2 {
		t.Errorf("u1 entries = %d, want 2", l.Len())
	}
	if got, ok := l.Score("l2"); !ok || got != 80 {
		t.Errorf("u1 l2 score = %d, %v; want 80", got, ok)
	}

	if err := repo.Reset(ctx, "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if l, _ := repo.Load(ctx, "u1"); l.Len() != 0 {
		t.Errorf("u1 entries after reset = %d, want 0", l.Len())
	}
	if l, _ := repo.Load(ctx, "u2"); !l.Completed("l1") {
		t.Error("reset of u1 touched u2")
	}
}

func TestEventRepo_AnswersAndStats(t *testing.T) {
	s := openTestStore(t)
	events := s.EventRepo()
	ctx := context.Background()

	answers := []AnswerEventData{
		{LearnerID: "u1", LessonID: "l1", CardID: "c1", Archetype: "single-choice", Correct: true, XP: 10},
		{LearnerID: "u1", LessonID: "l1", CardID: "c2", Archetype: "ordering", Correct: false},
		{LearnerID: "u1", LessonID: "l1", CardID: "c2", Archetype: "ordering", Correct: true, XP: 10},
		{LearnerID: "u2", LessonID: "l1", CardID: "c1", Archetype: "single-choice", Correct: true, XP: 10},
	}
	for _, a := range answers {
		if err := events.AppendAnswer(ctx, a); err != nil {
			t.Fatalf("append answer: %v", err)
		}
	}
	if err := events.Award(ctx, score.Award{LearnerID: "u1", LessonID: "l1", Amount: 120, Reason: "lesson_complete:l1"}); err != nil {
		t.Fatalf("award: %v", err)
	}
	if err := events.AppendXP(ctx, XPEventData{LearnerID: "u1", LessonID: "l2", Amount: 30, Reason: "lesson_complete:l2"}); err != nil {
		t.Fatalf("append xp: %v", err)
	}
	s.LedgerRepo().Upsert(ctx, "u1", ledger.Entry{LessonID: "l1", Completed: true})

	got, err := events.Answers(ctx, "u1", QueryOpts{})
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("answers = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Sequence <= got[i-1].Sequence {
			t.Errorf("answers out of order: %d after %d", got[i].Sequence, got[i-1].Sequence)
		}
	}

	page, err := events.Answers(ctx, "u1", QueryOpts{After: got[0].Sequence, Limit: 1})
	if err != nil {
		t.Fatalf("answers page: %v", err)
	}
	if len(page) != 1 || page[0].Sequence != got[1].Sequence {
		t.Errorf("page = %+v, want second answer only", page)
	}

	st, err := events.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := Stats{TotalXP: 150, Answers: 3, CorrectAnswers: 2, LessonsCompleted: 1}
	if st != want {
		t.Errorf("stats = %+v, want %+v", st, want)
	}
	if st.Accuracy() != 67 {
		t.Errorf("accuracy = %d, want 67", st.Accuracy())
	}
}

func TestEventRepo_StatsEmpty(t *testing.T) {
	s := openTestStore(t)
	st, err := s.EventRepo().Stats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st != (Stats{}) || st.Accuracy() != 0 {
		t.Errorf("stats = %+v, want zero", st)
	}
}

func TestEventRepo_RejectsNonPositiveXP(t *testing.T) {
	s := openTestStore(t)
	if err := s.EventRepo().AppendXP(context.Background(), XPEventData{LearnerID: "u1", Amount: 0}); err == nil {
		t.Error("expected error for zero amount")
	}
}

func TestEventRepo_LLMRequest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "anthropic", Model: "m", Purpose: "card-draft",
		InputTokens: 12, OutputTokens: 34, LatencyMs: 56, Success: true,
	})
	if err != nil {
		t.Fatalf("append llm request: %v", err)
	}

	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM llm_request_events WHERE purpose = 'card-draft'").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("llm events = %d, want 1", n)
	}
}

func TestEventRepo_LLMQueries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	reqs := []LLMRequestEventData{
		{Provider: "anthropic", Model: "m1", Purpose: "card-draft", InputTokens: 10, OutputTokens: 20, LatencyMs: 100, Success: true, RequestBody: "[user]\nhi"},
		{Provider: "anthropic", Model: "m1", Purpose: "card-draft", InputTokens: 30, OutputTokens: 40, LatencyMs: 300, Success: false, ErrorMessage: "boom"},
		{Provider: "openai", Model: "m2", Purpose: "other", InputTokens: 1, OutputTokens: 2, LatencyMs: 7, Success: true},
	}
	for _, r := range reqs {
		if err := repo.AppendLLMRequest(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recent, err := repo.LLMRequests(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("LLMRequests: %v", err)
	}
	if len(recent) != 2 || recent[0].Model != "m2" || recent[0].Sequence <= recent[1].Sequence {
		t.Fatalf("recent = %+v", recent)
	}

	failed := recent[1]
	got, err := repo.LLMRequest(ctx, failed.Sequence)
	if err != nil {
		t.Fatalf("LLMRequest: %v", err)
	}
	if got == nil || got.ErrorMessage != "boom" || got.Success {
		t.Errorf("event = %+v", got)
	}
	if missing, err := repo.LLMRequest(ctx, 9999); err != nil || missing != nil {
		t.Errorf("missing event = %+v, %v", missing, err)
	}

	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByPurpose: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("usage = %+v", usage)
	}
	draft := usage[0]
	if draft.Purpose != "card-draft" || draft.Calls != 2 || draft.InputTokens != 40 ||
		draft.OutputTokens != 60 || draft.AvgLatencyMs != 200 {
		t.Errorf("card-draft usage = %+v", draft)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByModel: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "m1" || byModel[0].Calls != 2 || byModel[1].Model != "m2" {
		t.Errorf("usage by model = %+v", byModel)
	}
}

func TestEventRepo_IsAwarder(t *testing.T) {
	s := openTestStore(t)
	var _ score.Awarder = s.EventRepo()
}
