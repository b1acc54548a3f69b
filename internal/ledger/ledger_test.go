package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/coursiz/internal/logger"
)

func TestMerge_CompletedNeverReverts(t *testing.T) {
	done := Entry{LessonID: "l1", Completed: true, Score: ScoreOf(80)}
	again := Entry{LessonID: "l1", Completed: false, Score: ScoreOf(40)}

	got := Merge(done, again)
	if !got.Completed {
		t.Error("completed flipped back to false")
	}
	if *got.Score != 40 {
		t.Errorf("score = %d, want 40 (overwrite)", *got.Score)
	}
}

func TestMerge_KeepsScoreWhenIncomingHasNone(t *testing.T) {
	got := Merge(Entry{LessonID: "l1", Score: ScoreOf(70)}, Entry{LessonID: "l1", Completed: true})
	if got.Score == nil || *got.Score != 70 {
		t.Errorf("score = %v, want 70", got.Score)
	}
}

func TestLedger_WithIsCopyOnWrite(t *testing.T) {
	base := New(Entry{LessonID: "a", Completed: true})
	next := base.With(Entry{LessonID: "b", Completed: true})

	if base.Completed("b") {
		t.Error("With mutated the receiver")
	}
	if !next.Completed("a") || !next.Completed("b") {
		t.Error("expected both lessons completed in the new ledger")
	}
	if next.Len() != 2 {
		t.Errorf("Len = %d, want 2", next.Len())
	}
	if _, ok := next.Score("a"); ok {
		t.Error("lesson without a score should report none")
	}
}

func TestLedger_ZeroValueIsEmpty(t *testing.T) {
	var l Ledger
	if l.Completed("x") || l.Len() != 0 || len(l.Entries()) != 0 {
		t.Error("zero ledger should be empty")
	}
}

type failingSource struct{}

func (failingSource) Load(context.Context, string) (Ledger, error) {
	return Ledger{}, errors.New("backend down")
}

func TestRead_DegradesToEmpty(t *testing.T) {
	l := Read(context.Background(), failingSource{}, "learner", logger.Nop())
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "guest-progress.json"))

	l, err := s.Load(ctx, "guest")
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Upsert(ctx, "guest", Entry{LessonID: "l1", Completed: true, Score: ScoreOf(90), UpdatedAt: now}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, "guest", Entry{LessonID: "l2", Completed: true, UpdatedAt: now}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	l, err = s.Load(ctx, "guest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if score, ok := l.Score("l1"); !ok || score != 90 {
		t.Errorf("Score(l1) = %d, %v; want 90", score, ok)
	}
	if !l.Completed("l2") {
		t.Error("l2 should be completed")
	}

	if err := s.Reset(ctx, "guest"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("file still present after Reset: %v", err)
	}
}

func TestFileStore_MalformedIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guest-progress.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)

	if _, err := s.Load(context.Background(), ""); err == nil {
		t.Fatal("expected decode error")
	}
	if l := Read(context.Background(), s, "", logger.Nop()); l.Len() != 0 {
		t.Error("Read should degrade malformed file to empty")
	}

	// A write over a corrupt file keeps the old bytes aside and starts fresh.
	if err := s.Upsert(context.Background(), "", Entry{LessonID: "l1", Completed: true}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	l, err := s.Load(context.Background(), "")
	if err != nil || !l.Completed("l1") {
		t.Errorf("after Upsert: %v, completed=%v", err, l.Completed("l1"))
	}
	old, err := os.ReadFile(s.CorruptPath())
	if err != nil || string(old) != "{not json" {
		t.Errorf("corrupt file not preserved: %q, %v", old, err)
	}
}

func TestFileStore_UpsertKeepsFileOnUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guest-progress.json")
	orig := `{"version": 99, "entries": [{"lesson_id": "l1", "completed": true}]}`
	if err := os.WriteFile(path, []byte(orig), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)

	if err := s.Upsert(context.Background(), "", Entry{LessonID: "l2", Completed: true}); err == nil {
		t.Fatal("expected version error from Upsert")
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != orig {
		t.Errorf("progress file changed: %q, %v", got, err)
	}
}

// fakeRedis implements RedisClient over a map.
type fakeRedis struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore_UpsertAndLoad(t *testing.T) {
	ctx := context.Background()
	fr := newFakeRedis()
	s := NewRedisStore(fr, time.Hour)

	if err := s.Upsert(ctx, "g-1", Entry{LessonID: "l1", Completed: true, Score: ScoreOf(100)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if fr.ttls[GuestKey("g-1")] != time.Hour {
		t.Errorf("ttl = %s, want 1h", fr.ttls[GuestKey("g-1")])
	}

	l, err := s.Load(ctx, "g-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !l.Completed("l1") {
		t.Error("l1 should be completed")
	}

	other, err := s.Load(ctx, "g-2")
	if err != nil || other.Len() != 0 {
		t.Errorf("unknown guest: len=%d err=%v", other.Len(), err)
	}

	if err := s.Reset(ctx, "g-1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok := fr.data[GuestKey("g-1")]; ok {
		t.Error("key still present after Reset")
	}
}

func TestRedisStore_Errors(t *testing.T) {
	fr := newFakeRedis()
	fr.getErr = errors.New("connection refused")
	s := NewRedisStore(fr, 0)

	if _, err := s.Load(context.Background(), "g"); err == nil {
		t.Error("expected error from Load")
	}

	fr.getErr = nil
	fr.data[GuestKey("g")] = "garbage"
	if _, err := s.Load(context.Background(), "g"); err == nil {
		t.Error("expected decode error")
	}
}

func TestRedisStore_UpsertAfterReadErrorKeepsEntries(t *testing.T) {
	ctx := context.Background()
	fr := newFakeRedis()
	s := NewRedisStore(fr, time.Hour)

	for _, id := range []string{"l1", "l2", "l3"} {
		if err := s.Upsert(ctx, "g", Entry{LessonID: id, Completed: true}); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}

	fr.getErr = errors.New("i/o timeout")
	if err := s.Upsert(ctx, "g", Entry{LessonID: "l4", Completed: true}); err == nil {
		t.Fatal("expected Upsert to fail while GET fails")
	}

	fr.getErr = nil
	l, err := s.Load(ctx, "g")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	for _, id := range []string{"l1", "l2", "l3"} {
		if !l.Completed(id) {
			t.Errorf("%s lost after failed upsert", id)
		}
	}
}

func TestGuestKey(t *testing.T) {
	if got := GuestKey("abc"); got != "coursiz:guest:abc:progress" {
		t.Errorf("GuestKey = %q", got)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Upsert(ctx, "u", Entry{LessonID: "l1", Completed: true})
	l, _ := s.Load(ctx, "u")
	if !l.Completed("l1") {
		t.Error("l1 should be completed")
	}
	_ = s.Reset(ctx, "u")
	l, _ = s.Load(ctx, "u")
	if l.Len() != 0 {
		t.Error("expected empty after Reset")
	}
}
