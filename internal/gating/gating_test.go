package gating

import (
	"fmt"
	"testing"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/ledger"
)

// twoByTwo builds 2 courses x 2 lessons: c1/l1-1, c1/l1-2, c2/l2-1, c2/l2-2.
func twoByTwo(t *testing.T) *catalog.Catalog {
	t.Helper()
	var courses []catalog.Course
	for c := 1; c <= 2; c++ {
		course := catalog.Course{ID: fmt.Sprintf("c%d", c), Order: c}
		for l := 1; l <= 2; l++ {
			id := fmt.Sprintf("l%d-%d", c, l)
			course.Lessons = append(course.Lessons, catalog.Lesson{
				ID: id, Order: l, ContentType: catalog.ContentLesson,
				Cards: []cards.Card{{ID: id + "-info", Spec: cards.Info{}}},
			})
		}
		courses = append(courses, course)
	}
	cat, err := catalog.New("v1", courses)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func completed(ids ...string) ledger.Ledger {
	var entries []ledger.Entry
	for _, id := range ids {
		entries = append(entries, ledger.Entry{LessonID: id, Completed: true})
	}
	return ledger.New(entries...)
}

func unlockedSet(p Policy, cat *catalog.Catalog, l ledger.Ledger, guest bool) map[string]bool {
	out := map[string]bool{}
	for _, lesson := range cat.Lessons() {
		if !p.IsLessonLocked(cat, lesson.ID, l, guest) {
			out[lesson.ID] = true
		}
	}
	return out
}

func TestEvaluate_EmptyLedgerUnlocksOnlyFirstLesson(t *testing.T) {
	cat := twoByTwo(t)
	got := unlockedSet(DefaultPolicy(), cat, ledger.Empty(), false)
	if len(got) != 1 || !got["l1-1"] {
		t.Errorf("unlocked = %v, want only l1-1", got)
	}
}

func TestEvaluate_NextLessonUnlocksButNextCourseWaits(t *testing.T) {
	cat := twoByTwo(t)
	got := unlockedSet(DefaultPolicy(), cat, completed("l1-1"), false)
	if !got["l1-1"] || !got["l1-2"] {
		t.Errorf("unlocked = %v, want l1-1 and l1-2", got)
	}
	if got["l2-1"] || got["l2-2"] {
		t.Errorf("course 2 lessons unlocked before course 1 completed: %v", got)
	}
	if !IsCourseLocked(cat, "c2", completed("l1-1")) {
		t.Error("course 2 should be locked")
	}
}

func TestEvaluate_GuestQuotaLocksFourthLesson(t *testing.T) {
	cat := twoByTwo(t)
	p := Policy{GuestQuota: 3}

	empty := unlockedSet(p, cat, ledger.Empty(), true)
	if len(empty) != 1 || !empty["l1-1"] {
		t.Errorf("guest with empty ledger unlocked = %v, want only l1-1", empty)
	}

	// Positions 1..3 completed: position 4 is unlocked for an authenticated
	// learner but stays locked for the guest.
	l := completed("l1-1", "l1-2", "l2-1")
	guest := unlockedSet(p, cat, l, true)
	for _, id := range []string{"l1-1", "l1-2", "l2-1"} {
		if !guest[id] {
			t.Errorf("%s should be unlocked for guest", id)
		}
	}
	if guest["l2-2"] {
		t.Error("position 4 unlocked for guest despite quota 3")
	}
	if p.IsLessonLocked(cat, "l2-2", l, false) {
		t.Error("position 4 should be unlocked for an authenticated learner")
	}

	snap := p.Evaluate(cat, l, true)
	ls, ok := snap.Lesson("l2-2")
	if !ok || !ls.Locked || !ls.RequiresSignup {
		t.Errorf("l2-2 state = %+v, want locked with signup", ls)
	}
}

func TestProperty_SequentialUnlock(t *testing.T) {
	cat := twoByTwo(t)
	p := Policy{GuestQuota: 100}
	ledgers := []ledger.Ledger{
		ledger.Empty(),
		completed("l1-1"),
		completed("l1-2"),
		completed("l1-1", "l1-2"),
		completed("l1-1", "l1-2", "l2-1"),
		completed("l1-1", "l1-2", "l2-2"),
	}
	for i, l := range ledgers {
		for _, lesson := range cat.Lessons() {
			if lesson.Order == 1 || IsCourseLocked(cat, lesson.CourseID, l) {
				continue
			}
			prev, _ := cat.PreviousLesson(lesson.ID)
			for _, guest := range []bool{false, true} {
				got := p.IsLessonLocked(cat, lesson.ID, l, guest)
				want := !l.Completed(prev.ID)
				if got != want {
					t.Errorf("ledger %d, %s guest=%v: locked = %v, want %v", i, lesson.ID, guest, got, want)
				}
			}
		}
	}
}

func TestProperty_GuestNeverPastQuota(t *testing.T) {
	cat := twoByTwo(t)
	all := completed("l1-1", "l1-2", "l2-1", "l2-2")
	for quota := 0; quota <= 4; quota++ {
		p := Policy{GuestQuota: quota}
		for _, lesson := range cat.Lessons() {
			if cat.Position(lesson.ID) > quota && !p.IsLessonLocked(cat, lesson.ID, all, true) {
				t.Errorf("quota %d: %s at position %d unlocked", quota, lesson.ID, cat.Position(lesson.ID))
			}
		}
	}
}

func TestLockedAndCompletedAreIndependent(t *testing.T) {
	cat := twoByTwo(t)
	all := completed("l1-1", "l1-2", "l2-1", "l2-2")
	snap := Policy{GuestQuota: 1}.Evaluate(cat, all, true)

	ls, _ := snap.Lesson("l2-2")
	if !ls.Locked || !ls.Completed {
		t.Errorf("l2-2 = %+v, want locked and completed", ls)
	}
	if !snap.Courses[1].Completed {
		t.Error("course 2 should be completed")
	}
}

func TestRequiresSignupOnlyWhenQuotaIsTheReason(t *testing.T) {
	cat := twoByTwo(t)
	snap := Policy{GuestQuota: 1}.Evaluate(cat, ledger.Empty(), true)

	// l1-2 is past quota but also blocked by its predecessor.
	ls, _ := snap.Lesson("l1-2")
	if ls.RequiresSignup {
		t.Error("l1-2 should not require signup while its predecessor is incomplete")
	}
	if got := snap.Unlocked(); len(got) != 1 || got[0] != "l1-1" {
		t.Errorf("Unlocked = %v, want [l1-1]", got)
	}
}

func TestUnknownIDsAreLocked(t *testing.T) {
	cat := twoByTwo(t)
	if !DefaultPolicy().IsLessonLocked(cat, "nope", ledger.Empty(), false) {
		t.Error("unknown lesson should be locked")
	}
	if !IsCourseLocked(cat, "nope", ledger.Empty()) {
		t.Error("unknown course should be locked")
	}
}

func TestEvaluate_CarriesScores(t *testing.T) {
	cat := twoByTwo(t)
	l := ledger.New(ledger.Entry{LessonID: "l1-1", Completed: true, Score: ledger.ScoreOf(67)})
	snap := DefaultPolicy().Evaluate(cat, l, false)
	ls, _ := snap.Lesson("l1-1")
	if ls.Score == nil || *ls.Score != 67 {
		t.Errorf("score = %v, want 67", ls.Score)
	}
	if ls.Position != 1 {
		t.Errorf("position = %d, want 1", ls.Position)
	}
}

func TestEvaluate_CarriesHasQuiz(t *testing.T) {
	cat, err := catalog.New("v1", []catalog.Course{{ID: "c1", Order: 1, Lessons: []catalog.Lesson{
		{ID: "a", Order: 1, ContentType: catalog.ContentLesson, HasQuiz: true, Cards: []cards.Card{{ID: "a-1", Spec: cards.Info{}}}},
		{ID: "b", Order: 2, ContentType: catalog.ContentLesson, Cards: []cards.Card{{ID: "b-1", Spec: cards.Info{}}}},
	}}})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	snap := DefaultPolicy().Evaluate(cat, ledger.Empty(), false)
	if a, _ := snap.Lesson("a"); !a.HasQuiz {
		t.Error("lesson a should report a quiz")
	}
	if b, _ := snap.Lesson("b"); b.HasQuiz {
		t.Error("lesson b has no quiz")
	}
}
