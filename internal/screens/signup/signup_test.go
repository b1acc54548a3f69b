package signup

import (
	"context"
	"reflect"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/engine"
	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/router"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "ada", false},
		{"with punctuation", "ada.l-2_x", false},
		{"two chars", "ab", false},
		{"empty", "", true},
		{"one char", "a", true},
		{"leading dash", "-ada", true},
		{"uppercase", "Ada", true},
		{"space", "ada l", true},
		{"too long", strings.Repeat("a", 33), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func run(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Slice {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for i := range v.Len() {
		out = append(out, run(t, v.Index(i).Interface().(tea.Cmd))...)
	}
	return out
}

func typeText(s *SignupScreen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func newEngine(t *testing.T) (*engine.Engine, *ledger.MemoryStore, *ledger.MemoryStore) {
	t.Helper()
	cat, err := catalog.New("v1.0.0", []catalog.Course{{
		ID: "c1", Order: 1, Title: "Go", Lessons: []catalog.Lesson{
			{ID: "l1", Order: 1, Title: "Hello", ContentType: catalog.ContentLesson,
				Cards: []cards.Card{{ID: "l1-a", Spec: cards.Info{Body: "hi"}}}},
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	guests, members := ledger.NewMemoryStore(), ledger.NewMemoryStore()
	eng, err := engine.New(engine.Options{Catalog: cat, Members: members, Guests: guests})
	if err != nil {
		t.Fatal(err)
	}
	return eng, guests, members
}

func TestSignup_PromotesGuest(t *testing.T) {
	eng, guests, members := newEngine(t)
	ctx := context.Background()
	if err := guests.Upsert(ctx, "g1", ledger.Entry{LessonID: "l1", Completed: true}); err != nil {
		t.Fatal(err)
	}

	s := New(eng, engine.Guest("g1"), `"Loops" is for members.`)
	if !strings.Contains(s.View(80, 20), "Loops") {
		t.Error("view should show the reason")
	}
	typeText(s, "Ada")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	msgs := run(t, cmd)
	if len(msgs) != 2 {
		t.Fatalf("got %d msgs, want 2", len(msgs))
	}
	if _, ok := msgs[0].(router.PopScreenMsg); !ok {
		t.Errorf("first msg = %T, want PopScreenMsg", msgs[0])
	}
	done, ok := msgs[1].(SignedUpMsg)
	if !ok {
		t.Fatalf("second msg = %T, want SignedUpMsg", msgs[1])
	}
	if done.Learner != engine.Member("ada") || done.Copied != 1 {
		t.Errorf("signed up = %+v", done)
	}

	l, err := members.Load(ctx, "ada")
	if err != nil {
		t.Fatal(err)
	}
	if !l.Completed("l1") {
		t.Error("guest progress was not copied")
	}
}

func TestSignup_InvalidNameStays(t *testing.T) {
	eng, _, _ := newEngine(t)
	s := New(eng, engine.Guest("g1"), "")

	typeText(s, "a b")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("invalid name should not submit")
	}
	if !strings.Contains(s.View(80, 20), "use 2-32 letters") {
		t.Error("expected validation error in view")
	}
}
