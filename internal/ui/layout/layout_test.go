package layout

import (
	"strings"
	"testing"
)

func TestIsTooSmall(t *testing.T) {
	tests := []struct {
		w, h int
		want bool
	}{
		{80, 24, false},
		{79, 24, true},
		{80, 23, true},
		{120, 40, false},
	}
	for _, tt := range tests {
		if got := IsTooSmall(tt.w, tt.h); got != tt.want {
			t.Errorf("IsTooSmall(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestContentHeight(t *testing.T) {
	if got := ContentHeight(30); got != 24 {
		t.Errorf("ContentHeight(30) = %d, want 24", got)
	}
	if got := ContentHeight(2); got != 0 {
		t.Errorf("ContentHeight(2) = %d, want 0", got)
	}
}

func TestRenderHeaderShowsStatus(t *testing.T) {
	out := RenderHeader("Course Map", Status{Learner: "guest", Completed: 2, Total: 7}, 100)
	for _, want := range []string{"Coursiz", "Course Map", "guest", "2/7"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHeaderCompactDropsLearner(t *testing.T) {
	out := RenderHeader("Quiz", Status{Learner: "ada", Completed: 1, Total: 3}, 84)
	if strings.Contains(out, "ada") {
		t.Error("compact header should drop the learner name")
	}
	if !strings.Contains(out, "1/3") {
		t.Error("compact header should keep the counter")
	}
}
