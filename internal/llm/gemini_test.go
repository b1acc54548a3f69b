package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cards": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": float64(8),
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":  map[string]any{"type": "string", "enum": []any{"info", "single_choice"}},
						"xp":    map[string]any{"type": "integer"},
						"title": map[string]any{"type": "string"},
					},
					"required": []string{"type", "title"},
				},
			},
		},
		"required": []any{"cards"},
	}

	s := geminiSchema(def)
	if s.Type != genai.TypeObject {
		t.Fatalf("type = %s, want OBJECT", s.Type)
	}
	cards := s.Properties["cards"]
	if cards.Type != genai.TypeArray || cards.MinItems == nil || *cards.MinItems != 1 || *cards.MaxItems != 8 {
		t.Fatalf("cards schema = %+v", cards)
	}
	item := cards.Items
	if item.Properties["xp"].Type != genai.TypeInteger {
		t.Fatalf("xp type = %s", item.Properties["xp"].Type)
	}
	if len(item.Properties["type"].Enum) != 2 {
		t.Fatalf("enum = %v", item.Properties["type"].Enum)
	}
	if len(item.Required) != 2 || len(s.Required) != 1 {
		t.Fatalf("required = %v / %v", item.Required, s.Required)
	}
}
