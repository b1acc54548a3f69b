package authoring

import (
	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/llm"
)

func stringArray(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

func archetypeEnum() []any {
	out := make([]any, 0, len(cards.AllArchetypes()))
	for _, a := range cards.AllArchetypes() {
		out = append(out, string(a))
	}
	return out
}

// CardsSchema is the response shape asked of the model. Every archetype
// shares one flat object; fields that don't apply are left empty. Matching
// pairs are a list rather than a map because strict structured output
// modes reject open-ended objects.
var CardsSchema = &llm.Schema{
	Name:        "lesson-cards",
	Description: "Draft cards for one lesson of an online course",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cards": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type":        "string",
							"enum":        archetypeEnum(),
							"description": "The card archetype",
						},
						"title":  map[string]any{"type": "string", "description": "Short card heading"},
						"prompt": map[string]any{"type": "string", "description": "The question asked. Empty for info cards."},
						"xp": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"maximum":     50,
							"description": "Reward for a correct answer. 0 uses the default.",
						},
						"body":    map[string]any{"type": "string", "description": "Explanatory text for info cards"},
						"options": stringArray("Choices for single-choice and multi-select cards"),
						"answer": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"description": "Zero-based index of the correct option for single-choice cards",
						},
						"answers": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "integer", "minimum": 0},
							"description": "Zero-based indices of every correct option for multi-select cards",
						},
						"statements": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"text":  map[string]any{"type": "string"},
									"truth": map[string]any{"type": "boolean"},
								},
								"required":             []any{"text", "truth"},
								"additionalProperties": false,
							},
							"description": "Statements for true-false cards",
						},
						"left":  stringArray("Left column for matching cards"),
						"right": stringArray("Right column for matching cards, same length as left"),
						"pairs": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"left":  map[string]any{"type": "string"},
									"right": map[string]any{"type": "string"},
								},
								"required":             []any{"left", "right"},
								"additionalProperties": false,
							},
							"description": "The correct left to right pairing for matching cards",
						},
						"items": stringArray("Items in their correct order for ordering cards"),
					},
					"required": []any{
						"type", "title", "prompt", "xp", "body", "options", "answer",
						"answers", "statements", "left", "right", "pairs", "items",
					},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"cards"},
		"additionalProperties": false,
	},
}
