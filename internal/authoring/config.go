package authoring

// Config controls a Drafter.
type Config struct {
	// MaxTokens is the response budget. A lesson's worth of cards is a few
	// kilobytes of JSON.
	MaxTokens int

	Temperature float64

	// MaxExisting caps how many of the lesson's current cards are quoted
	// in the prompt so drafts don't repeat them.
	MaxExisting int

	// MaxCards caps Request.Count.
	MaxCards int
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   4096,
		Temperature: 0.7,
		MaxExisting: 12,
		MaxCards:    10,
	}
}
