package store

import (
	"context"
	"time"

	"github.com/abhisek/coursiz/internal/score"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int   // max results (0 = unlimited)
	After int64 // sequence > After
}

// AnswerEventData captures one judged card submission.
type AnswerEventData struct {
	LearnerID string
	LessonID  string
	CardID    string
	Archetype string
	Correct   bool
	XP        int
}

// AnswerEvent is a stored AnswerEventData with its position in the log.
type AnswerEvent struct {
	AnswerEventData
	Sequence  int64
	CreatedAt time.Time
}

// XPEventData captures one XP award.
type XPEventData struct {
	LearnerID string
	LessonID  string
	Amount    int
	Reason    string
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	LLMRequestEventData
	Sequence  int64
	CreatedAt time.Time
}

// LLMUsage aggregates LLM requests sharing a purpose or a model. Only the
// grouping field is set.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64

	key string
}

// Stats summarizes a learner's activity.
type Stats struct {
	TotalXP          int
	Answers          int
	CorrectAnswers   int
	LessonsCompleted int
}

// Accuracy returns the share of correct answers as a whole percent.
func (s Stats) Accuracy() int {
	if s.Answers == 0 {
		return 0
	}
	return (s.CorrectAnswers*100 + s.Answers/2) / s.Answers
}

// EventRepo provides append and query access to the event log.
type EventRepo interface {
	// AppendAnswer records a judged card submission.
	AppendAnswer(ctx context.Context, data AnswerEventData) error

	// AppendXP records an XP award.
	AppendXP(ctx context.Context, data XPEventData) error

	// Award records a lesson completion award. It makes the repo a
	// score.Awarder.
	Award(ctx context.Context, a score.Award) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// LLMRequests returns the most recent LLM requests, newest first.
	LLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// LLMRequest returns one LLM request by sequence, or nil when absent.
	LLMRequest(ctx context.Context, sequence int64) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)

	// Answers returns a learner's answer events in sequence order.
	Answers(ctx context.Context, learnerID string, opts QueryOpts) ([]AnswerEvent, error)

	// Stats summarizes a learner's events and ledger.
	Stats(ctx context.Context, learnerID string) (Stats, error)
}
