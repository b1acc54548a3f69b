package score

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/logger"
)

// DefaultAwardTimeout bounds a detached XP award call.
const DefaultAwardTimeout = 10 * time.Second

// Award is an XP grant sent to the award collaborator.
type Award struct {
	LearnerID string
	LessonID  string
	Amount    int
	Reason    string
}

// Awarder credits XP to a learner, typically over the network.
type Awarder interface {
	Award(ctx context.Context, a Award) error
}

// AwarderFunc adapts a function to Awarder.
type AwarderFunc func(ctx context.Context, a Award) error

func (f AwarderFunc) Award(ctx context.Context, a Award) error { return f(ctx, a) }

// Recorder persists a finalized result. The ledger write is synchronous;
// the XP award is dispatched without waiting and its failure is logged.
type Recorder struct {
	ledger  ledger.Writer
	awarder Awarder
	log     *logger.Logger
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

// NewRecorder returns a Recorder. awarder may be nil.
func NewRecorder(w ledger.Writer, awarder Awarder, log *logger.Logger) *Recorder {
	return &Recorder{
		ledger:  w,
		awarder: awarder,
		log:     log,
		timeout: DefaultAwardTimeout,
		now:     time.Now,
	}
}

// Record upserts the completed ledger entry for lessonID and dispatches the
// XP award. Returns the entry written.
func (r *Recorder) Record(ctx context.Context, learnerID, lessonID string, res Result) (ledger.Entry, error) {
	entry := ledger.Entry{
		LessonID:  lessonID,
		Completed: true,
		Score:     res.Score,
		UpdatedAt: r.now().UTC(),
	}
	if err := r.ledger.Upsert(ctx, learnerID, entry); err != nil {
		return entry, fmt.Errorf("record completion of %s: %w", lessonID, err)
	}

	if r.awarder != nil && res.TotalXP > 0 {
		r.dispatch(ctx, Award{
			LearnerID: learnerID,
			LessonID:  lessonID,
			Amount:    res.TotalXP,
			Reason:    "lesson_complete:" + lessonID,
		})
	}
	return entry, nil
}

func (r *Recorder) dispatch(ctx context.Context, a Award) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		if err := r.awarder.Award(actx, a); err != nil {
			r.log.Warn("xp award failed",
				"learner_id", a.LearnerID,
				"lesson_id", a.LessonID,
				"amount", a.Amount,
				"error", err)
			return
		}
		r.log.Debug("xp awarded", "learner_id", a.LearnerID, "lesson_id", a.LessonID, "amount", a.Amount)
	}()
}

// Wait blocks until all dispatched awards have returned.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
