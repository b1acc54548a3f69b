package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/config"
	"github.com/abhisek/coursiz/internal/engine"
	"github.com/abhisek/coursiz/internal/gating"
	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/logger"
	"github.com/abhisek/coursiz/internal/store"
)

// localGuestID names the single guest of a terminal install. The guest's
// progress file holds one learner, so the id only tags events.
const localGuestID = "local"

// memberFile remembers which member last played in this data dir.
const memberFile = "member"

func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Builtin()
	}
	return catalog.Load(cfg.CatalogPath)
}

func openStore(cfg config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newEngine wires the engine to the store's member ledger and event log.
// guests may be nil to keep guests in the member ledger.
func newEngine(cfg config.Config, cat *catalog.Catalog, st *store.Store, guests ledger.Store, log *logger.Logger) (*engine.Engine, error) {
	events := st.EventRepo()
	return engine.New(engine.Options{
		Catalog:          cat,
		Behaviors:        cards.DefaultBehaviors().WithFeedbackDelay(cfg.FeedbackDelay),
		Policy:           &gating.Policy{GuestQuota: cfg.GuestQuota},
		QuizAdvanceDelay: cfg.QuizAdvanceDelay,
		Members:          st.LedgerRepo(),
		Guests:           guests,
		Awarder:          events,
		Answers:          events,
		Log:              log,
	})
}

// savedLearner returns the member remembered in the data dir, or the local
// guest.
func savedLearner(cfg config.Config) engine.Learner {
	data, err := os.ReadFile(filepath.Join(cfg.DataDir, memberFile))
	if err != nil {
		return engine.Guest(localGuestID)
	}
	if id := strings.TrimSpace(string(data)); id != "" {
		return engine.Member(id)
	}
	return engine.Guest(localGuestID)
}

func saveLearner(cfg config.Config, l engine.Learner) error {
	path := filepath.Join(cfg.DataDir, memberFile)
	if l.Guest {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return os.WriteFile(path, []byte(l.ID+"\n"), 0o644)
}

// learnerFlag resolves --member, falling back to the saved learner.
func learnerFlag(cfg config.Config, member string) engine.Learner {
	if member != "" {
		return engine.Member(strings.ToLower(member))
	}
	return savedLearner(cfg)
}
