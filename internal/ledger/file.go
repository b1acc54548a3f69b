package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileFormatVersion is written into every progress document.
const fileFormatVersion = 1

// errCorruptFile marks a progress file that is not valid JSON.
var errCorruptFile = errors.New("progress file is corrupt")

type document struct {
	Version int     `json:"version"`
	Learner string  `json:"learner,omitempty"`
	Entries []Entry `json:"entries"`
}

// FileStore keeps a guest's ledger in a single JSON file under a fixed key.
// The learner id is recorded but not used for lookup: one device, one guest.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file. A missing file is an empty ledger.
func (s *FileStore) Load(_ context.Context, _ string) (Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() (Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return Ledger{}, fmt.Errorf("read progress file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Ledger{}, fmt.Errorf("%w: %w", errCorruptFile, err)
	}
	if doc.Version != fileFormatVersion {
		return Ledger{}, fmt.Errorf("progress file version %d unsupported", doc.Version)
	}
	return New(doc.Entries...), nil
}

// Upsert merges e into the file. A file that is not valid JSON is moved to
// CorruptPath and replaced; any other read error aborts the write.
func (s *FileStore) Upsert(_ context.Context, learnerID string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load()
	switch {
	case errors.Is(err, errCorruptFile):
		if mvErr := os.Rename(s.path, s.CorruptPath()); mvErr != nil {
			return fmt.Errorf("set aside corrupt progress file: %w", mvErr)
		}
		l = Empty()
	case err != nil:
		return err
	}
	return s.write(learnerID, l.With(e))
}

// CorruptPath is where Upsert moves an undecodable progress file.
func (s *FileStore) CorruptPath() string {
	return s.path + ".corrupt"
}

// Reset removes the file.
func (s *FileStore) Reset(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove progress file: %w", err)
	}
	return nil
}

func (s *FileStore) write(learnerID string, l Ledger) error {
	data, err := json.MarshalIndent(document{
		Version: fileFormatVersion,
		Learner: learnerID,
		Entries: l.Entries(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create progress dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write progress file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}
