package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileStore is a MemoryStore that rewrites a YAML file after every change.
type FileStore struct {
	*MemoryStore
	path string
}

type fileDoc struct {
	Tickets []Ticket `yaml:"tickets"`
}

// OpenFileStore loads path if it exists; a missing file starts an empty ledger.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{MemoryStore: NewMemoryStore(), path: path}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fs, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var doc fileDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, t := range doc.Tickets {
		if t.ID == "" {
			continue
		}
		fs.put(t)
	}
	return fs, nil
}

func (s *FileStore) CreateTicket(_ context.Context, t Ticket) (Ticket, error) {
	if err := validate(t); err != nil {
		return Ticket{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.create(t)
	if err := s.flush(); err != nil {
		s.remove(saved.ID)
		return Ticket{}, err
	}
	return saved, nil
}

// flush writes the whole ledger via a temp file and rename; callers hold mu.
func (s *FileStore) flush() error {
	b, err := yaml.Marshal(fileDoc{Tickets: s.snapshot()})
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tickets-*.yaml")
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
