package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps tickets in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
	order   []string // creation order
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]Ticket),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) CreateTicket(_ context.Context, t Ticket) (Ticket, error) {
	if err := validate(t); err != nil {
		return Ticket{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(t), nil
}

// create assigns identity and stores t; callers hold mu.
func (s *MemoryStore) create(t Ticket) Ticket {
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	t.Games = cloneGames(t.Games)
	s.put(t)
	return t
}

// remove drops id; callers hold mu.
func (s *MemoryStore) remove(id string) {
	delete(s.tickets, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
}

func (s *MemoryStore) GetTicket(_ context.Context, id string) (Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t.Games = cloneGames(t.Games)
	return t, nil
}

func (s *MemoryStore) ListTickets(_ context.Context, limit int) ([]Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Ticket, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		t := s.tickets[s.order[i]]
		t.Games = cloneGames(t.Games)
		out = append(out, t)
	}
	return out, nil
}

// put stores t; callers hold mu.
func (s *MemoryStore) put(t Ticket) {
	if _, ok := s.tickets[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.tickets[t.ID] = t
}

// snapshot returns all tickets in creation order; callers hold mu.
func (s *MemoryStore) snapshot() []Ticket {
	out := make([]Ticket, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tickets[id])
	}
	return out
}

func cloneGames(gs [][]int) [][]int {
	out := make([][]int, len(gs))
	for i, g := range gs {
		out[i] = slices.Clone(g)
	}
	return out
}
