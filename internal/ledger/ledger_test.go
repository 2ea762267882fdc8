package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTicket() Ticket {
	return Ticket{
		BaseDrawID:     3000,
		Games:          [][]int{{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		Participants:   3,
		PaymentKey:     "pix@example.com",
		Currency:       "BRL",
		TotalCents:     350,
		PerPersonCents: 116,
		RemainderCents: 2,
	}
}

func TestMemoryStoreCreateGetList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, err := s.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	_, err = uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.False(t, a.CreatedAt.IsZero())

	b, err := s.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	got, err := s.GetTicket(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got.Games[0][0] = 99
	again, _ := s.GetTicket(ctx, a.ID)
	assert.Equal(t, 1, again.Games[0][0], "stored games are copied out")

	list, err := s.ListTickets(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "newest first")

	list, _ = s.ListTickets(ctx, 1)
	assert.Len(t, list, 1)

	_, err = s.GetTicket(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTicketValidates(t *testing.T) {
	s := NewMemoryStore()
	bad := sampleTicket()
	bad.Games = nil
	_, err := s.CreateTicket(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidTicket)

	bad = sampleTicket()
	bad.Participants = 0
	_, err = s.CreateTicket(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger", "tickets.yaml")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	saved, err := s.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	got, err := reopened.GetTicket(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Games, got.Games)
	assert.Equal(t, saved.PaymentKey, got.PaymentKey)
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
}

func TestOpenFileStoreMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickets: {oops"), 0o644))
	_, err := OpenFileStore(path)
	assert.Error(t, err)
}
