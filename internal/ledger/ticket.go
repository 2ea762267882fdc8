// Package ledger persists syndicate tickets: the generated games together with
// who shares them and what each participant owes.
package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("ticket not found")
	ErrInvalidTicket = errors.New("invalid ticket")
)

// Ticket is one saved syndicate bet.
type Ticket struct {
	ID             string    `json:"id" yaml:"id"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	BaseDrawID     int       `json:"base_draw_id,omitempty" yaml:"base_draw_id,omitempty"` // last draw in history when generated
	Games          [][]int   `json:"games" yaml:"games"`
	Participants   int       `json:"participants" yaml:"participants"`
	PaymentKey     string    `json:"payment_key,omitempty" yaml:"payment_key,omitempty"`
	Currency       string    `json:"currency" yaml:"currency"`
	TotalCents     int       `json:"total_cents" yaml:"total_cents"`
	PerPersonCents int       `json:"per_person_cents" yaml:"per_person_cents"`
	RemainderCents int       `json:"remainder_cents" yaml:"remainder_cents"`
}

// Store defines the persistence interface for tickets.
type Store interface {
	CreateTicket(ctx context.Context, t Ticket) (Ticket, error)
	GetTicket(ctx context.Context, id string) (Ticket, error)
	// ListTickets returns newest first; limit <= 0 means all.
	ListTickets(ctx context.Context, limit int) ([]Ticket, error)
}

func validate(t Ticket) error {
	switch {
	case len(t.Games) == 0:
		return errors.Join(ErrInvalidTicket, errors.New("no games"))
	case t.Participants < 1:
		return errors.Join(ErrInvalidTicket, errors.New("participants must be >= 1"))
	}
	return nil
}
