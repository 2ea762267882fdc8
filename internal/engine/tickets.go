package engine

import (
	"context"
	"fmt"

	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/latest"
	"github.com/xtding233/loto-backend/internal/ledger"
	"github.com/xtding233/loto-backend/internal/pricing"
)

// PriceQuote is the cost of a set of games split across a syndicate.
type PriceQuote struct {
	pricing.Quote
	Share pricing.Share `json:"share"`
}

// Price quotes one game per size and splits the total across participants.
func (e *Engine) Price(sizes []int, participants int) (PriceQuote, error) {
	if len(sizes) == 0 {
		return PriceQuote{}, fmt.Errorf("%w: no sizes", ErrInvalidArgument)
	}
	q, err := e.Settings().Pricing.QuoteSizes(sizes)
	if err != nil {
		return PriceQuote{}, err
	}
	sh, err := pricing.Split(q.TotalCents, participants)
	if err != nil {
		return PriceQuote{}, err
	}
	return PriceQuote{Quote: q, Share: sh}, nil
}

// TicketRequest is what a caller submits to the ledger.
type TicketRequest struct {
	Games        [][]int `json:"games"`
	Participants int     `json:"participants"`
	PaymentKey   string  `json:"payment_key,omitempty"`
}

// SaveTicket validates and prices the games, then persists the ticket. The
// base draw is the last draw of the current snapshot, if any.
func (e *Engine) SaveTicket(ctx context.Context, req TicketRequest) (ledger.Ticket, error) {
	rules := e.Settings().Rules
	sizes := make([]int, len(req.Games))
	games := make([][]int, len(req.Games))
	for i, g := range req.Games {
		set, err := history.ValidateGame(rules, g)
		if err != nil {
			return ledger.Ticket{}, fmt.Errorf("game %d: %w", i+1, err)
		}
		sizes[i] = set.Len()
		games[i] = set.Numbers()
	}
	pq, err := e.Price(sizes, req.Participants)
	if err != nil {
		return ledger.Ticket{}, err
	}

	t := ledger.Ticket{
		Games:          games,
		Participants:   pq.Share.Participants,
		PaymentKey:     req.PaymentKey,
		Currency:       pq.Currency,
		TotalCents:     pq.TotalCents,
		PerPersonCents: pq.Share.PerPersonCents,
		RemainderCents: pq.Share.RemainderCents,
	}
	if d, ok := e.History().Last(); ok {
		t.BaseDrawID = d.ID
	}
	saved, err := e.ledger.CreateTicket(ctx, t)
	if err != nil {
		return ledger.Ticket{}, err
	}
	e.metrics.ObserveTicket()
	e.log.WithField("ticket", saved.ID).Info("ticket saved")
	return saved, nil
}

func (e *Engine) Ticket(ctx context.Context, id string) (ledger.Ticket, error) {
	return e.ledger.GetTicket(ctx, id)
}

func (e *Engine) Tickets(ctx context.Context, limit int) ([]ledger.Ticket, error) {
	return e.ledger.ListTickets(ctx, limit)
}

// Latest fetches the official latest draw; it is not merged into history.
func (e *Engine) Latest(ctx context.Context) (latest.Result, error) {
	res, err := e.latest.Fetch(ctx)
	e.metrics.ObserveLatest(err)
	return res, err
}
