package engine

import (
	"context"
	"errors"

	"github.com/xtding233/loto-backend/internal/generator"
	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/latest"
	"github.com/xtding233/loto-backend/internal/ledger"
	"github.com/xtding233/loto-backend/internal/pricing"
	"github.com/xtding233/loto-backend/internal/rng"
	"github.com/xtding233/loto-backend/internal/sampler"
	"github.com/xtding233/loto-backend/internal/stats"
)

// ErrInvalidArgument marks request-level problems found by the engine itself.
var ErrInvalidArgument = errors.New("invalid argument")

// Kind groups errors the way transports report them.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindUnavailable
	KindUpstream
	KindTimeout
)

var invalid = []error{
	ErrInvalidArgument,
	generator.ErrInvalidParams,
	sampler.ErrInvalidParams,
	history.ErrInvalidGame,
	history.ErrWrongCount,
	history.ErrOutOfRange,
	history.ErrDuplicate,
	stats.ErrComboSize,
	rng.ErrInvalidProb,
	pricing.ErrUnknownSize,
	pricing.ErrNoParticipants,
	pricing.ErrNegativeAmounts,
	ledger.ErrInvalidTicket,
}

// Classify maps err onto a Kind.
func Classify(err error) Kind {
	for _, target := range invalid {
		if errors.Is(err, target) {
			return KindInvalid
		}
	}
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return KindNotFound
	case errors.Is(err, latest.ErrNotConfigured):
		return KindUnavailable
	case errors.Is(err, latest.ErrBadResponse):
		return KindUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindInternal
}
