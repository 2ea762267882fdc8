package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakeFor(t *testing.T) {
	c := DefaultCatalog()
	p, err := c.StakeFor(15)
	require.NoError(t, err)
	assert.Equal(t, 350, p)

	_, err = c.StakeFor(21)
	assert.ErrorIs(t, err, ErrUnknownSize)
	assert.Equal(t, []int{15, 16, 17, 18, 19, 20}, c.Sizes())
}

func TestQuoteSizes(t *testing.T) {
	q, err := DefaultCatalog().QuoteSizes([]int{15, 16, 15, 15})
	require.NoError(t, err)
	assert.Equal(t, "BRL", q.Currency)
	assert.Equal(t, []Line{
		{Size: 15, Qty: 3, UnitPrice: 350, Subtotal: 1050},
		{Size: 16, Qty: 1, UnitPrice: 5600, Subtotal: 5600},
	}, q.Lines)
	assert.Equal(t, 6650, q.TotalCents)

	_, err = DefaultCatalog().QuoteSizes([]int{14})
	assert.ErrorIs(t, err, ErrUnknownSize)
}

func TestSplit(t *testing.T) {
	s, err := Split(1000, 3)
	require.NoError(t, err)
	assert.Equal(t, Share{Participants: 3, TotalCents: 1000, PerPersonCents: 333, RemainderCents: 1}, s)

	_, err = Split(1000, 0)
	assert.ErrorIs(t, err, ErrNoParticipants)
	_, err = Split(-1, 2)
	assert.ErrorIs(t, err, ErrNegativeAmounts)
}
