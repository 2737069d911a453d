package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scratchpool/ticket-api/internal/domain"
)

type fakeInventory struct {
	unsold    int64
	codes     map[string]struct{}
	inserted  [][]domain.Ticket
	insertErr error
	countErr  error
}

func (f *fakeInventory) CountUnsold(context.Context) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}

	return f.unsold, nil
}

func (f *fakeInventory) ExistingCodes(context.Context) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(f.codes))
	for code := range f.codes {
		set[code] = struct{}{}
	}

	return set, nil
}

func (f *fakeInventory) InsertRun(_ context.Context, batches [][]domain.Ticket) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = batches

	return nil
}

func (f *fakeInventory) CodeExists(_ context.Context, code string) (bool, error) {
	_, ok := f.codes[code]

	return ok, nil
}

type fixedOracle struct {
	isWinner bool
	prize    decimal.Decimal
}

func (o fixedOracle) Decide() (bool, decimal.Decimal) {
	return o.isWinner, o.prize
}

func testReplenishSettings() ReplenishSettings {
	return ReplenishSettings{
		LowWaterMark: 3000,
		Batches:      10,
		BatchSize:    50,
		GuaranteedWinners: []GuaranteedWinners{
			{Count: 10, Prize: decimal.RequireFromString("10.00")},
			{Count: 5, Prize: decimal.RequireFromString("100.00")},
		},
	}
}

func newTestReplenisher(inv *fakeInventory, oracle Oracle) *Replenisher {
	gen := NewCodeGenerator(inv, "Ticket-", 100)

	return NewReplenisher(inv, gen, oracle, testReplenishSettings)
}

func TestReplenisher_Replenish(t *testing.T) {
	inv := &fakeInventory{unsold: 100, codes: map[string]struct{}{}}
	r := newTestReplenisher(inv, fixedOracle{})

	err := r.Replenish(context.Background())

	require.NoError(t, err)
	require.NotEmpty(t, inv.inserted)

	total := 0
	seen := make(map[string]struct{})
	var winners []domain.Ticket
	for _, batch := range inv.inserted {
		total += len(batch)
		for _, ticket := range batch {
			assert.False(t, ticket.IsSold)

			_, dup := seen[ticket.Code]
			require.False(t, dup, "duplicate code %v within run", ticket.Code)
			seen[ticket.Code] = struct{}{}

			if ticket.IsWinner {
				winners = append(winners, ticket)
			}
		}
	}

	// 10 batches of 50, plus 10 + 5 guaranteed winners.
	assert.Equal(t, 515, total)
	require.Len(t, winners, 15)

	tens, hundreds := 0, 0
	for _, w := range winners {
		switch {
		case w.PrizeValue.Equal(decimal.RequireFromString("10.00")):
			tens++
		case w.PrizeValue.Equal(decimal.RequireFromString("100.00")):
			hundreds++
		}
	}
	assert.Equal(t, 10, tens)
	assert.Equal(t, 5, hundreds)
}

func TestReplenisher_Replenish_NoopAtLowWaterMark(t *testing.T) {
	for _, unsold := range []int64{3000, 5000} {
		inv := &fakeInventory{unsold: unsold, codes: map[string]struct{}{}}
		r := newTestReplenisher(inv, fixedOracle{})

		err := r.Replenish(context.Background())

		require.NoError(t, err)
		assert.Empty(t, inv.inserted, "unsold=%d must not trigger a run", unsold)
	}
}

func TestReplenisher_Replenish_OracleDecidesPrizes(t *testing.T) {
	prize := decimal.RequireFromString("25.00")
	inv := &fakeInventory{unsold: 0, codes: map[string]struct{}{}}
	r := newTestReplenisher(inv, fixedOracle{isWinner: true, prize: prize})

	err := r.Replenish(context.Background())
	require.NoError(t, err)

	// The 10 regular batches carry the oracle's decision.
	for _, batch := range inv.inserted[:10] {
		for _, ticket := range batch {
			assert.True(t, ticket.IsWinner)
			assert.True(t, ticket.PrizeValue.Equal(prize))
		}
	}
}

func TestReplenisher_Replenish_InsertFailureAbortsRun(t *testing.T) {
	insertErr := errors.New("connection lost")
	inv := &fakeInventory{unsold: 0, codes: map[string]struct{}{}, insertErr: insertErr}
	r := newTestReplenisher(inv, fixedOracle{})

	err := r.Replenish(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, insertErr)
	assert.Empty(t, inv.inserted)
}

func TestReplenisher_Replenish_GenerationExhaustedAbortsRun(t *testing.T) {
	// Every candidate the generator can produce is already stored from the
	// store's point of view.
	inv := &fakeInventory{unsold: 0, codes: map[string]struct{}{}}
	gen := NewCodeGenerator(alwaysExistsStore{}, "Ticket-", 3)
	r := NewReplenisher(inv, gen, fixedOracle{}, testReplenishSettings)

	err := r.Replenish(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationExhausted)
	assert.ErrorContains(t, err, "batch 0")
	assert.Empty(t, inv.inserted)
}

type alwaysExistsStore struct{}

func (alwaysExistsStore) CodeExists(context.Context, string) (bool, error) {
	return true, nil
}
