package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scratchpool/ticket-api/internal/domain"
)

// ReplenishSettings is the per-run shape of a replenishment: how low the
// unsold pool must be before topping up, and how many tickets to mint.
type ReplenishSettings struct {
	LowWaterMark int64
	Batches      int
	BatchSize    int
	// GuaranteedWinners maps a prize value to the number of winner tickets
	// minted at that value on every run.
	GuaranteedWinners []GuaranteedWinners
}

type GuaranteedWinners struct {
	Count int
	Prize decimal.Decimal
}

// InventoryRepository is the slice of the ticket store the replenisher needs.
type InventoryRepository interface {
	CountUnsold(ctx context.Context) (int64, error)
	ExistingCodes(ctx context.Context) (map[string]struct{}, error)
	InsertRun(ctx context.Context, batches [][]domain.Ticket) error
}

type Generator interface {
	Generate(ctx context.Context, known map[string]struct{}) (string, error)
}

type Oracle interface {
	Decide() (bool, decimal.Decimal)
}

type Replenisher struct {
	repo     InventoryRepository
	gen      Generator
	oracle   Oracle
	settings func() ReplenishSettings
}

func NewReplenisher(repo InventoryRepository, gen Generator, oracle Oracle, settings func() ReplenishSettings) *Replenisher {
	return &Replenisher{
		repo:     repo,
		gen:      gen,
		oracle:   oracle,
		settings: settings,
	}
}

// Replenish tops up the unsold pool when it has fallen below the low-water
// mark, and is a logged no-op otherwise. The whole run is generated against a
// run-local working set of codes and inserted as one atomic unit: a failure
// anywhere, including an exhausted code generator, changes nothing.
//
// Safe to invoke concurrently with itself and with fulfillment. Concurrent
// runs can both pass the low-water check and insert; the store's unique code
// index keeps their codes disjoint.
func (r *Replenisher) Replenish(ctx context.Context) error {
	unsold, err := r.repo.CountUnsold(ctx)
	if err != nil {
		return fmt.Errorf("r.repo.CountUnsold -> %w", err)
	}

	cfg := r.settings()
	if unsold >= cfg.LowWaterMark {
		zap.L().Info("replenish skipped, sufficient tickets available",
			zap.Int64("available", unsold),
			zap.Int64("low_water_mark", cfg.LowWaterMark))
		return nil
	}

	known, err := r.repo.ExistingCodes(ctx)
	if err != nil {
		return fmt.Errorf("r.repo.ExistingCodes -> %w", err)
	}

	batches := make([][]domain.Ticket, 0, cfg.Batches+1)
	total := 0
	for b := 0; b < cfg.Batches; b++ {
		batch := make([]domain.Ticket, 0, cfg.BatchSize)
		for i := 0; i < cfg.BatchSize; i++ {
			code, err := r.gen.Generate(ctx, known)
			if err != nil {
				return fmt.Errorf("generate ticket (batch %d, index %d) -> %w", b, i, err)
			}

			isWinner, prize := r.oracle.Decide()
			batch = append(batch, domain.Ticket{
				Code:       code,
				PrizeValue: prize,
				IsWinner:   isWinner,
			})
		}

		batches = append(batches, batch)
		total += len(batch)
	}

	winners := make([]domain.Ticket, 0)
	for _, tier := range cfg.GuaranteedWinners {
		for i := 0; i < tier.Count; i++ {
			code, err := r.gen.Generate(ctx, known)
			if err != nil {
				return fmt.Errorf("generate guaranteed winner (prize %s, index %d) -> %w", tier.Prize, i, err)
			}

			winners = append(winners, domain.Ticket{
				Code:       code,
				PrizeValue: tier.Prize,
				IsWinner:   true,
			})
		}
	}
	if len(winners) > 0 {
		batches = append(batches, winners)
		total += len(winners)
	}

	if err := r.repo.InsertRun(ctx, batches); err != nil {
		return fmt.Errorf("r.repo.InsertRun -> %w", err)
	}

	zap.L().Info("replenishment completed",
		zap.Int("tickets_created", total),
		zap.Int("guaranteed_winners", len(winners)),
		zap.Int64("previously_available", unsold))

	return nil
}
