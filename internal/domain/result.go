package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DrawResult is the immutable record of the tickets awarded for one completed
// purchase. Written exactly once, in the same transaction that completes the
// purchase. A failed purchase has no result.
type DrawResult struct {
	ID            uint
	PurchaseID    uint
	Tickets       []TicketLine
	TotalPrizeWon decimal.Decimal
	CreatedAt     time.Time
}

// SumPrizes adds up the prize values of the given result lines.
func SumPrizes(lines []TicketLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.PrizeValue)
	}

	return total
}
