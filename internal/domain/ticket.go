package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is a single purchasable scratch ticket. Created unsold by the
// replenisher; IsSold flips to true exactly once when a purchase claims it.
type Ticket struct {
	ID         uint
	Code       string
	PrizeValue decimal.Decimal
	IsWinner   bool
	IsSold     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TicketLine is one ticket as captured in a draw result, in claim order.
type TicketLine struct {
	Code       string          `json:"code"`
	PrizeValue decimal.Decimal `json:"prize_won"`
	IsWinner   bool            `json:"is_winner"`
}

// OwnedTicket is a result line enriched with the purchase it came from, used
// for the owner-wide listing.
type OwnedTicket struct {
	Code         string
	PrizeValue   decimal.Decimal
	IsWinner     bool
	PurchaseDate time.Time
	PurchaseID   uint
}
