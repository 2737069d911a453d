package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchaseProcessing PurchaseStatus = "processing"
	PurchaseCompleted  PurchaseStatus = "completed"
	PurchaseFailed     PurchaseStatus = "failed"
)

type Purchase struct {
	ID         uint
	OwnerID    uint
	Quantity   int
	TotalSpent decimal.Decimal
	Status     PurchaseStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsTerminal reports whether the purchase has reached completed or failed.
// Terminal purchases never transition again.
func (p *Purchase) IsTerminal() bool {
	return p.Status == PurchaseCompleted || p.Status == PurchaseFailed
}

// MarkCompleted transitions processing -> completed. Returns false without
// mutating when the purchase is already terminal.
func (p *Purchase) MarkCompleted() bool {
	if p.Status != PurchaseProcessing {
		return false
	}
	p.Status = PurchaseCompleted

	return true
}

// MarkFailed transitions processing -> failed. Returns false without mutating
// when the purchase is already terminal.
func (p *Purchase) MarkFailed() bool {
	if p.Status != PurchaseProcessing {
		return false
	}
	p.Status = PurchaseFailed

	return true
}
