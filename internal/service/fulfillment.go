package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scratchpool/ticket-api/internal/domain"
	"github.com/scratchpool/ticket-api/internal/repository"
)

var (
	ErrInsufficientTickets  = repository.ErrInsufficientTickets
	ErrPurchaseNotFound     = repository.ErrPurchaseNotFound
	ErrPurchaseAlreadyFinal = repository.ErrPurchaseAlreadyFinal
	ErrResultNotFound       = repository.ErrResultNotFound
)

// ClaimRepository performs the atomic ticket claim for a purchase.
type ClaimRepository interface {
	ClaimForPurchase(ctx context.Context, purchase domain.Purchase) (domain.DrawResult, error)
}

// PurchaseStatusRepository reads a purchase and moves it to failed.
type PurchaseStatusRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Purchase, error)
	MarkFailed(ctx context.Context, id uint) error
}

type FulfillmentService struct {
	tickets      ClaimRepository
	purchases    PurchaseStatusRepository
	claimTimeout time.Duration
}

func NewFulfillmentService(tickets ClaimRepository, purchases PurchaseStatusRepository, claimTimeout time.Duration) *FulfillmentService {
	return &FulfillmentService{
		tickets:      tickets,
		purchases:    purchases,
		claimTimeout: claimTimeout,
	}
}

// Fulfill processes one queued purchase to a terminal state. It runs
// asynchronously, so every error is caught and translated into a failed
// purchase rather than returned to the job runner, and a redelivered job for
// an already-terminal purchase is a no-op.
func (s *FulfillmentService) Fulfill(ctx context.Context, purchaseID uint) {
	purchase, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			zap.L().Warn("fulfillment job for unknown purchase", zap.Uint("purchase_id", purchaseID))
			return
		}

		zap.L().Error("failed to load purchase for fulfillment",
			zap.Uint("purchase_id", purchaseID), zap.Error(err))
		return
	}

	if purchase.IsTerminal() {
		zap.L().Info("skipping redelivered fulfillment job",
			zap.Uint("purchase_id", purchase.ID),
			zap.String("status", string(purchase.Status)))
		return
	}

	// The submit path validates quantity bounds; a non-positive quantity here
	// means a corrupt record and is treated like insufficient inventory.
	if purchase.Quantity <= 0 {
		s.fail(ctx, purchase.ID, fmt.Errorf("invalid quantity %d", purchase.Quantity))
		return
	}

	// The claim must run to commit or abort once started. It is detached from
	// the job's cancellation and bounded by its own timeout instead, so a slow
	// lock fails the purchase rather than deadlocking.
	claimCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.claimTimeout)
	defer cancel()

	result, err := s.tickets.ClaimForPurchase(claimCtx, purchase)
	if err != nil {
		switch {
		case errors.Is(err, ErrPurchaseAlreadyFinal):
			zap.L().Info("purchase finished by a concurrent delivery", zap.Uint("purchase_id", purchase.ID))
		case errors.Is(err, ErrInsufficientTickets):
			zap.L().Warn("not enough unsold tickets for purchase",
				zap.Uint("purchase_id", purchase.ID),
				zap.Int("quantity", purchase.Quantity))
			s.fail(ctx, purchase.ID, err)
		default:
			s.fail(ctx, purchase.ID, err)
		}
		return
	}

	zap.L().Info("purchase fulfilled",
		zap.Uint("purchase_id", purchase.ID),
		zap.Int("tickets", len(result.Tickets)),
		zap.String("total_prize_won", result.TotalPrizeWon.String()))
}

func (s *FulfillmentService) fail(ctx context.Context, purchaseID uint, cause error) {
	zap.L().Error("ticket purchase processing failed",
		zap.Uint("purchase_id", purchaseID), zap.Error(cause))

	if err := s.purchases.MarkFailed(ctx, purchaseID); err != nil && !errors.Is(err, ErrPurchaseAlreadyFinal) {
		zap.L().Error("failed to mark purchase as failed",
			zap.Uint("purchase_id", purchaseID), zap.Error(err))
	}
}
