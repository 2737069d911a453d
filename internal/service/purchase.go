package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/scratchpool/ticket-api/internal/domain"
)

var (
	ErrQuantityOutOfRange = errors.New("quantity out of allowed range")
	ErrNotOwner           = errors.New("purchase does not belong to this owner")
	ErrQueueFull          = errors.New("fulfillment queue is full")
)

// PurchaseSettings bounds a submission and derives its cost.
type PurchaseSettings struct {
	UnitPrice       decimal.Decimal
	MinQuantity     int
	MaxQuantity     int
	DefaultPageSize int
}

type PurchaseRepository interface {
	Create(ctx context.Context, purchase domain.Purchase) (domain.Purchase, error)
	FindByID(ctx context.Context, id uint) (domain.Purchase, error)
	MarkFailed(ctx context.Context, id uint) error
	FindLatestCompletedByOwner(ctx context.Context, ownerID uint) (domain.Purchase, error)
	FindCompletedByOwner(ctx context.Context, ownerID uint) ([]domain.Purchase, error)
}

type ResultRepository interface {
	FindByPurchaseID(ctx context.Context, purchaseID uint) (domain.DrawResult, error)
	FindByPurchaseIDs(ctx context.Context, purchaseIDs []uint) ([]domain.DrawResult, error)
	TotalWinningsByOwner(ctx context.Context, ownerID uint) (decimal.Decimal, error)
}

// JobQueue hands a purchase to the asynchronous fulfillment workers. The
// queue delivers at least once; fulfillment tolerates redelivery.
type JobQueue interface {
	EnqueueFulfillment(purchaseID uint) error
}

type PurchaseService struct {
	repo     PurchaseRepository
	results  ResultRepository
	queue    JobQueue
	settings func() PurchaseSettings
}

func NewPurchaseService(repo PurchaseRepository, results ResultRepository, queue JobQueue, settings func() PurchaseSettings) *PurchaseService {
	return &PurchaseService{
		repo:     repo,
		results:  results,
		queue:    queue,
		settings: settings,
	}
}

// StatusPage is one page of a purchase's status, with winning tickets sorted
// ahead of losing ones before pagination.
type StatusPage struct {
	Status       domain.PurchaseStatus
	Results      []domain.TicketLine
	TotalResults int
	Page         int
	PageSize     int
}

// SubmitPurchase records a purchase in processing state and enqueues its
// fulfillment job. The purchase is failed immediately when the job cannot be
// queued, so nothing is left in processing with no job to finish it.
func (s *PurchaseService) SubmitPurchase(ctx context.Context, ownerID uint, quantity int) (uint, error) {
	cfg := s.settings()
	if quantity < cfg.MinQuantity || quantity > cfg.MaxQuantity {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrQuantityOutOfRange, quantity, cfg.MinQuantity, cfg.MaxQuantity)
	}

	purchase := domain.Purchase{
		OwnerID:    ownerID,
		Quantity:   quantity,
		TotalSpent: cfg.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Status:     domain.PurchaseProcessing,
	}

	created, err := s.repo.Create(ctx, purchase)
	if err != nil {
		return 0, fmt.Errorf("s.repo.Create -> %w", err)
	}

	if err := s.queue.EnqueueFulfillment(created.ID); err != nil {
		if markErr := s.repo.MarkFailed(ctx, created.ID); markErr != nil {
			return 0, fmt.Errorf("s.repo.MarkFailed -> %w", markErr)
		}

		return 0, fmt.Errorf("s.queue.EnqueueFulfillment -> %w", err)
	}

	return created.ID, nil
}

// GetStatus returns the purchase status and, once completed, a page of its
// result lines.
func (s *PurchaseService) GetStatus(ctx context.Context, purchaseID, ownerID uint, page, pageSize int) (StatusPage, error) {
	purchase, err := s.ownedPurchase(ctx, purchaseID, ownerID)
	if err != nil {
		return StatusPage{}, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.settings().DefaultPageSize
	}

	status := StatusPage{
		Status:   purchase.Status,
		Results:  []domain.TicketLine{},
		Page:     page,
		PageSize: pageSize,
	}

	if purchase.Status != domain.PurchaseCompleted {
		return status, nil
	}

	result, err := s.results.FindByPurchaseID(ctx, purchase.ID)
	if err != nil {
		return StatusPage{}, fmt.Errorf("s.results.FindByPurchaseID -> %w", err)
	}

	sorted := sortWinnersFirst(result.Tickets)
	status.TotalResults = len(sorted)

	offset := (page - 1) * pageSize
	if offset < len(sorted) {
		end := offset + pageSize
		if end > len(sorted) {
			end = len(sorted)
		}
		status.Results = sorted[offset:end]
	}

	return status, nil
}

// ListTickets returns every result line of a completed purchase, winners
// first.
func (s *PurchaseService) ListTickets(ctx context.Context, purchaseID, ownerID uint) ([]domain.TicketLine, error) {
	purchase, err := s.ownedPurchase(ctx, purchaseID, ownerID)
	if err != nil {
		return nil, err
	}

	if purchase.Status != domain.PurchaseCompleted {
		return nil, ErrResultNotFound
	}

	result, err := s.results.FindByPurchaseID(ctx, purchase.ID)
	if err != nil {
		return nil, fmt.Errorf("s.results.FindByPurchaseID -> %w", err)
	}

	return sortWinnersFirst(result.Tickets), nil
}

// ListAllTicketsForOwner flattens every result line across the owner's
// completed purchases, winners first, then newest purchase first within each
// group.
func (s *PurchaseService) ListAllTicketsForOwner(ctx context.Context, ownerID uint) ([]domain.OwnedTicket, error) {
	purchases, err := s.repo.FindCompletedByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindCompletedByOwner -> %w", err)
	}
	if len(purchases) == 0 {
		return []domain.OwnedTicket{}, nil
	}

	byID := make(map[uint]domain.Purchase, len(purchases))
	ids := make([]uint, len(purchases))
	for i, p := range purchases {
		byID[p.ID] = p
		ids[i] = p.ID
	}

	results, err := s.results.FindByPurchaseIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.results.FindByPurchaseIDs -> %w", err)
	}

	owned := make([]domain.OwnedTicket, 0)
	for _, result := range results {
		purchase := byID[result.PurchaseID]
		for _, line := range result.Tickets {
			owned = append(owned, domain.OwnedTicket{
				Code:         line.Code,
				PrizeValue:   line.PrizeValue,
				IsWinner:     line.IsWinner,
				PurchaseDate: purchase.CreatedAt,
				PurchaseID:   purchase.ID,
			})
		}
	}

	sort.SliceStable(owned, func(i, j int) bool {
		if owned[i].IsWinner != owned[j].IsWinner {
			return owned[i].IsWinner
		}
		return owned[i].PurchaseDate.After(owned[j].PurchaseDate)
	})

	return owned, nil
}

// TotalWinningsForOwner sums the prize totals across the owner's completed
// purchases. An owner with no completed purchases has zero winnings.
func (s *PurchaseService) TotalWinningsForOwner(ctx context.Context, ownerID uint) (decimal.Decimal, error) {
	total, err := s.results.TotalWinningsByOwner(ctx, ownerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("s.results.TotalWinningsByOwner -> %w", err)
	}

	return total, nil
}

// LatestCompletedPurchase returns the id of the owner's most recent completed
// purchase.
func (s *PurchaseService) LatestCompletedPurchase(ctx context.Context, ownerID uint) (uint, error) {
	purchase, err := s.repo.FindLatestCompletedByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	return purchase.ID, nil
}

func (s *PurchaseService) ownedPurchase(ctx context.Context, purchaseID, ownerID uint) (domain.Purchase, error) {
	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		return domain.Purchase{}, err
	}

	if purchase.OwnerID != ownerID {
		return domain.Purchase{}, ErrNotOwner
	}

	return purchase, nil
}

// sortWinnersFirst orders winners ahead of losers, keeping the claim order
// within each group.
func sortWinnersFirst(lines []domain.TicketLine) []domain.TicketLine {
	sorted := make([]domain.TicketLine, len(lines))
	copy(sorted, lines)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].IsWinner && !sorted[j].IsWinner
	})

	return sorted
}
