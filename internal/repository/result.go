package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/scratchpool/ticket-api/internal/domain"
	"github.com/scratchpool/ticket-api/internal/repository/dao"
)

var ErrResultNotFound = dao.ErrResultNotFound

type ResultDAO interface {
	FindByPurchaseID(ctx context.Context, purchaseID uint) (dao.DrawResult, error)
	FindByPurchaseIDs(ctx context.Context, purchaseIDs []uint) ([]dao.DrawResult, error)
	TotalWinningsByOwner(ctx context.Context, ownerID uint) (decimal.Decimal, error)
}

type ResultRepository struct {
	dao ResultDAO
}

func NewResultRepository(dao ResultDAO) *ResultRepository {
	return &ResultRepository{
		dao: dao,
	}
}

func (r *ResultRepository) FindByPurchaseID(ctx context.Context, purchaseID uint) (domain.DrawResult, error) {
	result, err := r.dao.FindByPurchaseID(ctx, purchaseID)
	if err != nil {
		return domain.DrawResult{}, err
	}

	return resultDaoToDomain(result), nil
}

func (r *ResultRepository) FindByPurchaseIDs(ctx context.Context, purchaseIDs []uint) ([]domain.DrawResult, error) {
	results, err := r.dao.FindByPurchaseIDs(ctx, purchaseIDs)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByPurchaseIDs -> %w", err)
	}

	domainResults := make([]domain.DrawResult, len(results))
	for i, res := range results {
		domainResults[i] = resultDaoToDomain(res)
	}

	return domainResults, nil
}

func (r *ResultRepository) TotalWinningsByOwner(ctx context.Context, ownerID uint) (decimal.Decimal, error) {
	total, err := r.dao.TotalWinningsByOwner(ctx, ownerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("r.dao.TotalWinningsByOwner -> %w", err)
	}

	return total, nil
}

func resultDaoToDomain(r dao.DrawResult) domain.DrawResult {
	lines := make([]domain.TicketLine, len(r.Tickets))
	for i, line := range r.Tickets {
		lines[i] = domain.TicketLine{
			Code:       line.Code,
			PrizeValue: line.PrizeValue,
			IsWinner:   line.IsWinner,
		}
	}

	return domain.DrawResult{
		ID:            r.ID,
		PurchaseID:    r.PurchaseID,
		Tickets:       lines,
		TotalPrizeWon: r.TotalPrizeWon,
		CreatedAt:     r.CreatedAt,
	}
}
