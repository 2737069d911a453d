package repository

import (
	"context"
	"fmt"

	"github.com/scratchpool/ticket-api/internal/domain"
	"github.com/scratchpool/ticket-api/internal/repository/dao"
)

var (
	ErrPurchaseNotFound     = dao.ErrPurchaseNotFound
	ErrPurchaseAlreadyFinal = dao.ErrPurchaseAlreadyFinal
)

type PurchaseDAO interface {
	Insert(ctx context.Context, purchase dao.Purchase) (dao.Purchase, error)
	FindByID(ctx context.Context, id uint) (dao.Purchase, error)
	SetTerminalStatus(ctx context.Context, id uint, status string) error
	FindLatestCompletedByOwner(ctx context.Context, ownerID uint) (dao.Purchase, error)
	FindCompletedByOwner(ctx context.Context, ownerID uint) ([]dao.Purchase, error)
}

type PurchaseRepository struct {
	dao PurchaseDAO
}

func NewPurchaseRepository(dao PurchaseDAO) *PurchaseRepository {
	return &PurchaseRepository{
		dao: dao,
	}
}

func (r *PurchaseRepository) Create(ctx context.Context, purchase domain.Purchase) (domain.Purchase, error) {
	created, err := r.dao.Insert(ctx, purchaseDomainToDao(purchase))
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return purchaseDaoToDomain(created), nil
}

func (r *PurchaseRepository) FindByID(ctx context.Context, id uint) (domain.Purchase, error) {
	purchase, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Purchase{}, err
	}

	return purchaseDaoToDomain(purchase), nil
}

func (r *PurchaseRepository) MarkFailed(ctx context.Context, id uint) error {
	return r.dao.SetTerminalStatus(ctx, id, dao.StatusFailed)
}

func (r *PurchaseRepository) FindLatestCompletedByOwner(ctx context.Context, ownerID uint) (domain.Purchase, error) {
	purchase, err := r.dao.FindLatestCompletedByOwner(ctx, ownerID)
	if err != nil {
		return domain.Purchase{}, err
	}

	return purchaseDaoToDomain(purchase), nil
}

func (r *PurchaseRepository) FindCompletedByOwner(ctx context.Context, ownerID uint) ([]domain.Purchase, error) {
	purchases, err := r.dao.FindCompletedByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindCompletedByOwner -> %w", err)
	}

	domainPurchases := make([]domain.Purchase, len(purchases))
	for i, p := range purchases {
		domainPurchases[i] = purchaseDaoToDomain(p)
	}

	return domainPurchases, nil
}

func purchaseDomainToDao(p domain.Purchase) dao.Purchase {
	return dao.Purchase{
		ID:         p.ID,
		OwnerID:    p.OwnerID,
		Quantity:   p.Quantity,
		TotalSpent: p.TotalSpent,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func purchaseDaoToDomain(p dao.Purchase) domain.Purchase {
	return domain.Purchase{
		ID:         p.ID,
		OwnerID:    p.OwnerID,
		Quantity:   p.Quantity,
		TotalSpent: p.TotalSpent,
		Status:     domain.PurchaseStatus(p.Status),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
