package repository

import (
	"context"
	"fmt"

	"github.com/scratchpool/ticket-api/internal/domain"
	"github.com/scratchpool/ticket-api/internal/repository/dao"
)

var (
	ErrTicketCodeExists    = dao.ErrTicketCodeExists
	ErrInsufficientTickets = dao.ErrInsufficientTickets
)

type TicketDAO interface {
	CountUnsold(ctx context.Context) (int64, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ExistingCodes(ctx context.Context) (map[string]struct{}, error)
	InsertRun(ctx context.Context, batches [][]dao.Ticket) error
	ClaimForPurchase(ctx context.Context, purchase dao.Purchase) (dao.DrawResult, error)
	DeleteSold(ctx context.Context) (int64, error)
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) CountUnsold(ctx context.Context) (int64, error) {
	return r.dao.CountUnsold(ctx)
}

func (r *TicketRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	return r.dao.CodeExists(ctx, code)
}

func (r *TicketRepository) ExistingCodes(ctx context.Context) (map[string]struct{}, error) {
	return r.dao.ExistingCodes(ctx)
}

func (r *TicketRepository) InsertRun(ctx context.Context, batches [][]domain.Ticket) error {
	daoBatches := make([][]dao.Ticket, len(batches))
	for i, batch := range batches {
		daoBatches[i] = ticketsDomainToDao(batch)
	}

	if err := r.dao.InsertRun(ctx, daoBatches); err != nil {
		return fmt.Errorf("r.dao.InsertRun -> %w", err)
	}

	return nil
}

func (r *TicketRepository) ClaimForPurchase(ctx context.Context, purchase domain.Purchase) (domain.DrawResult, error) {
	created, err := r.dao.ClaimForPurchase(ctx, purchaseDomainToDao(purchase))
	if err != nil {
		return domain.DrawResult{}, err
	}

	return resultDaoToDomain(created), nil
}

func (r *TicketRepository) DeleteSold(ctx context.Context) (int64, error) {
	return r.dao.DeleteSold(ctx)
}

func ticketsDomainToDao(tickets []domain.Ticket) []dao.Ticket {
	daoTickets := make([]dao.Ticket, len(tickets))
	for i, t := range tickets {
		daoTickets[i] = dao.Ticket{
			ID:         t.ID,
			Code:       t.Code,
			PrizeValue: t.PrizeValue,
			IsWinner:   t.IsWinner,
			IsSold:     t.IsSold,
		}
	}

	return daoTickets
}
