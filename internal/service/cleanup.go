package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CleanupRepository removes sold tickets from the pool.
type CleanupRepository interface {
	DeleteSold(ctx context.Context) (int64, error)
}

type CleanupService struct {
	repo CleanupRepository
}

func NewCleanupService(repo CleanupRepository) *CleanupService {
	return &CleanupService{
		repo: repo,
	}
}

// CleanupSold deletes tickets that have been sold. A sold ticket always has
// its draw result committed alongside it, so nothing unreported is removed.
func (s *CleanupService) CleanupSold(ctx context.Context) error {
	deleted, err := s.repo.DeleteSold(ctx)
	if err != nil {
		return fmt.Errorf("s.repo.DeleteSold -> %w", err)
	}

	zap.L().Info("sold tickets deleted", zap.Int64("deleted_count", deleted))

	return nil
}
