package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var (
	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrPurchaseAlreadyFinal = errors.New("purchase already in a terminal state")
)

type Purchase struct {
	ID uint `gorm:"primaryKey"`

	OwnerID    uint            `gorm:"not null;index"`
	Quantity   int             `gorm:"not null"`
	TotalSpent decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Status     string          `gorm:"not null;default:'processing';index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type PurchaseDAO struct {
	db *gorm.DB
}

func NewPurchaseDAO(db *gorm.DB) *PurchaseDAO {
	return &PurchaseDAO{
		db: db,
	}
}

func (d *PurchaseDAO) Insert(ctx context.Context, purchase Purchase) (Purchase, error) {
	result := d.db.WithContext(ctx).Create(&purchase)
	if result.Error != nil {
		return Purchase{}, result.Error
	}

	return purchase, nil
}

func (d *PurchaseDAO) FindByID(ctx context.Context, id uint) (Purchase, error) {
	var purchase Purchase

	result := d.db.WithContext(ctx).First(&purchase, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Purchase{}, ErrPurchaseNotFound
		}

		return Purchase{}, result.Error
	}

	return purchase, nil
}

// SetTerminalStatus moves a processing purchase to the given terminal status.
// The conditional update is what makes redelivered jobs harmless: once a
// purchase is terminal the update matches zero rows.
func (d *PurchaseDAO) SetTerminalStatus(ctx context.Context, id uint, status string) error {
	result := d.db.WithContext(ctx).Model(&Purchase{}).
		Where("id = ? AND status = ?", id, StatusProcessing).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPurchaseAlreadyFinal
	}

	return nil
}

func (d *PurchaseDAO) FindLatestCompletedByOwner(ctx context.Context, ownerID uint) (Purchase, error) {
	var purchase Purchase

	result := d.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, StatusCompleted).
		Order("created_at DESC").
		First(&purchase)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Purchase{}, ErrPurchaseNotFound
		}

		return Purchase{}, result.Error
	}

	return purchase, nil
}

func (d *PurchaseDAO) FindCompletedByOwner(ctx context.Context, ownerID uint) ([]Purchase, error) {
	var purchases []Purchase

	result := d.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, StatusCompleted).
		Order("created_at DESC").
		Find(&purchases)
	if result.Error != nil {
		return nil, result.Error
	}

	return purchases, nil
}
