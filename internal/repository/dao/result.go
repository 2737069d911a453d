package dao

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrResultNotFound = errors.New("draw result not found")

// TicketLine mirrors one claimed ticket inside the jsonb tickets column.
type TicketLine struct {
	Code       string          `json:"code"`
	PrizeValue decimal.Decimal `json:"prize_won"`
	IsWinner   bool            `json:"is_winner"`
}

// TicketLines stores the ordered claim sequence as a jsonb document.
type TicketLines []TicketLine

func (l TicketLines) Value() (driver.Value, error) {
	if l == nil {
		l = TicketLines{}
	}

	return json.Marshal(l)
}

func (l *TicketLines) Scan(src any) error {
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, l)
	case string:
		return json.Unmarshal([]byte(data), l)
	default:
		return fmt.Errorf("unsupported ticket lines column type %T", src)
	}
}

type DrawResult struct {
	ID uint `gorm:"primaryKey"`

	PurchaseID    uint            `gorm:"uniqueIndex;not null"`
	Tickets       TicketLines     `gorm:"type:jsonb;not null"`
	TotalPrizeWon decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (DrawResult) TableName() string {
	return "draw_results"
}

type ResultDAO struct {
	db *gorm.DB
}

func NewResultDAO(db *gorm.DB) *ResultDAO {
	return &ResultDAO{
		db: db,
	}
}

func (d *ResultDAO) FindByPurchaseID(ctx context.Context, purchaseID uint) (DrawResult, error) {
	var result DrawResult

	res := d.db.WithContext(ctx).Where("purchase_id = ?", purchaseID).First(&result)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return DrawResult{}, ErrResultNotFound
		}

		return DrawResult{}, res.Error
	}

	return result, nil
}

// TotalWinningsByOwner sums total_prize_won across the owner's completed
// purchases.
func (d *ResultDAO) TotalWinningsByOwner(ctx context.Context, ownerID uint) (decimal.Decimal, error) {
	var total decimal.Decimal

	res := d.db.WithContext(ctx).Model(&DrawResult{}).
		Joins("JOIN purchases ON purchases.id = draw_results.purchase_id").
		Where("purchases.owner_id = ? AND purchases.status = ?", ownerID, StatusCompleted).
		Select("COALESCE(SUM(draw_results.total_prize_won), 0)").
		Scan(&total)
	if res.Error != nil {
		return decimal.Zero, res.Error
	}

	return total, nil
}

func (d *ResultDAO) FindByPurchaseIDs(ctx context.Context, purchaseIDs []uint) ([]DrawResult, error) {
	if len(purchaseIDs) == 0 {
		return nil, nil
	}

	var results []DrawResult

	res := d.db.WithContext(ctx).Where("purchase_id IN ?", purchaseIDs).Find(&results)
	if res.Error != nil {
		return nil, res.Error
	}

	return results, nil
}
