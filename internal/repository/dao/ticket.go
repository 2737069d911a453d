package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTicketCodeExists    = errors.New("ticket code already exists")
	ErrInsufficientTickets = errors.New("not enough unsold tickets")
)

type Ticket struct {
	ID uint `gorm:"primaryKey"`

	Code       string          `gorm:"uniqueIndex;not null"`
	PrizeValue decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	IsWinner   bool            `gorm:"not null;default:false"`
	IsSold     bool            `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

func (d *TicketDAO) CountUnsold(ctx context.Context) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Ticket{}).Where("is_sold = ?", false).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *TicketDAO) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Ticket{}).Where("code = ?", code).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// ExistingCodes loads every live ticket code into a set. The set seeds the
// replenisher's working set; the unique index on code stays the source of
// truth for codes inserted by concurrent runs.
func (d *TicketDAO) ExistingCodes(ctx context.Context) (map[string]struct{}, error) {
	var codes []string

	result := d.db.WithContext(ctx).Model(&Ticket{}).Pluck("code", &codes)
	if result.Error != nil {
		return nil, result.Error
	}

	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}

	return set, nil
}

// InsertRun inserts all batches of one replenishment run in a single
// transaction, so a failed run leaves the inventory untouched. A duplicate
// code raised by the unique index maps to ErrTicketCodeExists.
func (d *TicketDAO) InsertRun(ctx context.Context, batches [][]Ticket) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range batches {
			if len(batches[i]) == 0 {
				continue
			}

			if err := tx.Create(&batches[i]).Error; err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
					return ErrTicketCodeExists
				}

				return err
			}
		}

		return nil
	})
}

// ClaimForPurchase atomically claims purchase.Quantity unsold tickets for the
// given purchase. In one transaction it locks a uniformly random subset of
// unsold rows, marks them sold, writes the draw result and completes the
// purchase. SKIP LOCKED keeps concurrent claims from blocking on each other;
// the affected-row check catches any row another transaction got to first.
//
// On ErrInsufficientTickets or ErrPurchaseAlreadyFinal everything is rolled
// back and no ticket changes hands.
func (d *TicketDAO) ClaimForPurchase(ctx context.Context, purchase Purchase) (DrawResult, error) {
	var created DrawResult

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tickets []Ticket
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("is_sold = ?", false).
			Order("RANDOM()").
			Limit(purchase.Quantity).
			Find(&tickets).Error; err != nil {
			return err
		}

		if len(tickets) < purchase.Quantity {
			return ErrInsufficientTickets
		}

		ids := make([]uint, len(tickets))
		lines := make(TicketLines, len(tickets))
		total := decimal.Zero
		for i, t := range tickets {
			ids[i] = t.ID
			lines[i] = TicketLine{
				Code:       t.Code,
				PrizeValue: t.PrizeValue,
				IsWinner:   t.IsWinner,
			}
			total = total.Add(t.PrizeValue)
		}

		marked := tx.Model(&Ticket{}).
			Where("id IN ? AND is_sold = ?", ids, false).
			Update("is_sold", true)
		if marked.Error != nil {
			return marked.Error
		}
		if marked.RowsAffected != int64(len(ids)) {
			return ErrInsufficientTickets
		}

		created = DrawResult{
			PurchaseID:    purchase.ID,
			Tickets:       lines,
			TotalPrizeWon: total,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		completed := tx.Model(&Purchase{}).
			Where("id = ? AND status = ?", purchase.ID, StatusProcessing).
			Update("status", StatusCompleted)
		if completed.Error != nil {
			return completed.Error
		}
		if completed.RowsAffected == 0 {
			return ErrPurchaseAlreadyFinal
		}

		return nil
	})
	if err != nil {
		return DrawResult{}, err
	}

	return created, nil
}

// DeleteSold removes sold tickets. Sold rows only ever commit together with
// the draw result that captured them, so every deleted ticket has already
// been reported.
func (d *TicketDAO) DeleteSold(ctx context.Context) (int64, error) {
	result := d.db.WithContext(ctx).Where("is_sold = ?", true).Delete(&Ticket{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
