package souvenir

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danuartha/wedding-management-backend/internal/guest"
)

var (
	ErrAlreadyRedeemed    = errors.New("guest has already redeemed a souvenir")
	ErrNotCheckedIn       = errors.New("guest has not checked in")
	ErrCategoryRestricted = errors.New("souvenir is not available for this guest category")
)

// InsufficientStockError carries the remaining stock so the till operator can
// see how far short the item is.
type InsufficientStockError struct {
	SouvenirID uint
	Requested  int
	Stock      int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("souvenir %d has %d in stock, %d requested", e.SouvenirID, e.Stock, e.Requested)
}

type Repository interface {
	Create(ctx context.Context, s *Souvenir) error
	GetByID(ctx context.Context, id uint) (*Souvenir, error)
	ListByEvent(ctx context.Context, eventID uint) ([]Souvenir, error)
	Update(ctx context.Context, s *Souvenir) error
	Delete(ctx context.Context, id uint) error

	// Redeem decrements stock and marks the guest delivered in one
	// transaction. Quantity is the guest's checked-in headcount.
	Redeem(ctx context.Context, eventID, guestID, souvenirID uint) (*RedemptionResult, error)
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, s *Souvenir) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Souvenir, error) {
	var s Souvenir
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uint) ([]Souvenir, error) {
	var items []Souvenir
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) Update(ctx context.Context, s *Souvenir) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&Souvenir{}, id).Error
}

// Redeem runs the whole redemption as one transaction:
//
//  1. lock the guest row and check eligibility,
//  2. conditional stock decrement (UPDATE ... WHERE stock >= qty),
//  3. conditional guest claim (UPDATE ... WHERE status = 'attended').
//
// Either both writes land or neither does. Two tills racing for the last
// unit resolve at step 2: one decrements, the other sees zero rows affected.
func (r *repository) Redeem(ctx context.Context, eventID, guestID, souvenirID uint) (*RedemptionResult, error) {
	var result RedemptionResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g guest.Guest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND event_id = ?", guestID, eventID).
			First(&g).Error
		if err != nil {
			return err
		}

		if g.SouvenirID != nil {
			return ErrAlreadyRedeemed
		}
		if g.Status != guest.StatusAttended {
			return ErrNotCheckedIn
		}

		var item Souvenir
		if err := tx.Where("id = ? AND event_id = ?", souvenirID, eventID).First(&item).Error; err != nil {
			return err
		}

		if len(item.CategoryRestrictions) > 0 {
			allowed := false
			for _, cat := range item.CategoryRestrictions {
				if cat == g.Category {
					allowed = true
					break
				}
			}
			if !allowed {
				return ErrCategoryRestricted
			}
		}

		qty := g.AttendedPax

		res := tx.Model(&Souvenir{}).
			Where("id = ? AND stock >= ?", souvenirID, qty).
			Update("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &InsufficientStockError{SouvenirID: souvenirID, Requested: qty, Stock: item.Stock}
		}

		now := time.Now()
		res = tx.Model(&guest.Guest{}).
			Where("id = ? AND status = ?", guestID, guest.StatusAttended).
			Updates(map[string]interface{}{
				"status":                guest.StatusSouvenirDelivered,
				"souvenir_id":           souvenirID,
				"souvenir_redeemed_qty": qty,
				"souvenir_redeemed_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyRedeemed
		}

		var remaining int
		if err := tx.Model(&Souvenir{}).Select("stock").Where("id = ?", souvenirID).Scan(&remaining).Error; err != nil {
			return err
		}

		result = RedemptionResult{
			GuestID:        guestID,
			SouvenirID:     souvenirID,
			Quantity:       qty,
			RemainingStock: remaining,
			RedeemedAt:     now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
