package guest

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danuartha/wedding-management-backend/internal/subscription"
)

type Repository interface {
	// CreateWithQuota re-validates the owner's guest limit inside the
	// creating transaction, serialized on the event row.
	CreateWithQuota(ctx context.Context, g *Guest) error

	GetByID(ctx context.Context, id uint) (*Guest, error)
	GetBySlug(ctx context.Context, slug string) (*Guest, error)
	ListByEvent(ctx context.Context, filter GuestFilter) ([]Guest, int64, error)
	CountByEvent(ctx context.Context, eventID uint) (int64, error)
	Update(ctx context.Context, g *Guest) error
	Delete(ctx context.Context, id uint) error

	// Conditional lifecycle updates. Each returns false when the guard
	// no longer matched, meaning a concurrent caller moved first.
	MarkShared(ctx context.Context, id uint, at time.Time) (bool, error)
	MarkViewed(ctx context.Context, id uint) (bool, error)
	RecordRSVP(ctx context.Context, id uint, to Status, wishes string) (bool, error)
	RecordCheckIn(ctx context.Context, id uint, attendedPax int) (bool, error)
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// CreateWithQuota locks the event row (serializing guest creation for the
// event), reads the owner's guest limit, re-counts and inserts in one
// transaction. Two concurrent adds cannot jointly exceed the limit.
func (r *repository) CreateWithQuota(ctx context.Context, g *Guest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ownerID uint
		err := tx.Table("events").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("owner_id").
			Where("id = ?", g.EventID).
			Scan(&ownerID).Error
		if err != nil {
			return err
		}
		if ownerID == 0 {
			return gorm.ErrRecordNotFound
		}

		var sub subscription.Subscription
		if err := tx.Where("user_id = ?", ownerID).First(&sub).Error; err != nil {
			return err
		}

		var current int64
		if err := tx.Model(&Guest{}).Where("event_id = ?", g.EventID).Count(&current).Error; err != nil {
			return err
		}

		if int(current) >= sub.GuestLimit {
			return &subscription.QuotaExceededError{
				Kind:  "guest",
				Limit: sub.GuestLimit,
				Used:  int(current),
			}
		}

		return tx.Create(g).Error
	})
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Guest, error) {
	var g Guest
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Guest, error) {
	var g Guest
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) ListByEvent(ctx context.Context, filter GuestFilter) ([]Guest, int64, error) {
	var guests []Guest
	var total int64

	query := r.db.WithContext(ctx).Model(&Guest{}).Where("event_id = ?", filter.EventID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	err := query.
		Order("name ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&guests).Error
	if err != nil {
		return nil, 0, err
	}

	return guests, total, nil
}

func (r *repository) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Guest{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}

func (r *repository) Update(ctx context.Context, g *Guest) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&Guest{}, id).Error
}

func (r *repository) MarkShared(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Guest{}).
		Where("id = ? AND status = ?", id, StatusDraft).
		Updates(map[string]interface{}{
			"status":    StatusSent,
			"shared_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MarkViewed(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Guest{}).
		Where("id = ? AND status = ?", id, StatusSent).
		Update("status", StatusViewed)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) RecordRSVP(ctx context.Context, id uint, to Status, wishes string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Guest{}).
		Where("id = ? AND status = ?", id, StatusViewed).
		Updates(map[string]interface{}{
			"status": to,
			"wishes": wishes,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) RecordCheckIn(ctx context.Context, id uint, attendedPax int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Guest{}).
		Where("id = ? AND status = ?", id, StatusConfirmed).
		Updates(map[string]interface{}{
			"status":       StatusAttended,
			"attended_pax": attendedPax,
		})
	return res.RowsAffected > 0, res.Error
}
