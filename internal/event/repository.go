package event

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danuartha/wedding-management-backend/internal/subscription"
)

type Repository interface {
	// CreateWithQuota re-validates the event quota and consumes a slot
	// inside the creating transaction.
	CreateWithQuota(ctx context.Context, e *Event) error

	GetByID(ctx context.Context, id uint) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]Event, error)
	ListByStaffUser(ctx context.Context, userID uint) ([]Event, error)
	Update(ctx context.Context, e *Event) error

	// DeleteIfEmpty refuses while the event still owns guests or tables.
	DeleteIfEmpty(ctx context.Context, id uint) (guests int64, tables int64, err error)
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// CreateWithQuota locks the owner's subscription row, re-checks the event
// limit against the authoritative counter, then inserts the event and
// increments events_used, all in one transaction. Two concurrent creates
// cannot both pass the check.
func (r *repository) CreateWithQuota(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subscription.Subscription
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", e.OwnerID).
			First(&sub).Error
		if err != nil {
			return err
		}

		if sub.EventsUsed >= sub.EventLimit {
			return &subscription.QuotaExceededError{
				Kind:  "event",
				Limit: sub.EventLimit,
				Used:  sub.EventsUsed,
			}
		}

		if err := tx.Create(e).Error; err != nil {
			return err
		}

		return tx.Model(&subscription.Subscription{}).
			Where("user_id = ?", e.OwnerID).
			Update("events_used", gorm.Expr("events_used + 1")).Error
	})
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Event, error) {
	var e Event
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Event, error) {
	var e Event
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uint) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("event_date ASC").
		Find(&events).Error
	return events, err
}

func (r *repository) ListByStaffUser(ctx context.Context, userID uint) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Joins("JOIN staff_assignments sa ON sa.event_id = events.id").
		Where("sa.user_id = ?", userID).
		Order("events.event_date ASC").
		Find(&events).Error
	return events, err
}

func (r *repository) Update(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// DeleteIfEmpty counts dependents inside the deleting transaction and only
// removes the event when both counts are zero. Roles, staff assignments and
// souvenirs go with it; guests and tables block it.
func (r *repository) DeleteIfEmpty(ctx context.Context, id uint) (int64, int64, error) {
	var guests, tables int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("guests").Where("event_id = ?", id).Count(&guests).Error; err != nil {
			return err
		}
		if err := tx.Table("tables").Where("event_id = ?", id).Count(&tables).Error; err != nil {
			return err
		}
		if guests > 0 || tables > 0 {
			return nil // caller turns the counts into EventNotEmptyError
		}

		if err := tx.Exec("DELETE FROM role_permissions WHERE role_id IN (SELECT id FROM roles WHERE event_id = ?)", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM staff_assignments WHERE event_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM roles WHERE event_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM souvenirs WHERE event_id = ?", id).Error; err != nil {
			return err
		}

		var e Event
		if err := tx.First(&e, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Event{}, id).Error; err != nil {
			return err
		}

		// Free the plan slot the event consumed.
		return tx.Model(&subscription.Subscription{}).
			Where("user_id = ? AND events_used > 0", e.OwnerID).
			Update("events_used", gorm.Expr("events_used - 1")).Error
	})

	return guests, tables, err
}
