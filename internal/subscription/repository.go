package subscription

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID uint) (*Subscription, error)
	CreateDefault(ctx context.Context, userID uint) (*Subscription, error)
	ApplyPlan(ctx context.Context, userID uint, planType string) error

	CreatePayment(ctx context.Context, p *PaymentRecord) error
	GetPaymentByOrderID(ctx context.Context, orderID string) (*PaymentRecord, error)
	UpdatePayment(ctx context.Context, p *PaymentRecord) error
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) GetByUserID(ctx context.Context, userID uint) (*Subscription, error) {
	var sub Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateDefault provisions the free-tier row for a new user.
func (r *repository) CreateDefault(ctx context.Context, userID uint) (*Subscription, error) {
	limits := LimitsFor(PlanFree)
	sub := &Subscription{
		UserID:     userID,
		PlanType:   PlanFree,
		EventLimit: limits.EventLimit,
		GuestLimit: limits.GuestLimit,
	}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// ApplyPlan installs a new plan and its limits. Only the payment
// verification flow calls this.
func (r *repository) ApplyPlan(ctx context.Context, userID uint, planType string) error {
	limits := LimitsFor(planType)
	return r.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"plan_type":   planType,
			"event_limit": limits.EventLimit,
			"guest_limit": limits.GuestLimit,
		}).Error
}

func (r *repository) CreatePayment(ctx context.Context, p *PaymentRecord) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) GetPaymentByOrderID(ctx context.Context, orderID string) (*PaymentRecord, error) {
	var p PaymentRecord
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdatePayment(ctx context.Context, p *PaymentRecord) error {
	return r.db.WithContext(ctx).Save(p).Error
}
