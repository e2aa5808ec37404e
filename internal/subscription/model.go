package subscription

import (
	"time"
)

// Plan types
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// PlanLimits is the canonical limits table. The free guest cap is 100,
// matching the user-facing plan page.
type PlanLimits struct {
	EventLimit int
	GuestLimit int
}

var planLimits = map[string]PlanLimits{
	PlanFree:       {EventLimit: 1, GuestLimit: 100},
	PlanPro:        {EventLimit: 3, GuestLimit: 500},
	PlanEnterprise: {EventLimit: 9999, GuestLimit: 9999},
}

// LimitsFor returns the limits for a plan type, defaulting to free.
func LimitsFor(planType string) PlanLimits {
	if l, ok := planLimits[planType]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// Subscription holds a user's plan and usage counters. Plan fields are
// written only by the payment-confirmation flow; every other component
// treats this row as read-only.
type Subscription struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanType   string    `gorm:"size:20;not null;default:free" json:"plan_type"`
	EventLimit int       `gorm:"not null" json:"event_limit"`
	GuestLimit int       `gorm:"not null" json:"guest_limit"`
	EventsUsed int       `gorm:"not null;default:0" json:"events_used"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// PaymentRecord tracks a plan upgrade order through the gateway.
type PaymentRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	PlanType   string    `gorm:"size:20;not null" json:"plan_type"`
	OrderID    string    `gorm:"size:100;not null;uniqueIndex" json:"order_id"`
	PaymentID  string    `gorm:"size:100" json:"payment_id"`
	Amount     float64   `gorm:"not null" json:"amount"`
	Status     string    `gorm:"size:20;not null;default:pending" json:"status"` // pending/paid/failed
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentRecord) TableName() string {
	return "subscription_payments"
}

type UpgradeRequest struct {
	PlanType string `json:"plan_type" binding:"required"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}
