package subscription

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"gorm.io/gorm"

	"github.com/danuartha/wedding-management-backend/config"
	"github.com/danuartha/wedding-management-backend/internal/auditlog"
)

var ErrInvalidSignature = errors.New("payment signature verification failed")

// Plan upgrade prices in the smallest currency unit (paise).
var planPrices = map[string]int{
	PlanPro:        499900,
	PlanEnterprise: 1999900,
}

type UpgradeOrder struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Key      string  `json:"key"` // gateway key for the client-side SDK
}

type Service interface {
	GetSubscription(ctx context.Context, userID uint) (*Subscription, error)
	EnsureSubscription(ctx context.Context, userID uint) (*Subscription, error)

	// Upgrade flow; VerifyAndUpgrade is the sole writer of plan limits.
	StartUpgrade(ctx context.Context, userID uint, planType string) (*UpgradeOrder, error)
	VerifyAndUpgrade(ctx context.Context, userID uint, req VerifyPaymentRequest, ip string) error
}

type service struct {
	repo     Repository
	client   *razorpay.Client
	cfg      *config.Config
	auditSvc auditlog.Service
}

func NewService(repo Repository, cfg *config.Config, auditSvc auditlog.Service) Service {
	client := razorpay.NewClient(cfg.RazorpayKey, cfg.RazorpaySecret)
	return &service{
		repo:     repo,
		client:   client,
		cfg:      cfg,
		auditSvc: auditSvc,
	}
}

func (s *service) GetSubscription(ctx context.Context, userID uint) (*Subscription, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// EnsureSubscription returns the user's subscription, provisioning the
// free tier on first use.
func (s *service) EnsureSubscription(ctx context.Context, userID uint) (*Subscription, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.repo.CreateDefault(ctx, userID)
}

// StartUpgrade creates the gateway order and a pending payment record.
func (s *service) StartUpgrade(ctx context.Context, userID uint, planType string) (*UpgradeOrder, error) {
	amountInPaise, ok := planPrices[planType]
	if !ok {
		return nil, fmt.Errorf("plan %q is not purchasable", planType)
	}

	data := map[string]interface{}{
		"amount":          amountInPaise,
		"currency":        "INR",
		"payment_capture": 1,
		"notes": map[string]interface{}{
			"user_id":   userID,
			"plan_type": planType,
		},
	}

	order, err := s.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order creation failed: %w", err)
	}

	orderID, _ := order["id"].(string)
	payment := &PaymentRecord{
		UserID:   userID,
		PlanType: planType,
		OrderID:  orderID,
		Amount:   float64(amountInPaise) / 100,
		Status:   "pending",
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	return &UpgradeOrder{
		OrderID:  orderID,
		Amount:   payment.Amount,
		Currency: "INR",
		Key:      s.cfg.RazorpayKey,
	}, nil
}

// VerifyAndUpgrade checks the gateway signature and applies the paid plan.
func (s *service) VerifyAndUpgrade(ctx context.Context, userID uint, req VerifyPaymentRequest, ip string) error {
	payment, err := s.repo.GetPaymentByOrderID(ctx, req.OrderID)
	if err != nil {
		return fmt.Errorf("payment order not found: %w", err)
	}

	if payment.UserID != userID {
		s.auditSvc.LogAction(ctx, &userID, nil, "PLAN_UPGRADE_FAILED", map[string]interface{}{
			"order_id": req.OrderID,
			"reason":   "order belongs to another user",
		}, ip, "failure")
		return ErrInvalidSignature
	}

	if !s.verifySignature(req.OrderID, req.PaymentID, req.Signature) {
		payment.Status = "failed"
		_ = s.repo.UpdatePayment(ctx, payment)
		s.auditSvc.LogAction(ctx, &userID, nil, "PLAN_UPGRADE_FAILED", map[string]interface{}{
			"order_id": req.OrderID,
			"reason":   "invalid signature",
		}, ip, "failure")
		return ErrInvalidSignature
	}

	payment.PaymentID = req.PaymentID
	payment.Status = "paid"
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return err
	}

	if err := s.repo.ApplyPlan(ctx, userID, payment.PlanType); err != nil {
		return err
	}

	s.auditSvc.LogAction(ctx, &userID, nil, "PLAN_UPGRADED", map[string]interface{}{
		"order_id":  req.OrderID,
		"plan_type": payment.PlanType,
		"amount":    payment.Amount,
	}, ip, "success")

	return nil
}

func (s *service) verifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.cfg.RazorpaySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
