package subscription

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/danuartha/wedding-management-backend/config"
	"github.com/danuartha/wedding-management-backend/internal/auditlog"
)

func TestLimitsFor(t *testing.T) {
	free := LimitsFor(PlanFree)
	assert.Equal(t, 1, free.EventLimit)
	assert.Equal(t, 100, free.GuestLimit)

	pro := LimitsFor(PlanPro)
	assert.Equal(t, 3, pro.EventLimit)
	assert.Equal(t, 500, pro.GuestLimit)

	// Unknown plans fall back to free.
	assert.Equal(t, free, LimitsFor("platinum"))
}

func TestCanCreateEvent(t *testing.T) {
	sub := &Subscription{EventLimit: 1, EventsUsed: 0}
	assert.True(t, CanCreateEvent(sub))

	sub.EventsUsed = 1
	assert.False(t, CanCreateEvent(sub))
}

func TestCanAddGuest(t *testing.T) {
	sub := &Subscription{GuestLimit: 100}
	assert.True(t, CanAddGuest(sub, 99))
	assert.False(t, CanAddGuest(sub, 100))
	assert.False(t, CanAddGuest(sub, 150))
}

func TestQuotaExceededErrorMessage(t *testing.T) {
	err := &QuotaExceededError{Kind: "guest", Limit: 100, Used: 100}
	assert.Equal(t, "guest quota exceeded: 100 of 100 used", err.Error())
}

type fakeRepository struct {
	subs     map[uint]*Subscription
	payments map[string]*PaymentRecord
}

func newFakeRepo() *fakeRepository {
	return &fakeRepository{
		subs:     make(map[uint]*Subscription),
		payments: make(map[string]*PaymentRecord),
	}
}

func (f *fakeRepository) GetByUserID(ctx context.Context, userID uint) (*Subscription, error) {
	sub, ok := f.subs[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (f *fakeRepository) CreateDefault(ctx context.Context, userID uint) (*Subscription, error) {
	limits := LimitsFor(PlanFree)
	sub := &Subscription{
		UserID:     userID,
		PlanType:   PlanFree,
		EventLimit: limits.EventLimit,
		GuestLimit: limits.GuestLimit,
	}
	f.subs[userID] = sub
	return sub, nil
}

func (f *fakeRepository) ApplyPlan(ctx context.Context, userID uint, planType string) error {
	sub, ok := f.subs[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	limits := LimitsFor(planType)
	sub.PlanType = planType
	sub.EventLimit = limits.EventLimit
	sub.GuestLimit = limits.GuestLimit
	return nil
}

func (f *fakeRepository) CreatePayment(ctx context.Context, p *PaymentRecord) error {
	f.payments[p.OrderID] = p
	return nil
}

func (f *fakeRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*PaymentRecord, error) {
	p, ok := f.payments[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepository) UpdatePayment(ctx context.Context, p *PaymentRecord) error {
	f.payments[p.OrderID] = p
	return nil
}

type nopAudit struct{}

func (nopAudit) LogAction(ctx context.Context, userID *uint, eventID *uint, action string, details map[string]interface{}, ip string, status string) error {
	return nil
}
func (nopAudit) GetAuditLogs(ctx context.Context, filter auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return nil, nil
}
func (nopAudit) GetAuditLogByID(ctx context.Context, id uint) (*auditlog.AuditLog, error) {
	return nil, nil
}

const gatewaySecret = "test-secret"

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(gatewaySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaidOrder(repo *fakeRepository, userID uint, planType string) *PaymentRecord {
	p := &PaymentRecord{
		UserID:   userID,
		PlanType: planType,
		OrderID:  "order_123",
		Amount:   4999,
		Status:   "pending",
	}
	repo.payments[p.OrderID] = p
	return p
}

func TestEnsureSubscriptionProvisionsFreeTier(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &config.Config{RazorpaySecret: gatewaySecret}, nopAudit{})

	sub, err := svc.EnsureSubscription(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, PlanFree, sub.PlanType)
	assert.Equal(t, 1, sub.EventLimit)
	assert.Equal(t, 100, sub.GuestLimit)

	// Second call returns the same row, no duplicate provisioning.
	again, err := svc.EnsureSubscription(context.Background(), 42)
	require.NoError(t, err)
	assert.Same(t, sub, again)
}

func TestVerifyAndUpgradeAppliesPlan(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &config.Config{RazorpaySecret: gatewaySecret}, nopAudit{})
	ctx := context.Background()

	_, err := svc.EnsureSubscription(ctx, 42)
	require.NoError(t, err)
	order := newPaidOrder(repo, 42, PlanPro)

	err = svc.VerifyAndUpgrade(ctx, 42, VerifyPaymentRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_abc",
		Signature: sign(order.OrderID, "pay_abc"),
	}, "127.0.0.1")
	require.NoError(t, err)

	sub := repo.subs[42]
	assert.Equal(t, PlanPro, sub.PlanType)
	assert.Equal(t, 3, sub.EventLimit)
	assert.Equal(t, 500, sub.GuestLimit)
	assert.Equal(t, "paid", repo.payments[order.OrderID].Status)
}

func TestVerifyAndUpgradeRejectsBadSignature(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &config.Config{RazorpaySecret: gatewaySecret}, nopAudit{})
	ctx := context.Background()

	_, err := svc.EnsureSubscription(ctx, 42)
	require.NoError(t, err)
	order := newPaidOrder(repo, 42, PlanPro)

	err = svc.VerifyAndUpgrade(ctx, 42, VerifyPaymentRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_abc",
		Signature: "forged",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Plan unchanged, payment marked failed.
	assert.Equal(t, PlanFree, repo.subs[42].PlanType)
	assert.Equal(t, "failed", repo.payments[order.OrderID].Status)
}

func TestVerifyAndUpgradeRejectsForeignOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &config.Config{RazorpaySecret: gatewaySecret}, nopAudit{})
	ctx := context.Background()

	_, err := svc.EnsureSubscription(ctx, 42)
	require.NoError(t, err)
	order := newPaidOrder(repo, 7, PlanPro) // belongs to user 7

	err = svc.VerifyAndUpgrade(ctx, 42, VerifyPaymentRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_abc",
		Signature: sign(order.OrderID, "pay_abc"),
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, PlanFree, repo.subs[42].PlanType)
}
