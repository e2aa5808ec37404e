package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/danuartha/wedding-management-backend/internal/auditlog"
	"github.com/danuartha/wedding-management-backend/internal/notification"
	"github.com/danuartha/wedding-management-backend/internal/rbac"
	"github.com/danuartha/wedding-management-backend/internal/subscription"
)

type fakeRepository struct {
	events map[uint]*Event
	// dependents per event, for the delete guard
	guestCount map[uint]int64
	tableCount map[uint]int64
	// souvenirs never block a delete; they cascade with the event
	souvenirCount map[uint]int64
	staffOf       map[uint][]uint // userID -> eventIDs
	sub           *subscription.Subscription
	nextID        uint
}

func newFakeRepository(sub *subscription.Subscription) *fakeRepository {
	return &fakeRepository{
		events:        make(map[uint]*Event),
		guestCount:    make(map[uint]int64),
		tableCount:    make(map[uint]int64),
		souvenirCount: make(map[uint]int64),
		staffOf:       make(map[uint][]uint),
		sub:           sub,
		nextID:        1,
	}
}

func (f *fakeRepository) CreateWithQuota(ctx context.Context, e *Event) error {
	if f.sub.EventsUsed >= f.sub.EventLimit {
		return &subscription.QuotaExceededError{
			Kind:  "event",
			Limit: f.sub.EventLimit,
			Used:  f.sub.EventsUsed,
		}
	}
	e.ID = f.nextID
	f.nextID++
	f.events[e.ID] = e
	f.sub.EventsUsed++
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uint) (*Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeRepository) GetBySlug(ctx context.Context, slug string) (*Event, error) {
	for _, e := range f.events {
		if e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByOwner(ctx context.Context, ownerID uint) ([]Event, error) {
	var out []Event
	for _, e := range f.events {
		if e.OwnerID == ownerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListByStaffUser(ctx context.Context, userID uint) ([]Event, error) {
	var out []Event
	for _, id := range f.staffOf[userID] {
		if e, ok := f.events[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRepository) Update(ctx context.Context, e *Event) error {
	if _, ok := f.events[e.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeRepository) DeleteIfEmpty(ctx context.Context, id uint) (int64, int64, error) {
	guests := f.guestCount[id]
	tables := f.tableCount[id]
	if guests > 0 || tables > 0 {
		return guests, tables, nil
	}
	delete(f.events, id)
	delete(f.souvenirCount, id)
	if f.sub.EventsUsed > 0 {
		f.sub.EventsUsed--
	}
	return 0, 0, nil
}

type fakeSubService struct {
	subscription.Service
	sub *subscription.Subscription
}

func (f *fakeSubService) EnsureSubscription(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	return f.sub, nil
}

type fakeRBAC struct {
	rbac.Service
	ownerRoles []uint // eventIDs an Owner role was created for
}

func (f *fakeRBAC) Can(ctx context.Context, userID, eventID uint, resource, action string) (bool, error) {
	return true, nil
}

func (f *fakeRBAC) CreateOwnerRole(ctx context.Context, eventID uint) error {
	f.ownerRoles = append(f.ownerRoles, eventID)
	return nil
}

// failingOwnerRoleRBAC simulates the role store being down at bootstrap time.
type failingOwnerRoleRBAC struct {
	rbac.Service
}

func (failingOwnerRoleRBAC) CreateOwnerRole(ctx context.Context, eventID uint) error {
	return errors.New("role store unavailable")
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

const testOwnerID = uint(1)

func newTestService(t *testing.T, limits subscription.PlanLimits) (Service, *fakeRepository, *fakeRBAC) {
	t.Helper()
	sub := &subscription.Subscription{
		UserID:     testOwnerID,
		PlanType:   subscription.PlanFree,
		EventLimit: limits.EventLimit,
		GuestLimit: limits.GuestLimit,
	}
	repo := newFakeRepository(sub)
	rbacSvc := &fakeRBAC{}
	svc := NewService(repo, &fakeSubService{sub: sub}, rbacSvc, nopAudit{}, notification.NopPublisher{})
	return svc, repo, rbacSvc
}

func TestCreateEventInstallsOwnerRole(t *testing.T) {
	svc, repo, rbacSvc := newTestService(t, subscription.LimitsFor(subscription.PlanFree))

	e, err := svc.Create(context.Background(), testOwnerID, CreateEventRequest{
		Name:      "Ayu & Made Wedding",
		EventDate: "2026-10-18",
		Location:  "Ubud",
	}, "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, testOwnerID, e.OwnerID)
	assert.Contains(t, e.Slug, "ayu-made-wedding-")
	assert.Equal(t, "wedding", e.EventType)
	assert.Equal(t, []uint{e.ID}, rbacSvc.ownerRoles)
	assert.Equal(t, 1, repo.sub.EventsUsed)
}

func TestCreateEventRoleBootstrapFailureRollsBack(t *testing.T) {
	limits := subscription.LimitsFor(subscription.PlanFree)
	sub := &subscription.Subscription{
		UserID:     testOwnerID,
		PlanType:   subscription.PlanFree,
		EventLimit: limits.EventLimit,
		GuestLimit: limits.GuestLimit,
	}
	repo := newFakeRepository(sub)
	ctx := context.Background()

	svc := NewService(repo, &fakeSubService{sub: sub}, failingOwnerRoleRBAC{}, nopAudit{}, notification.NopPublisher{})
	_, err := svc.Create(ctx, testOwnerID, CreateEventRequest{Name: "First", EventDate: "2026-10-18"}, "127.0.0.1")
	require.Error(t, err)

	assert.Empty(t, repo.events, "the event must not survive a failed role bootstrap")
	assert.Equal(t, 0, repo.sub.EventsUsed, "the plan slot is freed again")

	// Nothing lingers: the same slot works once the role store is back.
	svc = NewService(repo, &fakeSubService{sub: sub}, &fakeRBAC{}, nopAudit{}, notification.NopPublisher{})
	_, err = svc.Create(ctx, testOwnerID, CreateEventRequest{Name: "Retry", EventDate: "2026-10-18"}, "127.0.0.1")
	assert.NoError(t, err)
}

func TestCreateEventQuota(t *testing.T) {
	svc, _, _ := newTestService(t, subscription.LimitsFor(subscription.PlanFree)) // 1 event

	_, err := svc.Create(context.Background(), testOwnerID, CreateEventRequest{
		Name:      "First",
		EventDate: "2026-10-18",
	}, "127.0.0.1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), testOwnerID, CreateEventRequest{
		Name:      "Second",
		EventDate: "2026-11-02",
	}, "127.0.0.1")
	var qErr *subscription.QuotaExceededError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, "event", qErr.Kind)
	assert.Equal(t, 1, qErr.Limit)
}

func TestDeleteFreesPlanSlot(t *testing.T) {
	svc, _, _ := newTestService(t, subscription.LimitsFor(subscription.PlanFree))
	ctx := context.Background()

	e, err := svc.Create(ctx, testOwnerID, CreateEventRequest{Name: "First", EventDate: "2026-10-18"}, "127.0.0.1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, e.ID, testOwnerID, "127.0.0.1"))

	// The slot is free again.
	_, err = svc.Create(ctx, testOwnerID, CreateEventRequest{Name: "Second", EventDate: "2026-11-02"}, "127.0.0.1")
	assert.NoError(t, err)
}

func TestDeleteRefusedWhileNotEmpty(t *testing.T) {
	svc, repo, _ := newTestService(t, subscription.LimitsFor(subscription.PlanFree))
	ctx := context.Background()

	e, err := svc.Create(ctx, testOwnerID, CreateEventRequest{Name: "First", EventDate: "2026-10-18"}, "127.0.0.1")
	require.NoError(t, err)

	repo.guestCount[e.ID] = 12
	repo.tableCount[e.ID] = 3

	err = svc.Delete(ctx, e.ID, testOwnerID, "127.0.0.1")
	var neErr *EventNotEmptyError
	require.ErrorAs(t, err, &neErr)
	assert.Equal(t, int64(12), neErr.Guests)
	assert.Equal(t, int64(3), neErr.Tables)

	_, err = repo.GetByID(ctx, e.ID)
	assert.NoError(t, err, "refused delete must leave the event intact")
}

func TestDeleteCascadesSouvenirs(t *testing.T) {
	svc, repo, _ := newTestService(t, subscription.LimitsFor(subscription.PlanFree))
	ctx := context.Background()

	e, err := svc.Create(ctx, testOwnerID, CreateEventRequest{Name: "First", EventDate: "2026-10-18"}, "127.0.0.1")
	require.NoError(t, err)

	// Souvenirs are not delete guards; they go with the event.
	repo.souvenirCount[e.ID] = 2
	require.NoError(t, svc.Delete(ctx, e.ID, testOwnerID, "127.0.0.1"))
	assert.NotContains(t, repo.souvenirCount, e.ID)
}

func TestDeleteIsOwnerOnly(t *testing.T) {
	svc, _, _ := newTestService(t, subscription.LimitsFor(subscription.PlanFree))
	ctx := context.Background()

	e, err := svc.Create(ctx, testOwnerID, CreateEventRequest{Name: "First", EventDate: "2026-10-18"}, "127.0.0.1")
	require.NoError(t, err)

	// Even a fully-permissioned staff member cannot delete.
	err = svc.Delete(ctx, e.ID, 99, "127.0.0.1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestListForUserMergesOwnedAndStaffed(t *testing.T) {
	svc, repo, _ := newTestService(t, subscription.LimitsFor(subscription.PlanEnterprise))
	ctx := context.Background()

	owned, err := svc.Create(ctx, testOwnerID, CreateEventRequest{Name: "Mine", EventDate: "2026-10-18"}, "127.0.0.1")
	require.NoError(t, err)

	other := &Event{ID: 500, OwnerID: 2, Name: "Theirs"}
	repo.events[other.ID] = other
	repo.staffOf[testOwnerID] = []uint{other.ID, owned.ID} // staffed on own event too

	events, err := svc.ListForUser(ctx, testOwnerID)
	require.NoError(t, err)
	require.Len(t, events, 2, "owned + staffed, deduplicated")
}
