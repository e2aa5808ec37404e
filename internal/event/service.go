package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danuartha/wedding-management-backend/internal/auditlog"
	"github.com/danuartha/wedding-management-backend/internal/notification"
	"github.com/danuartha/wedding-management-backend/internal/rbac"
	"github.com/danuartha/wedding-management-backend/internal/subscription"
	"github.com/danuartha/wedding-management-backend/utils"
)

var ErrUnauthorized = errors.New("not allowed")

// EventNotEmptyError reports why the delete was refused.
type EventNotEmptyError struct {
	Guests int64
	Tables int64
}

func (e *EventNotEmptyError) Error() string {
	return fmt.Sprintf("event still owns %d guest(s) and %d table(s)", e.Guests, e.Tables)
}

type Service interface {
	Create(ctx context.Context, ownerID uint, req CreateEventRequest, ip string) (*Event, error)
	GetByID(ctx context.Context, eventID uint, actorID uint) (*Event, error)
	ListForUser(ctx context.Context, userID uint) ([]Event, error)
	Update(ctx context.Context, eventID uint, req UpdateEventRequest, actorID uint, ip string) (*Event, error)
	Delete(ctx context.Context, eventID uint, actorID uint, ip string) error
}

type service struct {
	repo      Repository
	subSvc    subscription.Service
	rbacSvc   rbac.Service
	auditSvc  auditlog.Service
	publisher notification.Publisher
}

func NewService(repo Repository, subSvc subscription.Service, rbacSvc rbac.Service, auditSvc auditlog.Service, publisher notification.Publisher) Service {
	return &service{
		repo:      repo,
		subSvc:    subSvc,
		rbacSvc:   rbacSvc,
		auditSvc:  auditSvc,
		publisher: publisher,
	}
}

func (s *service) Create(ctx context.Context, ownerID uint, req CreateEventRequest, ip string) (*Event, error) {
	sub, err := s.subSvc.EnsureSubscription(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Advisory pre-check; CreateWithQuota re-validates under lock.
	if !subscription.CanCreateEvent(sub) {
		qErr := &subscription.QuotaExceededError{
			Kind:  "event",
			Limit: sub.EventLimit,
			Used:  sub.EventsUsed,
		}
		s.auditSvc.LogAction(ctx, &ownerID, nil, "EVENT_CREATE_FAILED", map[string]interface{}{
			"reason": qErr.Error(),
			"plan":   sub.PlanType,
		}, ip, "failure")
		return nil, qErr
	}

	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return nil, fmt.Errorf("invalid event_date: %w", err)
	}

	eventType := req.EventType
	if eventType == "" {
		eventType = "wedding"
	}

	e := &Event{
		OwnerID:   ownerID,
		Name:      req.Name,
		Slug:      utils.UniqueSlug(req.Name),
		EventDate: eventDate,
		Location:  req.Location,
		EventType: eventType,
	}

	if err := s.repo.CreateWithQuota(ctx, e); err != nil {
		var qErr *subscription.QuotaExceededError
		if errors.As(err, &qErr) {
			s.auditSvc.LogAction(ctx, &ownerID, nil, "EVENT_CREATE_FAILED", map[string]interface{}{
				"reason": qErr.Error(),
			}, ip, "failure")
		}
		return nil, err
	}

	// The Owner system role rides along with every event. If the
	// bootstrap fails, the fresh event must not survive it: the row
	// would be unusable and its plan slot unrecoverable. The event has
	// no dependents yet, so DeleteIfEmpty removes it and frees the slot.
	if err := s.rbacSvc.CreateOwnerRole(ctx, e.ID); err != nil {
		if _, _, dErr := s.repo.DeleteIfEmpty(ctx, e.ID); dErr != nil {
			s.auditSvc.LogAction(ctx, &ownerID, &e.ID, "EVENT_CREATE_FAILED", map[string]interface{}{
				"reason": "owner role bootstrap failed and rollback failed: " + dErr.Error(),
			}, ip, "failure")
			return nil, err
		}
		s.auditSvc.LogAction(ctx, &ownerID, nil, "EVENT_CREATE_FAILED", map[string]interface{}{
			"reason": "owner role bootstrap failed: " + err.Error(),
		}, ip, "failure")
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &ownerID, &e.ID, "EVENT_CREATED", map[string]interface{}{
		"event_name": e.Name,
		"slug":       e.Slug,
		"event_type": e.EventType,
	}, ip, "success")

	s.publisher.Publish(ctx, notification.Fact{
		EventID: e.ID,
		Kind:    "event.created",
		ActorID: &ownerID,
	})

	return e, nil
}

func (s *service) GetByID(ctx context.Context, eventID uint, actorID uint) (*Event, error) {
	allowed, err := s.rbacSvc.Can(ctx, actorID, eventID, rbac.ResourceEventSettings, rbac.ActionView)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrUnauthorized
	}
	return s.repo.GetByID(ctx, eventID)
}

// ListForUser returns owned events plus events the user staffs.
func (s *service) ListForUser(ctx context.Context, userID uint) ([]Event, error) {
	owned, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	staffed, err := s.repo.ListByStaffUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(owned))
	for _, e := range owned {
		seen[e.ID] = true
	}
	for _, e := range staffed {
		if !seen[e.ID] {
			owned = append(owned, e)
		}
	}
	return owned, nil
}

func (s *service) Update(ctx context.Context, eventID uint, req UpdateEventRequest, actorID uint, ip string) (*Event, error) {
	allowed, err := s.rbacSvc.Can(ctx, actorID, eventID, rbac.ResourceEventSettings, rbac.ActionEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrUnauthorized
	}

	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return nil, fmt.Errorf("invalid event_date: %w", err)
	}

	e.Name = req.Name
	e.EventDate = eventDate
	e.Location = req.Location
	if req.EventType != "" {
		e.EventType = req.EventType
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "EVENT_UPDATED", map[string]interface{}{
		"event_name": e.Name,
	}, ip, "success")

	s.publisher.Publish(ctx, notification.Fact{
		EventID: eventID,
		Kind:    "event.updated",
		ActorID: &actorID,
	})

	return e, nil
}

// Delete is owner-only and refuses while guests or tables remain.
func (s *service) Delete(ctx context.Context, eventID uint, actorID uint, ip string) error {
	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if e.OwnerID != actorID {
		return ErrUnauthorized
	}

	guests, tables, err := s.repo.DeleteIfEmpty(ctx, eventID)
	if err != nil {
		return err
	}
	if guests > 0 || tables > 0 {
		neErr := &EventNotEmptyError{Guests: guests, Tables: tables}
		s.auditSvc.LogAction(ctx, &actorID, &eventID, "EVENT_DELETE_FAILED", map[string]interface{}{
			"reason": neErr.Error(),
		}, ip, "failure")
		return neErr
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "EVENT_DELETED", map[string]interface{}{
		"event_name": e.Name,
	}, ip, "success")

	return nil
}
