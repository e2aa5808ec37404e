package guest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danuartha/wedding-management-backend/internal/auditlog"
	"github.com/danuartha/wedding-management-backend/internal/notification"
	"github.com/danuartha/wedding-management-backend/internal/rbac"
	"github.com/danuartha/wedding-management-backend/utils"
)

var (
	ErrUnauthorized = errors.New("not allowed")
	ErrInvalidPax   = errors.New("attended pax exceeds party size")
)

// IllegalTransitionError reports the attempted move so the UI can explain it.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: %s -> %s", e.From, e.To)
}

type Service interface {
	// Staff operations (RBAC-gated)
	Create(ctx context.Context, eventID uint, req CreateGuestRequest, actorID uint, ip string) (*Guest, error)
	Update(ctx context.Context, eventID, guestID uint, req UpdateGuestRequest, actorID uint, ip string) (*Guest, error)
	Delete(ctx context.Context, eventID, guestID uint, actorID uint, ip string) error
	List(ctx context.Context, filter GuestFilter, actorID uint) ([]Guest, int64, error)
	Get(ctx context.Context, eventID, guestID uint, actorID uint) (*Guest, error)
	ShareInvitation(ctx context.Context, eventID, guestID uint, actorID uint, ip string) (*Guest, error)
	CheckIn(ctx context.Context, eventID, guestID uint, attendedPax int, actorID uint, ip string) (*Guest, error)

	// Guest-facing operations, scoped by possession of the unique slug.
	ViewInvitation(ctx context.Context, slug string, ip string) (*Guest, error)
	SubmitRSVP(ctx context.Context, slug string, req RSVPRequest, ip string) (*Guest, error)
}

type service struct {
	repo      Repository
	rbacSvc   rbac.Service
	auditSvc  auditlog.Service
	publisher notification.Publisher
}

func NewService(repo Repository, rbacSvc rbac.Service, auditSvc auditlog.Service, publisher notification.Publisher) Service {
	return &service{
		repo:      repo,
		rbacSvc:   rbacSvc,
		auditSvc:  auditSvc,
		publisher: publisher,
	}
}

func (s *service) requirePermission(ctx context.Context, actorID, eventID uint, resource, action string) error {
	allowed, err := s.rbacSvc.Can(ctx, actorID, eventID, resource, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}
	return nil
}

func (s *service) Create(ctx context.Context, eventID uint, req CreateGuestRequest, actorID uint, ip string) (*Guest, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ResourceGuestList, rbac.ActionAdd); err != nil {
		return nil, err
	}

	g := &Guest{
		EventID:  eventID,
		Name:     req.Name,
		Slug:     utils.UniqueSlug(req.Name),
		Category: req.Category,
		PaxCount: req.PaxCount,
		Phone:    req.Phone,
		Status:   StatusDraft,
	}

	if err := s.repo.CreateWithQuota(ctx, g); err != nil {
		s.auditSvc.LogAction(ctx, &actorID, &eventID, "GUEST_CREATE_FAILED", map[string]interface{}{
			"guest_name": req.Name,
			"error":      err.Error(),
		}, ip, "failure")
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "GUEST_CREATED", map[string]interface{}{
		"guest_id":   g.ID,
		"guest_name": g.Name,
		"pax_count":  g.PaxCount,
	}, ip, "success")

	s.publisher.Publish(ctx, notification.Fact{
		EventID: eventID,
		Kind:    "guest.created",
		ActorID: &actorID,
		Payload: map[string]interface{}{"guest_id": g.ID},
	})

	return g, nil
}

func (s *service) Update(ctx context.Context, eventID, guestID uint, req UpdateGuestRequest, actorID uint, ip string) (*Guest, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ResourceGuestList, rbac.ActionEdit); err != nil {
		return nil, err
	}

	g, err := s.getEventGuest(ctx, eventID, guestID)
	if err != nil {
		return nil, err
	}

	// Shrinking the party below what already checked in would break the
	// attended_pax <= pax_count invariant.
	if g.AttendedPax > req.PaxCount {
		return nil, ErrInvalidPax
	}

	g.Name = req.Name
	g.Category = req.Category
	g.PaxCount = req.PaxCount
	g.Phone = req.Phone

	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "GUEST_UPDATED", map[string]interface{}{
		"guest_id":   g.ID,
		"guest_name": g.Name,
	}, ip, "success")

	return g, nil
}

func (s *service) Delete(ctx context.Context, eventID, guestID uint, actorID uint, ip string) error {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ResourceGuestList, rbac.ActionDelete); err != nil {
		return err
	}

	g, err := s.getEventGuest(ctx, eventID, guestID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, guestID); err != nil {
		return err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "GUEST_DELETED", map[string]interface{}{
		"guest_id":   guestID,
		"guest_name": g.Name,
	}, ip, "success")

	return nil
}

func (s *service) List(ctx context.Context, filter GuestFilter, actorID uint) ([]Guest, int64, error) {
	if err := s.requirePermission(ctx, actorID, filter.EventID, rbac.ResourceGuestList, rbac.ActionView); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByEvent(ctx, filter)
}

func (s *service) Get(ctx context.Context, eventID, guestID uint, actorID uint) (*Guest, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ResourceGuestList, rbac.ActionView); err != nil {
		return nil, err
	}
	return s.getEventGuest(ctx, eventID, guestID)
}

// ShareInvitation moves draft -> sent and records the share timestamp.
func (s *service) ShareInvitation(ctx context.Context, eventID, guestID uint, actorID uint, ip string) (*Guest, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ResourceGuestList, rbac.ActionEdit); err != nil {
		return nil, err
	}

	g, err := s.getEventGuest(ctx, eventID, guestID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(g.Status, StatusSent) {
		return nil, &IllegalTransitionError{From: g.Status, To: StatusSent}
	}

	moved, err := s.repo.MarkShared(ctx, guestID, time.Now())
	if err != nil {
		return nil, err
	}
	if !moved {
		// A concurrent caller shared first; re-read and report the move it made.
		g, err = s.repo.GetByID(ctx, guestID)
		if err != nil {
			return nil, err
		}
		return nil, &IllegalTransitionError{From: g.Status, To: StatusSent}
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "INVITATION_SHARED", map[string]interface{}{
		"guest_id": guestID,
	}, ip, "success")

	s.publisher.Publish(ctx, notification.Fact{
		EventID: eventID,
		Kind:    "guest.invited",
		ActorID: &actorID,
		Payload: map[string]interface{}{"guest_id": guestID},
	})

	return s.repo.GetByID(ctx, guestID)
}

// CheckIn moves confirmed -> attended with the actual headcount.
func (s *service) CheckIn(ctx context.Context, eventID, guestID uint, attendedPax int, actorID uint, ip string) (*Guest, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ResourceCheckIn, rbac.ActionScan); err != nil {
		return nil, err
	}

	g, err := s.getEventGuest(ctx, eventID, guestID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(g.Status, StatusAttended) {
		s.auditSvc.LogAction(ctx, &actorID, &eventID, "CHECKIN_FAILED", map[string]interface{}{
			"guest_id": guestID,
			"status":   g.Status,
			"reason":   "illegal transition",
		}, ip, "failure")
		return nil, &IllegalTransitionError{From: g.Status, To: StatusAttended}
	}

	if attendedPax < 1 || attendedPax > g.PaxCount {
		s.auditSvc.LogAction(ctx, &actorID, &eventID, "CHECKIN_FAILED", map[string]interface{}{
			"guest_id":     guestID,
			"attended_pax": attendedPax,
			"pax_count":    g.PaxCount,
			"reason":       "invalid pax count",
		}, ip, "failure")
		return nil, ErrInvalidPax
	}

	moved, err := s.repo.RecordCheckIn(ctx, guestID, attendedPax)
	if err != nil {
		return nil, err
	}
	if !moved {
		g, err = s.repo.GetByID(ctx, guestID)
		if err != nil {
			return nil, err
		}
		return nil, &IllegalTransitionError{From: g.Status, To: StatusAttended}
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "GUEST_CHECKED_IN", map[string]interface{}{
		"guest_id":     guestID,
		"attended_pax": attendedPax,
	}, ip, "success")

	s.publisher.Publish(ctx, notification.Fact{
		EventID: eventID,
		Kind:    "guest.attended",
		ActorID: &actorID,
		Payload: map[string]interface{}{"guest_id": guestID, "attended_pax": attendedPax},
	})

	return s.repo.GetByID(ctx, guestID)
}

// ViewInvitation records the first open of the invitation link. Re-opening
// never reverts state or errors; a guest who already answered just sees
// their confirmation screen again.
func (s *service) ViewInvitation(ctx context.Context, slug string, ip string) (*Guest, error) {
	g, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if g.Status == StatusSent {
		if _, err := s.repo.MarkViewed(ctx, g.ID); err != nil {
			return nil, err
		}
		g.Status = StatusViewed

		s.publisher.Publish(ctx, notification.Fact{
			EventID: g.EventID,
			Kind:    "guest.viewed",
			Payload: map[string]interface{}{"guest_id": g.ID},
		})
	}

	return g, nil
}

// SubmitRSVP records the guest's answer. Resubmitting the same answer is a
// no-op; switching a submitted answer is not offered.
func (s *service) SubmitRSVP(ctx context.Context, slug string, req RSVPRequest, ip string) (*Guest, error) {
	g, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	target := StatusConfirmed
	if req.Attending == "no" {
		target = StatusDeclined
	}

	// Idempotent for the same answer.
	if g.Status == target {
		return g, nil
	}

	if !CanTransition(g.Status, target) {
		return nil, &IllegalTransitionError{From: g.Status, To: target}
	}

	moved, err := s.repo.RecordRSVP(ctx, g.ID, target, req.Wishes)
	if err != nil {
		return nil, err
	}
	if !moved {
		g, err = s.repo.GetByID(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		if g.Status == target {
			return g, nil
		}
		return nil, &IllegalTransitionError{From: g.Status, To: target}
	}

	s.auditSvc.LogAction(ctx, nil, &g.EventID, "GUEST_RSVP", map[string]interface{}{
		"guest_id":  g.ID,
		"attending": req.Attending,
	}, ip, "success")

	s.publisher.Publish(ctx, notification.Fact{
		EventID: g.EventID,
		Kind:    "guest." + string(target),
		Payload: map[string]interface{}{"guest_id": g.ID},
	})

	return s.repo.GetByID(ctx, g.ID)
}

func (s *service) getEventGuest(ctx context.Context, eventID, guestID uint) (*Guest, error) {
	g, err := s.repo.GetByID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if g.EventID != eventID {
		return nil, errors.New("guest does not belong to this event")
	}
	return g, nil
}
