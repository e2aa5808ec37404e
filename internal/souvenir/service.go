package souvenir

import (
	"context"
	"errors"

	"github.com/danuartha/wedding-management-backend/internal/auditlog"
	"github.com/danuartha/wedding-management-backend/internal/notification"
	"github.com/danuartha/wedding-management-backend/internal/rbac"
)

var ErrUnauthorized = errors.New("not allowed")

type Service interface {
	Create(ctx context.Context, eventID uint, req CreateSouvenirRequest, actorID uint, ip string) (*Souvenir, error)
	Update(ctx context.Context, eventID, souvenirID uint, req UpdateSouvenirRequest, actorID uint, ip string) (*Souvenir, error)
	Delete(ctx context.Context, eventID, souvenirID uint, actorID uint, ip string) error
	List(ctx context.Context, eventID uint, actorID uint) ([]Souvenir, error)

	// Redeem hands the souvenir to a checked-in guest. Quantity equals the
	// guest's attended headcount; a guest redeems at most once.
	Redeem(ctx context.Context, eventID, souvenirID, guestID uint, actorID uint, ip string) (*RedemptionResult, error)
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

func (s *service) requirePermission(ctx context.Context, actorID, eventID uint, action string) error {
	allowed, err := s.rbacSvc.Can(ctx, actorID, eventID, rbac.ResourceSouvenir, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}
	return nil
}

func (s *service) Create(ctx context.Context, eventID uint, req CreateSouvenirRequest, actorID uint, ip string) (*Souvenir, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionAdd); err != nil {
		return nil, err
	}

	item := &Souvenir{
		EventID:              eventID,
		Name:                 req.Name,
		Description:          req.Description,
		Stock:                req.Stock,
		CategoryRestrictions: req.CategoryRestrictions,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "SOUVENIR_CREATED", map[string]interface{}{
		"souvenir_id":   item.ID,
		"souvenir_name": item.Name,
		"stock":         item.Stock,
	}, ip, "success")

	return item, nil
}

func (s *service) Update(ctx context.Context, eventID, souvenirID uint, req UpdateSouvenirRequest, actorID uint, ip string) (*Souvenir, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionEdit); err != nil {
		return nil, err
	}

	item, err := s.getEventSouvenir(ctx, eventID, souvenirID)
	if err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.Description = req.Description
	item.Stock = req.Stock
	item.CategoryRestrictions = req.CategoryRestrictions

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "SOUVENIR_UPDATED", map[string]interface{}{
		"souvenir_id":   item.ID,
		"souvenir_name": item.Name,
		"stock":         item.Stock,
	}, ip, "success")

	return item, nil
}

func (s *service) Delete(ctx context.Context, eventID, souvenirID uint, actorID uint, ip string) error {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionDelete); err != nil {
		return err
	}

	item, err := s.getEventSouvenir(ctx, eventID, souvenirID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, souvenirID); err != nil {
		return err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "SOUVENIR_DELETED", map[string]interface{}{
		"souvenir_id":   souvenirID,
		"souvenir_name": item.Name,
	}, ip, "success")

	return nil
}

func (s *service) List(ctx context.Context, eventID uint, actorID uint) ([]Souvenir, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, eventID)
}

func (s *service) Redeem(ctx context.Context, eventID, souvenirID, guestID uint, actorID uint, ip string) (*RedemptionResult, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionScan); err != nil {
		return nil, err
	}

	result, err := s.repo.Redeem(ctx, eventID, guestID, souvenirID)
	if err != nil {
		s.auditSvc.LogAction(ctx, &actorID, &eventID, "SOUVENIR_REDEEM_FAILED", map[string]interface{}{
			"souvenir_id": souvenirID,
			"guest_id":    guestID,
			"error":       err.Error(),
		}, ip, "failure")
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "SOUVENIR_REDEEMED", map[string]interface{}{
		"souvenir_id":     souvenirID,
		"guest_id":        guestID,
		"quantity":        result.Quantity,
		"remaining_stock": result.RemainingStock,
	}, ip, "success")

	s.publisher.Publish(ctx, notification.Fact{
		EventID: eventID,
		Kind:    "souvenir.redeemed",
		ActorID: &actorID,
		Payload: map[string]interface{}{
			"souvenir_id":     souvenirID,
			"guest_id":        guestID,
			"quantity":        result.Quantity,
			"remaining_stock": result.RemainingStock,
		},
	})

	return result, nil
}

func (s *service) getEventSouvenir(ctx context.Context, eventID, souvenirID uint) (*Souvenir, error) {
	item, err := s.repo.GetByID(ctx, souvenirID)
	if err != nil {
		return nil, err
	}
	if item.EventID != eventID {
		return nil, errors.New("souvenir does not belong to this event")
	}
	return item, nil
}
