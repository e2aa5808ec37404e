package seating

import (
	"context"
	"errors"
	"fmt"

	"github.com/danuartha/wedding-management-backend/internal/auditlog"
	"github.com/danuartha/wedding-management-backend/internal/notification"
	"github.com/danuartha/wedding-management-backend/internal/rbac"
)

var (
	ErrUnauthorized  = errors.New("not allowed")
	ErrGuestNotFound = errors.New("guest does not belong to this event")
)

// TableNotEmptyError blocks deletion while guests still sit at the table.
type TableNotEmptyError struct {
	TableID uint
	Guests  int
}

func (e *TableNotEmptyError) Error() string {
	return fmt.Sprintf("table %d still has %d assigned guests", e.TableID, e.Guests)
}

type Service interface {
	CreateTable(ctx context.Context, eventID uint, req CreateTableRequest, actorID uint, ip string) (*Table, error)
	UpdateTable(ctx context.Context, eventID, tableID uint, req UpdateTableRequest, actorID uint, ip string) (*TableSummary, error)
	DeleteTable(ctx context.Context, eventID, tableID uint, actorID uint, ip string) error
	ListTables(ctx context.Context, eventID uint, actorID uint) ([]TableSummary, error)

	// Assign moves a guest to a table (tableID 0 unassigns). Returns every
	// table of the event with occupancy so the caller can surface warnings.
	Assign(ctx context.Context, eventID, guestID, tableID uint, actorID uint, ip string) ([]TableSummary, error)
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
	allowed, err := s.rbacSvc.Can(ctx, actorID, eventID, rbac.ResourceSeating, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}
	return nil
}

func (s *service) CreateTable(ctx context.Context, eventID uint, req CreateTableRequest, actorID uint, ip string) (*Table, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionAdd); err != nil {
		return nil, err
	}

	shape := req.Shape
	if shape == "" {
		shape = ShapeRound
	}

	t := &Table{
		EventID:  eventID,
		Name:     req.Name,
		Shape:    shape,
		Capacity: req.Capacity,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "TABLE_CREATED", map[string]interface{}{
		"table_id":   t.ID,
		"table_name": t.Name,
		"capacity":   t.Capacity,
	}, ip, "success")

	return t, nil
}

func (s *service) UpdateTable(ctx context.Context, eventID, tableID uint, req UpdateTableRequest, actorID uint, ip string) (*TableSummary, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionEdit); err != nil {
		return nil, err
	}

	t, err := s.getEventTable(ctx, eventID, tableID)
	if err != nil {
		return nil, err
	}

	t.Name = req.Name
	t.Capacity = req.Capacity
	if req.Shape != "" {
		t.Shape = req.Shape
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "TABLE_UPDATED", map[string]interface{}{
		"table_id":   t.ID,
		"table_name": t.Name,
		"capacity":   t.Capacity,
	}, ip, "success")

	// Shrinking capacity below the seated headcount is allowed; the summary
	// flags it so staff can rebalance.
	pax, err := s.repo.PaxByGuestIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	summary := summarize(*t, pax)
	return &summary, nil
}

func (s *service) DeleteTable(ctx context.Context, eventID, tableID uint, actorID uint, ip string) error {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionDelete); err != nil {
		return err
	}

	t, err := s.getEventTable(ctx, eventID, tableID)
	if err != nil {
		return err
	}

	if n := len(t.AssignedGuestIDs); n > 0 {
		s.auditSvc.LogAction(ctx, &actorID, &eventID, "TABLE_DELETE_FAILED", map[string]interface{}{
			"table_id": tableID,
			"guests":   n,
			"reason":   "table not empty",
		}, ip, "failure")
		return &TableNotEmptyError{TableID: tableID, Guests: n}
	}

	if err := s.repo.Delete(ctx, tableID); err != nil {
		return err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "TABLE_DELETED", map[string]interface{}{
		"table_id":   tableID,
		"table_name": t.Name,
	}, ip, "success")

	return nil
}

func (s *service) ListTables(ctx context.Context, eventID uint, actorID uint) ([]TableSummary, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionView); err != nil {
		return nil, err
	}

	tables, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	pax, err := s.repo.PaxByGuestIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}

	summaries := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		summaries = append(summaries, summarize(t, pax))
	}
	return summaries, nil
}

func (s *service) Assign(ctx context.Context, eventID, guestID, tableID uint, actorID uint, ip string) ([]TableSummary, error) {
	if err := s.requirePermission(ctx, actorID, eventID, rbac.ActionEdit); err != nil {
		return nil, err
	}

	exists, err := s.repo.GuestExistsInEvent(ctx, eventID, guestID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrGuestNotFound
	}

	if tableID != 0 {
		if _, err := s.getEventTable(ctx, eventID, tableID); err != nil {
			return nil, err
		}
	}

	tables, err := s.repo.ReplaceAssignment(ctx, eventID, guestID, tableID)
	if err != nil {
		return nil, err
	}

	pax, err := s.repo.PaxByGuestIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}

	summaries := make([]TableSummary, 0, len(tables))
	overCapacity := false
	for _, t := range tables {
		sum := summarize(t, pax)
		if sum.OverCapacity {
			overCapacity = true
		}
		summaries = append(summaries, sum)
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "GUEST_SEATED", map[string]interface{}{
		"guest_id":      guestID,
		"table_id":      tableID,
		"over_capacity": overCapacity,
	}, ip, "success")

	s.publisher.Publish(ctx, notification.Fact{
		EventID: eventID,
		Kind:    "seating.assigned",
		ActorID: &actorID,
		Payload: map[string]interface{}{"guest_id": guestID, "table_id": tableID},
	})

	return summaries, nil
}

func summarize(t Table, pax map[uint]int) TableSummary {
	sum := TableSummary{Table: t}
	for _, id := range t.AssignedGuestIDs {
		sum.CurrentPax += pax[id]
	}
	if sum.CurrentPax > t.Capacity {
		sum.OverCapacity = true
		sum.OverBy = sum.CurrentPax - t.Capacity
	}
	return sum
}

func (s *service) getEventTable(ctx context.Context, eventID, tableID uint) (*Table, error) {
	t, err := s.repo.GetByID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if t.EventID != eventID {
		return nil, errors.New("table does not belong to this event")
	}
	return t, nil
}
