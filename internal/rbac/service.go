package rbac

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/danuartha/wedding-management-backend/internal/auditlog"
)

var (
	ErrUnauthorized        = errors.New("not allowed")
	ErrSystemRoleImmutable = errors.New("system role cannot be modified")
	ErrRoleInUse           = errors.New("role is held by staff and cannot be deleted")
	ErrAlreadyStaff        = errors.New("user already holds a role on this event")
	ErrUnknownPermission   = errors.New("unknown permission id")
)

type Service interface {
	// Authorization evaluator. A false verdict with a nil error is a
	// business denial; a non-nil error is an infrastructure failure.
	Can(ctx context.Context, userID, eventID uint, resource, action string) (bool, error)

	// Role store
	CreateRole(ctx context.Context, eventID uint, req CreateRoleRequest, actorID uint, ip string) (*Role, error)
	UpdateRole(ctx context.Context, eventID, roleID uint, req UpdateRoleRequest, actorID uint, ip string) (*Role, error)
	DeleteRole(ctx context.Context, eventID, roleID uint, actorID uint, ip string) error
	SetPermissions(ctx context.Context, eventID, roleID uint, permissionIDs []uint, actorID uint, ip string) (*Role, error)
	ListRoles(ctx context.Context, eventID uint, actorID uint) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)

	// Staff
	InviteStaff(ctx context.Context, eventID uint, email string, roleID uint, actorID uint, ip string) (*StaffAssignment, error)
	RemoveStaff(ctx context.Context, eventID, userID uint, actorID uint, ip string) error
	ListStaff(ctx context.Context, eventID uint, actorID uint) ([]StaffAssignment, error)

	// Bootstrap hook for event creation.
	CreateOwnerRole(ctx context.Context, eventID uint) error
}

// UserLookup is the slice of the auth collaborator the staff invite needs.
type UserLookup interface {
	FindUserIDByEmail(ctx context.Context, email string) (uint, error)
}

type service struct {
	repo     Repository
	users    UserLookup
	auditSvc auditlog.Service
}

func NewService(repo Repository, users UserLookup, auditSvc auditlog.Service) Service {
	return &service{repo: repo, users: users, auditSvc: auditSvc}
}

// Can evaluates (user, event, resource, action). Owner bypass is the single
// first-checked rule; everything after it fails closed.
func (s *service) Can(ctx context.Context, userID, eventID uint, resource, action string) (bool, error) {
	ownerID, err := s.repo.GetEventOwnerID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil // unknown event: deny, not an error
		}
		return false, err
	}

	if userID == ownerID {
		return true, nil
	}

	assignment, err := s.repo.GetAssignment(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	// Recomputed from current role_permissions state on every call; a role
	// edit is visible to the very next decision.
	allowed, err := s.repo.HasPermission(ctx, assignment.RoleID, resource, action)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return allowed, nil
}

func (s *service) requirePermission(ctx context.Context, actorID, eventID uint, resource, action string) error {
	allowed, err := s.Can(ctx, actorID, eventID, resource, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}
	return nil
}

func (s *service) CreateRole(ctx context.Context, eventID uint, req CreateRoleRequest, actorID uint, ip string) (*Role, error) {
	if err := s.requirePermission(ctx, actorID, eventID, ResourceRoles, ActionAdd); err != nil {
		return nil, err
	}

	// Duplicate names within an event are allowed but discouraged.
	if n, err := s.repo.CountRolesByName(ctx, eventID, req.Name); err == nil && n > 0 {
		log.Printf("event %d already has a role named %q", eventID, req.Name)
	}

	role := &Role{
		EventID:     eventID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "ROLE_CREATED", map[string]interface{}{
		"role_id":   role.ID,
		"role_name": role.Name,
	}, ip, "success")

	return role, nil
}

func (s *service) UpdateRole(ctx context.Context, eventID, roleID uint, req UpdateRoleRequest, actorID uint, ip string) (*Role, error) {
	if err := s.requirePermission(ctx, actorID, eventID, ResourceRoles, ActionEdit); err != nil {
		return nil, err
	}

	role, err := s.getEventRole(ctx, eventID, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		s.auditSvc.LogAction(ctx, &actorID, &eventID, "ROLE_UPDATE_FAILED", map[string]interface{}{
			"role_id": roleID,
			"reason":  "system role is immutable",
		}, ip, "failure")
		return nil, ErrSystemRoleImmutable
	}

	role.Name = req.Name
	role.Description = req.Description
	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "ROLE_UPDATED", map[string]interface{}{
		"role_id":   role.ID,
		"role_name": role.Name,
	}, ip, "success")

	return s.repo.GetRoleWithPermissions(ctx, roleID)
}

func (s *service) DeleteRole(ctx context.Context, eventID, roleID uint, actorID uint, ip string) error {
	if err := s.requirePermission(ctx, actorID, eventID, ResourceRoles, ActionDelete); err != nil {
		return err
	}

	role, err := s.getEventRole(ctx, eventID, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRoleImmutable
	}

	held, err := s.repo.CountAssignmentsByRole(ctx, roleID)
	if err != nil {
		return err
	}
	if held > 0 {
		s.auditSvc.LogAction(ctx, &actorID, &eventID, "ROLE_DELETE_FAILED", map[string]interface{}{
			"role_id":   roleID,
			"role_name": role.Name,
			"held_by":   held,
			"reason":    "role in use",
		}, ip, "failure")
		return ErrRoleInUse
	}

	if err := s.repo.DeleteRoleCascade(ctx, roleID); err != nil {
		return err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "ROLE_DELETED", map[string]interface{}{
		"role_id":   roleID,
		"role_name": role.Name,
	}, ip, "success")

	return nil
}

// SetPermissions replaces the role's permission set wholesale. There is no
// incremental add/remove; a failed replace leaves the old set installed.
func (s *service) SetPermissions(ctx context.Context, eventID, roleID uint, permissionIDs []uint, actorID uint, ip string) (*Role, error) {
	if err := s.requirePermission(ctx, actorID, eventID, ResourceRoles, ActionEdit); err != nil {
		return nil, err
	}

	role, err := s.getEventRole(ctx, eventID, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		s.auditSvc.LogAction(ctx, &actorID, &eventID, "ROLE_PERMISSIONS_FAILED", map[string]interface{}{
			"role_id": roleID,
			"reason":  "system role is immutable",
		}, ip, "failure")
		return nil, ErrSystemRoleImmutable
	}

	if len(permissionIDs) > 0 {
		known, err := s.repo.CountPermissionsByIDs(ctx, permissionIDs)
		if err != nil {
			return nil, err
		}
		if known != int64(len(permissionIDs)) {
			return nil, ErrUnknownPermission
		}
	}

	if err := s.repo.ReplacePermissions(ctx, roleID, permissionIDs); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "ROLE_PERMISSIONS_SET", map[string]interface{}{
		"role_id":          roleID,
		"role_name":        role.Name,
		"permission_count": len(permissionIDs),
	}, ip, "success")

	return s.repo.GetRoleWithPermissions(ctx, roleID)
}

func (s *service) ListRoles(ctx context.Context, eventID uint, actorID uint) ([]Role, error) {
	if err := s.requirePermission(ctx, actorID, eventID, ResourceRoles, ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListRolesByEvent(ctx, eventID)
}

func (s *service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

func (s *service) InviteStaff(ctx context.Context, eventID uint, email string, roleID uint, actorID uint, ip string) (*StaffAssignment, error) {
	if err := s.requirePermission(ctx, actorID, eventID, ResourceStaff, ActionAdd); err != nil {
		return nil, err
	}

	role, err := s.getEventRole(ctx, eventID, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		// Ownership never transfers; nobody is invited as Owner.
		return nil, ErrSystemRoleImmutable
	}

	userID, err := s.users.FindUserIDByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetAssignment(ctx, eventID, userID); err == nil {
		return nil, ErrAlreadyStaff
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	assignment := &StaffAssignment{
		EventID: eventID,
		UserID:  userID,
		RoleID:  roleID,
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "STAFF_INVITED", map[string]interface{}{
		"staff_user_id": userID,
		"role_id":       roleID,
		"role_name":     role.Name,
	}, ip, "success")

	return assignment, nil
}

func (s *service) RemoveStaff(ctx context.Context, eventID, userID uint, actorID uint, ip string) error {
	if err := s.requirePermission(ctx, actorID, eventID, ResourceStaff, ActionDelete); err != nil {
		return err
	}

	if _, err := s.repo.GetAssignment(ctx, eventID, userID); err != nil {
		return err
	}

	if err := s.repo.DeleteAssignment(ctx, eventID, userID); err != nil {
		return err
	}

	s.auditSvc.LogAction(ctx, &actorID, &eventID, "STAFF_REMOVED", map[string]interface{}{
		"staff_user_id": userID,
	}, ip, "success")

	return nil
}

func (s *service) ListStaff(ctx context.Context, eventID uint, actorID uint) ([]StaffAssignment, error) {
	if err := s.requirePermission(ctx, actorID, eventID, ResourceStaff, ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListAssignmentsByEvent(ctx, eventID)
}

// CreateOwnerRole installs the immutable system role for a new event. The
// owner's allow-all comes from the evaluator bypass, not from this row; the
// row exists so the role list always shows who can do everything.
func (s *service) CreateOwnerRole(ctx context.Context, eventID uint) error {
	role := &Role{
		EventID:     eventID,
		Name:        OwnerRoleName,
		Description: "Event owner. Holds every permission.",
		IsSystem:    true,
	}
	return s.repo.CreateRole(ctx, role)
}

func (s *service) getEventRole(ctx context.Context, eventID, roleID uint) (*Role, error) {
	role, err := s.repo.GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.EventID != eventID {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}
