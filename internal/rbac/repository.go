package rbac

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Catalog
	ListPermissions(ctx context.Context) ([]Permission, error)
	CountPermissionsByIDs(ctx context.Context, ids []uint) (int64, error)

	// Roles
	CreateRole(ctx context.Context, role *Role) error
	GetRoleByID(ctx context.Context, roleID uint) (*Role, error)
	GetRoleWithPermissions(ctx context.Context, roleID uint) (*Role, error)
	ListRolesByEvent(ctx context.Context, eventID uint) ([]Role, error)
	CountRolesByName(ctx context.Context, eventID uint, name string) (int64, error)
	UpdateRole(ctx context.Context, role *Role) error
	DeleteRoleCascade(ctx context.Context, roleID uint) error
	ReplacePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error

	// Staff assignments
	CreateAssignment(ctx context.Context, a *StaffAssignment) error
	GetAssignment(ctx context.Context, eventID, userID uint) (*StaffAssignment, error)
	ListAssignmentsByEvent(ctx context.Context, eventID uint) ([]StaffAssignment, error)
	CountAssignmentsByRole(ctx context.Context, roleID uint) (int64, error)
	DeleteAssignment(ctx context.Context, eventID, userID uint) error

	// Cross-table reads for the evaluator
	GetEventOwnerID(ctx context.Context, eventID uint) (uint, error)
	HasPermission(ctx context.Context, roleID uint, resource, action string) (bool, error)
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	var perms []Permission
	err := r.db.WithContext(ctx).Order("resource, action").Find(&perms).Error
	return perms, err
}

func (r *repository) CountPermissionsByIDs(ctx context.Context, ids []uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Permission{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *repository) CreateRole(ctx context.Context, role *Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *repository) GetRoleByID(ctx context.Context, roleID uint) (*Role, error) {
	var role Role
	err := r.db.WithContext(ctx).First(&role, roleID).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *repository) GetRoleWithPermissions(ctx context.Context, roleID uint) (*Role, error) {
	var role Role
	err := r.db.WithContext(ctx).Preload("Permissions").First(&role, roleID).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *repository) ListRolesByEvent(ctx context.Context, eventID uint) ([]Role, error) {
	var roles []Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("event_id = ?", eventID).
		Order("is_system DESC, name ASC").
		Find(&roles).Error
	return roles, err
}

func (r *repository) CountRolesByName(ctx context.Context, eventID uint, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Role{}).
		Where("event_id = ? AND name = ?", eventID, name).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateRole(ctx context.Context, role *Role) error {
	return r.db.WithContext(ctx).Model(&Role{}).
		Where("id = ?", role.ID).
		Updates(map[string]interface{}{
			"name":        role.Name,
			"description": role.Description,
		}).Error
}

// DeleteRoleCascade removes the role and its permission rows in one
// transaction. Assignment checks happen in the service before this call.
func (r *repository) DeleteRoleCascade(ctx context.Context, roleID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", roleID).Error; err != nil {
			return err
		}
		return tx.Delete(&Role{}, roleID).Error
	})
}

// ReplacePermissions swaps the role's permission set wholesale. The delete
// and insert share a transaction so a failure leaves the old set intact and
// a reader never observes a half-replaced set.
func (r *repository) ReplacePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", roleID).Error; err != nil {
			return err
		}
		for _, pid := range permissionIDs {
			if err := tx.Exec(
				"INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)",
				roleID, pid,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) CreateAssignment(ctx context.Context, a *StaffAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) GetAssignment(ctx context.Context, eventID, userID uint) (*StaffAssignment, error) {
	var a StaffAssignment
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListAssignmentsByEvent(ctx context.Context, eventID uint) ([]StaffAssignment, error) {
	var assignments []StaffAssignment
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("event_id = ?", eventID).
		Find(&assignments).Error
	return assignments, err
}

func (r *repository) CountAssignmentsByRole(ctx context.Context, roleID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&StaffAssignment{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}

func (r *repository) DeleteAssignment(ctx context.Context, eventID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&StaffAssignment{}).Error
}

func (r *repository) GetEventOwnerID(ctx context.Context, eventID uint) (uint, error) {
	var ownerID uint
	err := r.db.WithContext(ctx).
		Table("events").
		Select("owner_id").
		Where("id = ?", eventID).
		Scan(&ownerID).Error
	if err != nil {
		return 0, err
	}
	if ownerID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return ownerID, nil
}

// HasPermission answers set membership with a single join, reading the
// current role_permissions state on every call.
func (r *repository) HasPermission(ctx context.Context, roleID uint, resource, action string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("role_permissions rp").
		Joins("JOIN permissions p ON p.id = rp.permission_id").
		Where("rp.role_id = ? AND p.resource = ? AND p.action = ?", roleID, resource, action).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
