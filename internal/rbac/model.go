package rbac

import (
	"time"
)

// Resource names in the permission catalog
const (
	ResourceGuestList     = "guest_list"
	ResourceSeating       = "seating"
	ResourceSouvenir      = "souvenir"
	ResourceRoles         = "roles"
	ResourceStaff         = "staff"
	ResourceEventSettings = "event_settings"
	ResourceCheckIn       = "check_in"
)

// Action names in the permission catalog
const (
	ActionView   = "view"
	ActionAdd    = "add"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionScan   = "scan"
	ActionManual = "manual"
)

// OwnerRoleName is the single system role created with every event.
const OwnerRoleName = "Owner"

// Permission is an immutable global catalog entry: a (resource, action) pair.
type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Resource string `gorm:"size:50;not null;uniqueIndex:idx_resource_action" json:"resource"`
	Action   string `gorm:"size:50;not null;uniqueIndex:idx_resource_action" json:"action"`
}

func (Permission) TableName() string {
	return "permissions"
}

// Role is an event-scoped bundle of permissions. The "Owner" system role is
// created implicitly with the event and rejects every mutation.
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     uint      `gorm:"not null;index" json:"event_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsSystem    bool      `gorm:"not null;default:false" json:"is_system"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// StaffAssignment grants a user exactly one role on an event.
type StaffAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"not null;uniqueIndex:idx_event_user" json:"event_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_event_user" json:"user_id"`
	RoleID    uint      `gorm:"not null;index" json:"role_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (StaffAssignment) TableName() string {
	return "staff_assignments"
}

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type SetPermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids" binding:"required"`
}

type InviteStaffRequest struct {
	Email  string `json:"email" binding:"required,email"`
	RoleID uint   `json:"role_id" binding:"required"`
}
