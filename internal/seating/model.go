package seating

import (
	"time"

	"gorm.io/datatypes"
)

// Table shapes
const (
	ShapeRound = "round"
	ShapeRect  = "rect"
)

// Table is a seating table. AssignedGuestIDs holds guest ids; the
// assignment engine keeps these sets pairwise disjoint across an event.
type Table struct {
	ID               uint                      `gorm:"primaryKey" json:"id"`
	EventID          uint                      `gorm:"not null;index" json:"event_id"`
	Name             string                    `gorm:"size:100;not null" json:"name"`
	Shape            string                    `gorm:"size:20;not null;default:round" json:"shape"`
	Capacity         int                       `gorm:"not null" json:"capacity"`
	AssignedGuestIDs datatypes.JSONSlice[uint] `json:"assigned_guest_ids"`
	CreatedAt        time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Table) TableName() string {
	return "tables"
}

// TableSummary is a Table plus derived occupancy. Capacity is informational:
// an over-capacity table is a warning, never an assignment error.
type TableSummary struct {
	Table
	CurrentPax   int  `json:"current_pax"`
	OverCapacity bool `json:"over_capacity"`
	OverBy       int  `json:"over_by,omitempty"`
}

type CreateTableRequest struct {
	Name     string `json:"name" binding:"required"`
	Shape    string `json:"shape" binding:"omitempty,oneof=round rect"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
}

type UpdateTableRequest struct {
	Name     string `json:"name" binding:"required"`
	Shape    string `json:"shape" binding:"omitempty,oneof=round rect"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
}

// AssignRequest moves a guest to a table; a zero/absent table id unassigns.
type AssignRequest struct {
	GuestID uint  `json:"guest_id" binding:"required"`
	TableID *uint `json:"table_id"`
}
