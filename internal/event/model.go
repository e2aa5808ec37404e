package event

import (
	"time"
)

// Event is a managed occasion: a wedding, reception, or other gathering.
// The owner is the creating user and never changes.
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Slug      string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	EventDate time.Time `gorm:"not null;index" json:"event_date"`
	Location  string    `gorm:"type:text" json:"location"`
	EventType string    `gorm:"size:100;not null;default:wedding" json:"event_type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

type CreateEventRequest struct {
	Name      string `json:"name" binding:"required"`
	EventDate string `json:"event_date" binding:"required"` // "2006-01-02"
	Location  string `json:"location"`
	EventType string `json:"event_type"`
}

type UpdateEventRequest struct {
	Name      string `json:"name" binding:"required"`
	EventDate string `json:"event_date" binding:"required"`
	Location  string `json:"location"`
	EventType string `json:"event_type"`
}
