package guest

import (
	"time"
)

// Status is a guest's position in the invitation lifecycle.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusSent              Status = "sent"
	StatusViewed            Status = "viewed"
	StatusConfirmed         Status = "confirmed"
	StatusDeclined          Status = "declined"
	StatusAttended          Status = "attended"
	StatusSouvenirDelivered Status = "souvenir_delivered"
)

// transitions is the full legal transition table. declined and
// souvenir_delivered are terminal.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSent},
	StatusSent:      {StatusViewed},
	StatusViewed:    {StatusViewed, StatusConfirmed, StatusDeclined},
	StatusConfirmed: {StatusAttended},
	StatusAttended:  {StatusSouvenirDelivered},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Guest is a single invitation: one party of PaxCount people.
type Guest struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	EventID  uint   `gorm:"not null;index" json:"event_id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Slug     string `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Category string `gorm:"size:100" json:"category"`
	PaxCount int    `gorm:"not null;default:1" json:"pax_count"`
	Phone    string `gorm:"size:20" json:"phone"`
	Status   Status `gorm:"size:30;not null;default:draft;index" json:"status"`

	AttendedPax         int        `gorm:"not null;default:0" json:"attended_pax"`
	SouvenirID          *uint      `gorm:"index" json:"souvenir_id"`
	SouvenirRedeemedQty int        `gorm:"not null;default:0" json:"souvenir_redeemed_quantity"`
	SouvenirRedeemedAt  *time.Time `json:"souvenir_redeemed_at"`

	Wishes    string     `gorm:"type:text" json:"wishes"`
	SharedAt  *time.Time `json:"shared_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Guest) TableName() string {
	return "guests"
}

type CreateGuestRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	PaxCount int    `json:"pax_count" binding:"required,min=1"`
	Phone    string `json:"phone"`
}

type UpdateGuestRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	PaxCount int    `json:"pax_count" binding:"required,min=1"`
	Phone    string `json:"phone"`
}

type RSVPRequest struct {
	Attending string `json:"attending" binding:"required,oneof=yes no"`
	Wishes    string `json:"wishes"`
}

type CheckInRequest struct {
	AttendedPax int `json:"attended_pax" binding:"required,min=1"`
}

type GuestFilter struct {
	EventID  uint
	Status   string
	Category string
	Search   string
	Limit    int
	Offset   int
}
