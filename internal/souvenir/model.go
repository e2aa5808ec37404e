package souvenir

import (
	"time"

	"gorm.io/datatypes"
)

// Souvenir is a redeemable stock item. CategoryRestrictions, when non-empty,
// limits redemption to guests whose category appears in the list.
type Souvenir struct {
	ID                   uint                        `gorm:"primaryKey" json:"id"`
	EventID              uint                        `gorm:"not null;index" json:"event_id"`
	Name                 string                      `gorm:"size:100;not null" json:"name"`
	Description          string                      `gorm:"size:255" json:"description"`
	Stock                int                         `gorm:"not null;default:0" json:"stock"`
	CategoryRestrictions datatypes.JSONSlice[string] `json:"category_restrictions"`
	CreatedAt            time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Souvenir) TableName() string {
	return "souvenirs"
}

type CreateSouvenirRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Description          string   `json:"description"`
	Stock                int      `json:"stock" binding:"min=0"`
	CategoryRestrictions []string `json:"category_restrictions"`
}

type UpdateSouvenirRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Description          string   `json:"description"`
	Stock                int      `json:"stock" binding:"min=0"`
	CategoryRestrictions []string `json:"category_restrictions"`
}

type RedeemRequest struct {
	GuestID uint `json:"guest_id" binding:"required"`
}

// RedemptionResult reports what the redemption consumed.
type RedemptionResult struct {
	GuestID        uint      `json:"guest_id"`
	SouvenirID     uint      `json:"souvenir_id"`
	Quantity       int       `json:"quantity"`
	RemainingStock int       `json:"remaining_stock"`
	RedeemedAt     time.Time `json:"redeemed_at"`
}
