package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart belongs to exactly one owner: a registered user or an anonymous
// guest token. The table enforces the exclusivity with a CHECK constraint.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex"`
	GuestID   *string    `gorm:"column:guest_id;type:text;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
