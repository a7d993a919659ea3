package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is the seller profile owned by exactly one user.
type Vendor struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	ShopName    string     `gorm:"column:shop_name;not null;uniqueIndex"`
	Description *string    `gorm:"column:description"`
	Approved    bool       `gorm:"column:approved;not null;default:false"`
	KYC         *KYCRecord `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
