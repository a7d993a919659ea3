package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/onmall/onmall-backend/pkg/enums"
)

// KYCRecord tracks the verification state for one vendor.
type KYCRecord struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex"`
	Status    enums.KYCStatus `gorm:"column:status;type:kyc_status;not null;default:'PENDING'"`
	Documents []KYCDocument   `gorm:"foreignKey:KYCRecordID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// KYCDocument is one uploaded verification document. A record holds at
// most one document per type; replacing a type swaps the stored asset.
type KYCDocument struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	KYCRecordID uuid.UUID          `gorm:"column:kyc_record_id;type:uuid;not null;uniqueIndex:idx_kyc_documents_record_type"`
	Type        enums.DocumentType `gorm:"column:type;type:kyc_document_type;not null;uniqueIndex:idx_kyc_documents_record_type"`
	AssetID     string             `gorm:"column:asset_id;not null"`
	FileName    string             `gorm:"column:file_name;not null"`
	Format      string             `gorm:"column:format;not null"`
	SizeBytes   int64              `gorm:"column:size_bytes;not null;default:0"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
