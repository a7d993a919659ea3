package vendors

import (
	"time"

	"github.com/google/uuid"

	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
)

// VendorDTO is the API shape of a vendor profile.
type VendorDTO struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	ShopName    string          `json:"shop_name"`
	Description *string         `json:"description,omitempty"`
	Approved    bool            `json:"approved"`
	KYCStatus   enums.KYCStatus `json:"kyc_status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DocumentMetaDTO is verification document metadata without any URL.
type DocumentMetaDTO struct {
	ID         uuid.UUID          `json:"id"`
	Type       enums.DocumentType `json:"type"`
	FileName   string             `json:"file_name"`
	Format     string             `json:"format"`
	SizeBytes  int64              `json:"size_bytes"`
	UploadedAt time.Time          `json:"uploaded_at"`
}

// AdminVendorDTO extends the vendor profile with review material.
type AdminVendorDTO struct {
	VendorDTO
	Documents []DocumentMetaDTO `json:"documents"`
}

// FromModel maps a vendor row, synthesizing the not-started verification
// state when no record exists yet.
func FromModel(vendor *models.Vendor) *VendorDTO {
	dto := &VendorDTO{
		ID:          vendor.ID,
		UserID:      vendor.UserID,
		ShopName:    vendor.ShopName,
		Description: vendor.Description,
		Approved:    vendor.Approved,
		KYCStatus:   enums.KYCStatusNotStarted,
		CreatedAt:   vendor.CreatedAt,
		UpdatedAt:   vendor.UpdatedAt,
	}
	if vendor.KYC != nil {
		dto.KYCStatus = vendor.KYC.Status
	}
	return dto
}

func toAdminDTO(vendor models.Vendor) AdminVendorDTO {
	dto := AdminVendorDTO{
		VendorDTO: *FromModel(&vendor),
		Documents: []DocumentMetaDTO{},
	}
	if vendor.KYC != nil {
		for _, doc := range vendor.KYC.Documents {
			dto.Documents = append(dto.Documents, DocumentMetaDTO{
				ID:         doc.ID,
				Type:       doc.Type,
				FileName:   doc.FileName,
				Format:     doc.Format,
				SizeBytes:  doc.SizeBytes,
				UploadedAt: doc.CreatedAt,
			})
		}
	}
	return dto
}
