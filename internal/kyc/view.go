package kyc

import (
	"time"

	"github.com/google/uuid"

	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
)

// DocumentView is the API shape of one verification document. The stored
// asset is only ever exposed through short-lived signed URLs, never as a
// raw location.
type DocumentView struct {
	ID         uuid.UUID          `json:"id"`
	Type       enums.DocumentType `json:"type"`
	AssetID    string             `json:"asset_id"`
	FileName   string             `json:"file_name"`
	Format     string             `json:"format"`
	SizeBytes  int64              `json:"size_bytes"`
	UploadedAt time.Time          `json:"uploaded_at"`
	SignedURL  string             `json:"signed_url,omitempty"`
	URLExpires *time.Time         `json:"url_expires_at,omitempty"`
}

// RecordView is a vendor's verification state with its documents.
type RecordView struct {
	VendorID  uuid.UUID       `json:"vendor_id"`
	Status    enums.KYCStatus `json:"status"`
	Documents []DocumentView  `json:"documents"`
}

func toDocumentView(doc models.KYCDocument) DocumentView {
	return DocumentView{
		ID:         doc.ID,
		Type:       doc.Type,
		AssetID:    doc.AssetID,
		FileName:   doc.FileName,
		Format:     doc.Format,
		SizeBytes:  doc.SizeBytes,
		UploadedAt: doc.CreatedAt,
	}
}

// notStartedView is what callers see before any record exists.
func notStartedView(vendorID uuid.UUID) *RecordView {
	return &RecordView{
		VendorID:  vendorID,
		Status:    enums.KYCStatusNotStarted,
		Documents: []DocumentView{},
	}
}
