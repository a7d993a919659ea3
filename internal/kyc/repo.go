package kyc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
)

// DocumentMeta is the stored-asset metadata written during a document swap.
type DocumentMeta struct {
	AssetID   string
	FileName  string
	Format    string
	SizeBytes int64
}

// Repository exposes KYC record and document persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a KYC repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindRecordByVendor loads a vendor's record with its documents.
func (r *Repository) FindRecordByVendor(ctx context.Context, vendorID uuid.UUID) (*models.KYCRecord, error) {
	var record models.KYCRecord
	err := r.db.WithContext(ctx).
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("vendor_id = ?", vendorID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindRecordByID loads one record without documents.
func (r *Repository) FindRecordByID(ctx context.Context, id uuid.UUID) (*models.KYCRecord, error) {
	var record models.KYCRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateRecord inserts a new record row.
func (r *Repository) CreateRecord(ctx context.Context, record *models.KYCRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// UpdateStatus moves a record to the given review status.
func (r *Repository) UpdateStatus(ctx context.Context, recordID uuid.UUID, status enums.KYCStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.KYCRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]any{"status": status, "updated_at": time.Now()}).Error
}

// FindDocumentByID loads one document row.
func (r *Repository) FindDocumentByID(ctx context.Context, id uuid.UUID) (*models.KYCDocument, error) {
	var doc models.KYCDocument
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindDocumentByAssetID resolves a document from its opaque media reference.
func (r *Repository) FindDocumentByAssetID(ctx context.Context, assetID string) (*models.KYCDocument, error) {
	var doc models.KYCDocument
	if err := r.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// SwapDocument writes the metadata for one document type and forces the
// record back under review, atomically. The per-type unique index means a
// record holds at most one row per document type, so the swap either
// updates the existing row in place or inserts the first one.
func (r *Repository) SwapDocument(ctx context.Context, recordID uuid.UUID, docType enums.DocumentType, meta DocumentMeta) (*models.KYCDocument, error) {
	var doc *models.KYCDocument
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.KYCDocument
		err := tx.Where("kyc_record_id = ? AND type = ?", recordID, docType).First(&existing).Error
		switch {
		case err == nil:
			existing.AssetID = meta.AssetID
			existing.FileName = meta.FileName
			existing.Format = meta.Format
			existing.SizeBytes = meta.SizeBytes
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			doc = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := models.KYCDocument{
				KYCRecordID: recordID,
				Type:        docType,
				AssetID:     meta.AssetID,
				FileName:    meta.FileName,
				Format:      meta.Format,
				SizeBytes:   meta.SizeBytes,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			doc = &created
		default:
			return err
		}

		return tx.Model(&models.KYCRecord{}).
			Where("id = ?", recordID).
			Update("status", enums.KYCStatusUnderReview).Error
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes one document row.
func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.KYCDocument{}).Error
}
