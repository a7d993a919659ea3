package kyc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/internal/media"
	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
)

// ModePreviewImage asks for a first-page PNG rasterization of the document
// instead of the raw file.
const ModePreviewImage = "preview-image"

type kycRepository interface {
	FindRecordByVendor(ctx context.Context, vendorID uuid.UUID) (*models.KYCRecord, error)
	FindRecordByID(ctx context.Context, id uuid.UUID) (*models.KYCRecord, error)
	CreateRecord(ctx context.Context, record *models.KYCRecord) error
	UpdateStatus(ctx context.Context, recordID uuid.UUID, status enums.KYCStatus) error
	FindDocumentByID(ctx context.Context, id uuid.UUID) (*models.KYCDocument, error)
	FindDocumentByAssetID(ctx context.Context, assetID string) (*models.KYCDocument, error)
	SwapDocument(ctx context.Context, recordID uuid.UUID, docType enums.DocumentType, meta DocumentMeta) (*models.KYCDocument, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

type vendorLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type mediaBroker interface {
	Upload(ctx context.Context, input media.UploadInput) (*media.Asset, error)
	SignedURL(assetID string, tier media.AccessTier) (*media.SignedLink, error)
	DeleteAsset(ctx context.Context, assetID string) error
}

// UploadDocumentInput carries one verification document upload.
type UploadDocumentInput struct {
	Type      enums.DocumentType
	FileName  string
	MimeType  string
	SizeBytes int64
	Body      io.Reader
}

// Service exposes the vendor verification document lifecycle.
type Service interface {
	UploadDocument(ctx context.Context, actor Actor, vendorID uuid.UUID, input UploadDocumentInput) (*DocumentView, error)
	ListDocuments(ctx context.Context, actor Actor, vendorID uuid.UUID) (*RecordView, error)
	DeleteDocument(ctx context.Context, actor Actor, vendorID, documentID uuid.UUID) error
	SignedURL(ctx context.Context, actor Actor, publicID, mode string) (*media.SignedLink, error)
	Preview(ctx context.Context, actor Actor, publicID string) (*media.SignedLink, error)
	SetStatus(ctx context.Context, actor Actor, vendorID uuid.UUID, status enums.KYCStatus) (*RecordView, error)
}

type service struct {
	repo    kycRepository
	vendors vendorLoader
	broker  mediaBroker
}

// NewService builds a KYC service over the given repository, vendor loader
// and media broker.
func NewService(repo kycRepository, vendors vendorLoader, broker mediaBroker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("kyc repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor loader required")
	}
	if broker == nil {
		return nil, fmt.Errorf("media broker required")
	}
	return &service{repo: repo, vendors: vendors, broker: broker}, nil
}

func (s *service) UploadDocument(ctx context.Context, actor Actor, vendorID uuid.UUID, input UploadDocumentInput) (*DocumentView, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid document type")
	}

	vendor, err := s.loadVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !CanMutateVendor(actor, vendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor does not own vendor")
	}

	record, err := s.ensureRecord(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	// Store the replacement before touching anything else so a storage
	// failure leaves the current document untouched.
	asset, err := s.broker.Upload(ctx, media.UploadInput{
		Kind:      enums.MediaKindKYCDoc,
		FileName:  input.FileName,
		MimeType:  input.MimeType,
		SizeBytes: input.SizeBytes,
		Body:      input.Body,
	})
	if err != nil {
		return nil, err
	}

	if existing := documentOfType(record, input.Type); existing != nil {
		// The old asset must be gone before the metadata swap. A failed
		// delete aborts the whole replacement, discarding the fresh
		// upload rather than orphaning it.
		if err := s.broker.DeleteAsset(ctx, existing.AssetID); err != nil {
			err = multierr.Append(err, s.discardAsset(ctx, asset.AssetID))
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove replaced document asset")
		}
	}

	doc, err := s.repo.SwapDocument(ctx, record.ID, input.Type, DocumentMeta{
		AssetID:   asset.AssetID,
		FileName:  asset.FileName,
		Format:    asset.Format,
		SizeBytes: asset.SizeBytes,
	})
	if err != nil {
		err = multierr.Append(err, s.discardAsset(ctx, asset.AssetID))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist document")
	}

	view := toDocumentView(*doc)
	return &view, nil
}

func (s *service) ListDocuments(ctx context.Context, actor Actor, vendorID uuid.UUID) (*RecordView, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}

	vendor, err := s.loadVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !CanViewKYC(actor, vendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view verification documents")
	}

	record, err := s.repo.FindRecordByVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notStartedView(vendorID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kyc record")
	}

	view := &RecordView{
		VendorID:  vendorID,
		Status:    record.Status,
		Documents: make([]DocumentView, len(record.Documents)),
	}
	for i, doc := range record.Documents {
		view.Documents[i] = toDocumentView(doc)
		link, err := s.broker.SignedURL(doc.AssetID, media.TierViewer)
		if err != nil {
			return nil, err
		}
		view.Documents[i].SignedURL = link.URL
		expires := link.ExpiresAt
		view.Documents[i].URLExpires = &expires
	}
	return view, nil
}

func (s *service) DeleteDocument(ctx context.Context, actor Actor, vendorID, documentID uuid.UUID) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if vendorID == uuid.Nil || documentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id and document id are required")
	}

	vendor, err := s.loadVendor(ctx, vendorID)
	if err != nil {
		return err
	}
	if !CanMutateVendor(actor, vendor) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "actor does not own vendor")
	}

	record, err := s.repo.FindRecordByVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kyc record")
	}

	doc, err := s.repo.FindDocumentByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	// A document id from some other vendor's record reads as absent, not
	// forbidden, so ids cannot be probed across vendors.
	if doc.KYCRecordID != record.ID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}

	if err := s.broker.DeleteAsset(ctx, doc.AssetID); err != nil {
		return err
	}
	if err := s.repo.DeleteDocument(ctx, doc.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document")
	}
	return nil
}

func (s *service) SignedURL(ctx context.Context, actor Actor, publicID, mode string) (*media.SignedLink, error) {
	if strings.TrimSpace(publicID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "public id is required")
	}

	tier := media.TierSelfService
	switch mode {
	case "", "self-service":
	case ModePreviewImage:
		// Preview rendering does not shorten the self-service lifetime.
		tier = media.TierSelfPreview
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown signing mode")
	}

	if err := s.authorizeAssetAccess(ctx, actor, publicID); err != nil {
		return nil, err
	}
	return s.broker.SignedURL(publicID, tier)
}

func (s *service) Preview(ctx context.Context, actor Actor, publicID string) (*media.SignedLink, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if strings.TrimSpace(publicID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "public id is required")
	}
	if _, err := s.findDocumentByAsset(ctx, publicID); err != nil {
		return nil, err
	}
	return s.broker.SignedURL(publicID, media.TierAdminPreview)
}

func (s *service) SetStatus(ctx context.Context, actor Actor, vendorID uuid.UUID, status enums.KYCStatus) (*RecordView, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid kyc status")
	}

	record, err := s.repo.FindRecordByVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "kyc record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kyc record")
	}

	if err := s.repo.UpdateStatus(ctx, record.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update kyc status")
	}

	view := &RecordView{
		VendorID:  vendorID,
		Status:    status,
		Documents: make([]DocumentView, len(record.Documents)),
	}
	for i, doc := range record.Documents {
		view.Documents[i] = toDocumentView(doc)
	}
	return view, nil
}

func (s *service) loadVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.vendors.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor")
	}
	return vendor, nil
}

func (s *service) ensureRecord(ctx context.Context, vendorID uuid.UUID) (*models.KYCRecord, error) {
	record, err := s.repo.FindRecordByVendor(ctx, vendorID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kyc record")
	}

	created := &models.KYCRecord{
		VendorID: vendorID,
		Status:   enums.KYCStatusPending,
	}
	if err := s.repo.CreateRecord(ctx, created); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create kyc record")
	}
	return created, nil
}

func documentOfType(record *models.KYCRecord, docType enums.DocumentType) *models.KYCDocument {
	if record == nil {
		return nil
	}
	for i := range record.Documents {
		if record.Documents[i].Type == docType {
			return &record.Documents[i]
		}
	}
	return nil
}

func (s *service) findDocumentByAsset(ctx context.Context, publicID string) (*models.KYCDocument, error) {
	doc, err := s.repo.FindDocumentByAssetID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup document")
	}
	return doc, nil
}

// authorizeAssetAccess resolves the document behind an opaque asset id and
// checks the actor against its owning vendor.
func (s *service) authorizeAssetAccess(ctx context.Context, actor Actor, publicID string) error {
	doc, err := s.findDocumentByAsset(ctx, publicID)
	if err != nil {
		return err
	}
	record, err := s.repo.FindRecordByID(ctx, doc.KYCRecordID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kyc record")
	}
	vendor, err := s.loadVendor(ctx, record.VendorID)
	if err != nil {
		return err
	}
	if !CanViewKYC(actor, vendor) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view verification documents")
	}
	return nil
}

func (s *service) discardAsset(ctx context.Context, assetID string) error {
	return s.broker.DeleteAsset(ctx, assetID)
}
