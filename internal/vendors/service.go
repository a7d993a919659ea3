package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/internal/kyc"
	"github.com/onmall/onmall-backend/pkg/db"
	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
	pkgpagination "github.com/onmall/onmall-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InitialDocumentInput references an already uploaded verification asset
// supplied at registration time.
type InitialDocumentInput struct {
	Type      enums.DocumentType
	AssetID   string
	FileName  string
	Format    string
	SizeBytes int64
}

// RegisterInput captures vendor sign-up fields.
type RegisterInput struct {
	ShopName        string
	Description     *string
	InitialDocument *InitialDocumentInput
}

// UpdateInput captures the mutable vendor profile fields. Approved is only
// honored for admin actors.
type UpdateInput struct {
	ShopName    *string
	Description *string
	Approved    *bool
}

// ListParams drives the admin vendor listing.
type ListParams struct {
	Search string
	Limit  int
	Cursor string
}

// ListResult is one page of the admin vendor listing.
type ListResult struct {
	Items  []AdminVendorDTO `json:"items"`
	Cursor string           `json:"cursor,omitempty"`
}

// Service exposes vendor onboarding and administration.
type Service interface {
	Register(ctx context.Context, userID uuid.UUID, input RegisterInput) (*VendorDTO, error)
	Profile(ctx context.Context, userID uuid.UUID) (*VendorDTO, error)
	Update(ctx context.Context, actor kyc.Actor, vendorID uuid.UUID, input UpdateInput) (*VendorDTO, error)
	AdminList(ctx context.Context, actor kyc.Actor, params ListParams) (*ListResult, error)
	SetApproval(ctx context.Context, actor kyc.Actor, vendorID uuid.UUID, approved bool) (*VendorDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a vendor service over the repository and transaction
// runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Register(ctx context.Context, userID uuid.UUID, input RegisterInput) (*VendorDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	shopName := strings.TrimSpace(input.ShopName)
	if shopName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop_name is required")
	}
	if input.InitialDocument != nil && !input.InitialDocument.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid document type")
	}

	if _, err := s.repo.FindByUserID(ctx, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already has a vendor")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor")
	}

	vendor := &models.Vendor{
		UserID:      userID,
		ShopName:    shopName,
		Description: input.Description,
		Approved:    false,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, vendor); err != nil {
			return err
		}
		record := &models.KYCRecord{
			VendorID: vendor.ID,
			Status:   enums.KYCStatusPending,
		}
		if input.InitialDocument != nil {
			// A document submitted with registration already puts the
			// vendor in the review queue.
			record.Status = enums.KYCStatusUnderReview
		}
		if err := repo.CreateKYCRecord(ctx, record); err != nil {
			return err
		}
		if input.InitialDocument != nil {
			doc := input.InitialDocument
			return repo.CreateKYCDocument(ctx, &models.KYCDocument{
				KYCRecordID: record.ID,
				Type:        doc.Type,
				AssetID:     doc.AssetID,
				FileName:    doc.FileName,
				Format:      doc.Format,
				SizeBytes:   doc.SizeBytes,
			})
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_vendors_shop_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "shop name already taken")
		}
		if db.IsUniqueViolation(err, "idx_vendors_user_id") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already has a vendor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register vendor")
	}

	return s.Profile(ctx, userID)
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*VendorDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	vendor, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return FromModel(vendor), nil
}

func (s *service) Update(ctx context.Context, actor kyc.Actor, vendorID uuid.UUID, input UpdateInput) (*VendorDTO, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}

	vendor, err := s.loadVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !kyc.CanMutateVendor(actor, vendor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor does not own vendor")
	}

	if input.ShopName != nil {
		name := strings.TrimSpace(*input.ShopName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop_name cannot be empty")
		}
		vendor.ShopName = name
	}
	if input.Description != nil {
		desc := *input.Description
		vendor.Description = &desc
	}
	// Approval is an admin decision. Vendors sending it get it dropped,
	// not rejected.
	if input.Approved != nil && actor.IsAdmin() {
		vendor.Approved = *input.Approved
	}

	if err := s.repo.Update(ctx, vendor); err != nil {
		if db.IsUniqueViolation(err, "idx_vendors_shop_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "shop name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor")
	}
	return FromModel(vendor), nil
}

func (s *service) AdminList(ctx context.Context, actor kyc.Actor, params ListParams) (*ListResult, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		search: strings.TrimSpace(params.Search),
		limit:  pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	items := make([]AdminVendorDTO, len(rows))
	for i, row := range rows {
		items[i] = toAdminDTO(row)
	}
	return &ListResult{Items: items, Cursor: nextCursor}, nil
}

func (s *service) SetApproval(ctx context.Context, actor kyc.Actor, vendorID uuid.UUID, approved bool) (*VendorDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}

	vendor, err := s.loadVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetApproval(ctx, vendorID, approved); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set approval")
	}
	vendor.Approved = approved
	return FromModel(vendor), nil
}

func (s *service) loadVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}
