package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/internal/kyc"
	"github.com/onmall/onmall-backend/pkg/db"
	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

type vendorLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

// CreateInput captures a new catalog entry.
type CreateInput struct {
	Title           string
	Slug            string
	Description     *string
	Price           decimal.Decimal
	DiscountPercent int
	CategoryID      *uuid.UUID
	Stock           int
	ImageAssetIDs   []string
	Status          enums.ProductStatus
}

// UpdateInput captures a partial product mutation.
type UpdateInput struct {
	Title           *string
	Description     *string
	Price           *decimal.Decimal
	DiscountPercent *int
	CategoryID      *uuid.UUID
	Stock           *int
	ImageAssetIDs   *[]string
	Status          *enums.ProductStatus
}

// ListParams drives the storefront browse endpoint.
type ListParams struct {
	Search     string
	CategoryID *uuid.UUID
	VendorID   *uuid.UUID
	Sort       enums.ProductSort
	Flash      bool
	Page       int
	Limit      int
}

// ListResult is one storefront page.
type ListResult struct {
	Items []ProductDTO `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int64        `json:"total"`
}

// Service exposes catalog management and browsing.
type Service interface {
	Create(ctx context.Context, actor kyc.Actor, vendorID uuid.UUID, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, actor kyc.Actor, productID uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor kyc.Actor, productID uuid.UUID) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
}

type service struct {
	repo    Repository
	vendors vendorLoader
}

// NewService builds a product service over the repository and vendor loader.
func NewService(repo Repository, vendors vendorLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor loader required")
	}
	return &service{repo: repo, vendors: vendors}, nil
}

func (s *service) Create(ctx context.Context, actor kyc.Actor, vendorID uuid.UUID, input CreateInput) (*ProductDTO, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.DiscountPercent < 0 || input.DiscountPercent > 99 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 99")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	status := input.Status
	if status == "" {
		status = enums.ProductStatusDraft
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}

	if err := s.authorizeVendor(ctx, actor, vendorID); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}

	product := &models.Product{
		VendorID:        vendorID,
		CategoryID:      input.CategoryID,
		Title:           title,
		Slug:            slug,
		Description:     input.Description,
		Price:           input.Price,
		DiscountPercent: input.DiscountPercent,
		Stock:           input.Stock,
		ImageAssetIDs:   pq.StringArray(input.ImageAssetIDs),
		Status:          status,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "idx_products_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, actor kyc.Actor, productID uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeVendor(ctx, actor, product.VendorID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		product.Title = title
	}
	if input.Description != nil {
		desc := *input.Description
		product.Description = &desc
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
	}
	if input.DiscountPercent != nil {
		if *input.DiscountPercent < 0 || *input.DiscountPercent > 99 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 99")
		}
		product.DiscountPercent = *input.DiscountPercent
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.ImageAssetIDs != nil {
		product.ImageAssetIDs = pq.StringArray(*input.ImageAssetIDs)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		product.Status = *input.Status
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return FromModel(product), nil
}

func (s *service) Delete(ctx context.Context, actor kyc.Actor, productID uuid.UUID) error {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.authorizeVendor(ctx, actor, product.VendorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	sortOrder := params.Sort
	if sortOrder == "" {
		sortOrder = enums.ProductSortNewest
	}
	if !sortOrder.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort")
	}

	rows, total, err := s.repo.List(ctx, listQuery{
		search:     strings.TrimSpace(params.Search),
		categoryID: params.CategoryID,
		vendorID:   params.VendorID,
		sort:       sortOrder,
		flash:      params.Flash,
		offset:     (page - 1) * limit,
		limit:      limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	items := make([]ProductDTO, len(rows))
	for i := range rows {
		items[i] = *FromModel(&rows[i])
	}
	return &ListResult{Items: items, Page: page, Limit: limit, Total: total}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// authorizeVendor lets the vendor's owner or an admin through.
func (s *service) authorizeVendor(ctx context.Context, actor kyc.Actor, vendorID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	vendor, err := s.vendors.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor")
	}
	if !kyc.CanMutateVendor(actor, vendor) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "actor does not own vendor")
	}
	return nil
}

// Slugify lowercases a title and collapses everything non-alphanumeric
// into single dashes.
func Slugify(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteRune('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
