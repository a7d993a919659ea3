package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
)

// flashDiscountPercent is the cutoff above which a product counts as a
// flash deal on the storefront.
const flashDiscountPercent = 50

type listQuery struct {
	search     string
	categoryID *uuid.UUID
	vendorID   *uuid.UUID
	sort       enums.ProductSort
	flash      bool
	offset     int
	limit      int
}

// Repository defines product persistence operations.
type Repository interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, opts listQuery) ([]models.Product, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns one storefront page of published products plus the total
// match count for the filter set.
func (r *repository) List(ctx context.Context, opts listQuery) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("status = ?", enums.ProductStatusPublished)

	if opts.search != "" {
		base = base.Where("title ILIKE ?", "%"+opts.search+"%")
	}
	if opts.categoryID != nil {
		base = base.Where("category_id = ?", *opts.categoryID)
	}
	if opts.vendorID != nil {
		base = base.Where("vendor_id = ?", *opts.vendorID)
	}
	if opts.flash {
		base = base.Where("discount_percent >= ?", flashDiscountPercent)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Preload("Vendor")
	switch {
	case opts.flash || opts.sort == enums.ProductSortDiscount:
		query = query.Order("discount_percent DESC").Order("created_at DESC")
	case opts.sort == enums.ProductSortPriceAsc:
		query = query.Order("price ASC").Order("id ASC")
	case opts.sort == enums.ProductSortPriceDesc:
		query = query.Order("price DESC").Order("id DESC")
	default:
		query = query.Order("created_at DESC").Order("id DESC")
	}

	var rows []models.Product
	if err := query.Offset(opts.offset).Limit(opts.limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
