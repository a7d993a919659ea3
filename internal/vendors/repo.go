package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/pagination"
)

type listQuery struct {
	search string
	cursor *pagination.Cursor
	limit  int
}

// Repository defines vendor persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vendor *models.Vendor) error
	CreateKYCRecord(ctx context.Context, record *models.KYCRecord) error
	CreateKYCDocument(ctx context.Context, doc *models.KYCDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error)
	Update(ctx context.Context, vendor *models.Vendor) error
	List(ctx context.Context, opts listQuery) ([]models.Vendor, error)
	SetApproval(ctx context.Context, id uuid.UUID, approved bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a vendor repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

// CreateKYCRecord lives here so vendor registration can seed the
// verification record inside the same transaction.
func (r *repository) CreateKYCRecord(ctx context.Context, record *models.KYCRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) CreateKYCDocument(ctx context.Context, doc *models.KYCDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Preload("KYC").
		Where("id = ?", id).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Preload("KYC").
		Where("user_id = ?", userID).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) Update(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Save(vendor).Error
}

// List returns vendors with their verification state using cursor pagination.
func (r *repository) List(ctx context.Context, opts listQuery) ([]models.Vendor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Preload("KYC").
		Preload("KYC.Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})

	if opts.search != "" {
		query = query.Where("shop_name ILIKE ?", "%"+opts.search+"%")
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Vendor
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SetApproval(ctx context.Context, id uuid.UUID, approved bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Update("approved", approved).Error
}
