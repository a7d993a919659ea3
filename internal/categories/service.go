package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onmall/onmall-backend/internal/kyc"
	"github.com/onmall/onmall-backend/pkg/db"
	"github.com/onmall/onmall-backend/pkg/db/models"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
)

// CategoryDTO is a taxonomy node with one level of children.
type CategoryDTO struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Slug      string        `json:"slug"`
	ParentID  *uuid.UUID    `json:"parent_id,omitempty"`
	Children  []CategoryDTO `json:"children"`
	CreatedAt time.Time     `json:"created_at"`
}

// CreateInput captures a new taxonomy node.
type CreateInput struct {
	Name     string
	Slug     string
	ParentID *uuid.UUID
}

// ListParams filters the category listing. When neither Search nor
// ParentID is set, only root nodes are returned.
type ListParams struct {
	Search   string
	ParentID *uuid.UUID
}

// Service exposes taxonomy browsing and admin management.
type Service interface {
	List(ctx context.Context, params ListParams) ([]CategoryDTO, error)
	Create(ctx context.Context, actor kyc.Actor, input CreateInput) (*CategoryDTO, error)
	Delete(ctx context.Context, actor kyc.Actor, categoryID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds a category service over the repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]CategoryDTO, error) {
	search := strings.TrimSpace(params.Search)
	rows, err := s.repo.List(ctx, listQuery{
		search:   search,
		parentID: params.ParentID,
		rootOnly: search == "" && params.ParentID == nil,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}

	items := make([]CategoryDTO, len(rows))
	for i, row := range rows {
		items[i] = toDTO(row)
	}
	return items, nil
}

func (s *service) Create(ctx context.Context, actor kyc.Actor, input CreateInput) (*CategoryDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	if input.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup parent category")
		}
	}

	category := &models.Category{
		Name:     name,
		Slug:     slug,
		ParentID: input.ParentID,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "idx_categories_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}

	dto := toDTO(*category)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, actor kyc.Actor, categoryID uuid.UUID) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if categoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}

	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if len(category.Children) > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category has child categories")
	}

	count, err := s.repo.CountProducts(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products")
	}

	if err := s.repo.Delete(ctx, categoryID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func toDTO(category models.Category) CategoryDTO {
	dto := CategoryDTO{
		ID:        category.ID,
		Name:      category.Name,
		Slug:      category.Slug,
		ParentID:  category.ParentID,
		Children:  []CategoryDTO{},
		CreatedAt: category.CreatedAt,
	}
	for _, child := range category.Children {
		dto.Children = append(dto.Children, toDTO(child))
	}
	return dto
}
