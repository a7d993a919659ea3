package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/onmall/onmall-backend/api/middleware"
	"github.com/onmall/onmall-backend/api/responses"
	"github.com/onmall/onmall-backend/api/validators"
	"github.com/onmall/onmall-backend/internal/categories"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
	"github.com/onmall/onmall-backend/pkg/logger"
)

// CategoryList serves the public category tree. Without filters only root
// nodes come back, each with its children preloaded.
func CategoryList(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		params := categories.ListParams{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 120),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("parent_id")); raw != "" {
			parentID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid parent_id"))
				return
			}
			params.ParentID = &parentID
		}

		items, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

type categoryCreateRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parent_id"`
}

// AdminCategoryCreate adds a node to the taxonomy.
func AdminCategoryCreate(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		var body categoryCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := categories.CreateInput{
			Name: strings.TrimSpace(body.Name),
			Slug: strings.TrimSpace(body.Slug),
		}
		if body.ParentID != nil && strings.TrimSpace(*body.ParentID) != "" {
			parentID, err := uuid.Parse(strings.TrimSpace(*body.ParentID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid parent_id"))
				return
			}
			input.ParentID = &parentID
		}

		category, err := svc.Create(r.Context(), middleware.ActorFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// AdminCategoryDelete removes an empty leaf category.
func AdminCategoryDelete(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categoryID, err := uuid.Parse(chi.URLParam(r, "categoryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id"))
			return
		}

		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
