package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/onmall/onmall-backend/api/middleware"
	"github.com/onmall/onmall-backend/api/responses"
	"github.com/onmall/onmall-backend/api/validators"
	"github.com/onmall/onmall-backend/internal/products"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
	"github.com/onmall/onmall-backend/pkg/logger"
)

type productCreateRequest struct {
	Title           string   `json:"title" validate:"required,min=2,max=200"`
	Slug            string   `json:"slug"`
	Description     *string  `json:"description"`
	Price           string   `json:"price" validate:"required"`
	DiscountPercent int      `json:"discount_percent"`
	CategoryID      *string  `json:"category_id"`
	Stock           int      `json:"stock"`
	ImageAssetIDs   []string `json:"image_asset_ids"`
	Status          string   `json:"status"`
}

func (r productCreateRequest) toInput() (products.CreateInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return products.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}

	input := products.CreateInput{
		Title:           strings.TrimSpace(r.Title),
		Slug:            strings.TrimSpace(r.Slug),
		Description:     r.Description,
		Price:           price,
		DiscountPercent: r.DiscountPercent,
		Stock:           r.Stock,
		ImageAssetIDs:   r.ImageAssetIDs,
	}

	if r.CategoryID != nil && strings.TrimSpace(*r.CategoryID) != "" {
		categoryID, err := uuid.Parse(strings.TrimSpace(*r.CategoryID))
		if err != nil {
			return products.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
		}
		input.CategoryID = &categoryID
	}

	if r.Status != "" {
		status, err := enums.ParseProductStatus(strings.TrimSpace(r.Status))
		if err != nil {
			return products.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		input.Status = status
	}

	return input, nil
}

// VendorCreateProduct adds a product to the caller's shop.
func VendorCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), middleware.ActorFromContext(r.Context()), vendorID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type productUpdateRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Price           *string   `json:"price"`
	DiscountPercent *int      `json:"discount_percent"`
	CategoryID      *string   `json:"category_id"`
	Stock           *int      `json:"stock"`
	ImageAssetIDs   *[]string `json:"image_asset_ids"`
	Status          *string   `json:"status"`
}

func (r productUpdateRequest) toInput() (products.UpdateInput, error) {
	input := products.UpdateInput{
		Title:           r.Title,
		Description:     r.Description,
		DiscountPercent: r.DiscountPercent,
		Stock:           r.Stock,
		ImageAssetIDs:   r.ImageAssetIDs,
	}

	if r.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*r.Price))
		if err != nil {
			return products.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}

	if r.CategoryID != nil && strings.TrimSpace(*r.CategoryID) != "" {
		categoryID, err := uuid.Parse(strings.TrimSpace(*r.CategoryID))
		if err != nil {
			return products.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
		}
		input.CategoryID = &categoryID
	}

	if r.Status != nil {
		status, err := enums.ParseProductStatus(strings.TrimSpace(*r.Status))
		if err != nil {
			return products.UpdateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		input.Status = &status
	}

	return input, nil
}

// VendorUpdateProduct applies a partial edit to one product.
func VendorUpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var body productUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), middleware.ActorFromContext(r.Context()), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// VendorDeleteProduct removes one product from the caller's shop.
func VendorDeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ProductList serves the public storefront browse endpoint.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := parseProductListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func parseProductListParams(r *http.Request) (products.ListParams, error) {
	query := r.URL.Query()

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return products.ListParams{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
	if err != nil {
		return products.ListParams{}, err
	}

	params := products.ListParams{
		Search: validators.SanitizeString(query.Get("search"), 200),
		Flash:  query.Get("flash") == "true",
		Page:   page,
		Limit:  limit,
	}

	if raw := strings.TrimSpace(query.Get("category_id")); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return products.ListParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
		}
		params.CategoryID = &categoryID
	}

	if raw := strings.TrimSpace(query.Get("vendor_id")); raw != "" {
		vendorID, err := uuid.Parse(raw)
		if err != nil {
			return products.ListParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id")
		}
		params.VendorID = &vendorID
	}

	if raw := strings.TrimSpace(query.Get("sort")); raw != "" {
		sort, err := enums.ParseProductSort(raw)
		if err != nil {
			return products.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort")
		}
		params.Sort = sort
	}

	return params, nil
}

// ProductBySlug serves one public product page.
func ProductBySlug(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}

		product, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
