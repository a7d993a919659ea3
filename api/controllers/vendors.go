package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/onmall/onmall-backend/api/middleware"
	"github.com/onmall/onmall-backend/api/responses"
	"github.com/onmall/onmall-backend/api/validators"
	"github.com/onmall/onmall-backend/internal/vendors"
	"github.com/onmall/onmall-backend/pkg/enums"
	pkgerrors "github.com/onmall/onmall-backend/pkg/errors"
	"github.com/onmall/onmall-backend/pkg/logger"
)

type vendorInitialDocument struct {
	Type      string `json:"type" validate:"required"`
	AssetID   string `json:"asset_id" validate:"required"`
	FileName  string `json:"file_name" validate:"required"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
}

type vendorRegisterRequest struct {
	ShopName        string                 `json:"shop_name" validate:"required,min=2,max=120"`
	Description     *string                `json:"description"`
	InitialDocument *vendorInitialDocument `json:"initial_document"`
}

func (r vendorRegisterRequest) toInput() (vendors.RegisterInput, error) {
	input := vendors.RegisterInput{
		ShopName:    strings.TrimSpace(r.ShopName),
		Description: r.Description,
	}
	if r.InitialDocument != nil {
		docType, err := enums.ParseDocumentType(strings.TrimSpace(r.InitialDocument.Type))
		if err != nil {
			return vendors.RegisterInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid document type")
		}
		input.InitialDocument = &vendors.InitialDocumentInput{
			Type:      docType,
			AssetID:   strings.TrimSpace(r.InitialDocument.AssetID),
			FileName:  r.InitialDocument.FileName,
			Format:    r.InitialDocument.Format,
			SizeBytes: r.InitialDocument.SizeBytes,
		}
	}
	return input, nil
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

// VendorRegister opens a shop for the logged-in user.
func VendorRegister(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body vendorRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.Register(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, vendor)
	}
}

// VendorProfile returns the caller's own shop.
func VendorProfile(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendor)
	}
}

type vendorUpdateRequest struct {
	ShopName    *string `json:"shop_name"`
	Description *string `json:"description"`
}

// VendorUpdate edits the caller's shop profile. Vendors whose token predates
// shop registration are resolved through their profile.
func VendorUpdate(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body vendorUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := resolveOwnVendorID(r, svc, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.Update(r.Context(), middleware.ActorFromContext(r.Context()), vendorID, vendors.UpdateInput{
			ShopName:    body.ShopName,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendor)
	}
}

func resolveOwnVendorID(r *http.Request, svc vendors.Service, userID uuid.UUID) (uuid.UUID, error) {
	if raw := middleware.VendorIDFromContext(r.Context()); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return id, nil
		}
	}
	vendor, err := svc.Profile(r.Context(), userID)
	if err != nil {
		return uuid.Nil, err
	}
	return vendor.ID, nil
}

// AdminVendorList pages through all vendors with their verification state.
func AdminVendorList(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdminList(r.Context(), middleware.ActorFromContext(r.Context()), vendors.ListParams{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 120),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type vendorApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// AdminVendorApproval flips a vendor's marketplace approval.
func AdminVendorApproval(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		vendorID, err := uuid.Parse(chi.URLParam(r, "vendorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
			return
		}

		var body vendorApprovalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.SetApproval(r.Context(), middleware.ActorFromContext(r.Context()), vendorID, *body.Approved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendor)
	}
}
