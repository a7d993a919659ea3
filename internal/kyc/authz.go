package kyc

import (
	"github.com/google/uuid"

	"github.com/onmall/onmall-backend/pkg/db/models"
	"github.com/onmall/onmall-backend/pkg/enums"
)

// Actor identifies the authenticated caller for authorization checks.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// CanMutateVendor reports whether the actor may upload or delete documents
// for the vendor. Only the owning user mutates; admins review submissions,
// they do not make them.
func CanMutateVendor(actor Actor, vendor *models.Vendor) bool {
	if vendor == nil {
		return false
	}
	return actor.UserID != uuid.Nil && actor.UserID == vendor.UserID
}

// CanViewKYC reports whether the actor may read the vendor's verification
// state and documents.
func CanViewKYC(actor Actor, vendor *models.Vendor) bool {
	return actor.IsAdmin() || CanMutateVendor(actor, vendor)
}
