package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/onmall/onmall-backend/internal/identity"
	"github.com/onmall/onmall-backend/internal/kyc"
	"github.com/onmall/onmall-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxVendorID contextKey = "vendor_id"
	ctxGuestID  contextKey = "guest_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func VendorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxVendorID).(string); ok {
		return v
	}
	return ""
}

func GuestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxGuestID).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext rebuilds the authenticated actor from the request
// context. The zero actor means the request carried no valid token.
func ActorFromContext(ctx context.Context) kyc.Actor {
	raw := UserIDFromContext(ctx)
	if raw == "" {
		return kyc.Actor{}
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return kyc.Actor{}
	}
	return kyc.Actor{UserID: userID, Role: enums.UserRole(RoleFromContext(ctx))}
}

// IdentityFromContext resolves the cart owner for the request. A logged-in
// user always wins over a guest cookie.
func IdentityFromContext(ctx context.Context) identity.Identity {
	if raw := UserIDFromContext(ctx); raw != "" {
		if userID, err := uuid.Parse(raw); err == nil {
			return identity.ForUser(userID)
		}
	}
	if guestID := GuestIDFromContext(ctx); guestID != "" {
		return identity.ForGuest(guestID)
	}
	return identity.Identity{}
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithVendorID injects the vendor identifier into the context for downstream handlers.
func WithVendorID(ctx context.Context, vendorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxVendorID, vendorID)
}

// WithGuestID injects the guest token into the context.
func WithGuestID(ctx context.Context, guestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxGuestID, guestID)
}
