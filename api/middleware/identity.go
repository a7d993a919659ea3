package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/onmall/onmall-backend/api/responses"
	"github.com/onmall/onmall-backend/internal/identity"
	"github.com/onmall/onmall-backend/pkg/auth/session"
	"github.com/onmall/onmall-backend/pkg/config"
	"github.com/onmall/onmall-backend/pkg/logger"
)

type guestToucher interface {
	TouchGuest(ctx context.Context, guestID string, ttl time.Duration) error
}

// Identity resolves who owns the request without requiring a login. A valid
// bearer token yields a user identity; otherwise the guest cookie is read,
// minted on first contact, and refreshed on every hit. An invalid token is
// still rejected rather than silently downgraded to a guest.
func Identity(jwtCfg config.JWTConfig, guestCfg config.GuestConfig, verifier session.AccessSessionChecker, guests guestToucher, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				claims, err := verifyBearer(r, jwtCfg, verifier)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				next.ServeHTTP(w, r.WithContext(seedClaims(r.Context(), claims, logg)))
				return
			}

			guestID := readGuestCookie(r, guestCfg.CookieName)
			if guestID == "" {
				guestID = identity.MintGuestToken()
				http.SetCookie(w, guestCookie(guestCfg, guestID))
			}

			ctx := WithGuestID(r.Context(), guestID)
			if logg != nil {
				ctx = logg.WithGuestID(ctx, guestID)
			}

			if guests != nil {
				if err := guests.TouchGuest(ctx, guestID, guestCfg.CookieTTL); err != nil && logg != nil {
					// The seen-marker is advisory; browsing continues without it.
					logg.Warn(ctx, "guest touch failed")
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func readGuestCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}

func guestCookie(cfg config.GuestConfig, guestID string) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.CookieName,
		Value:    guestID,
		Path:     "/",
		MaxAge:   int(cfg.CookieTTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
