package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onmall/onmall-backend/pkg/config"
	"github.com/onmall/onmall-backend/pkg/enums"
)

type stubGuestToucher struct {
	touched []string
	err     error
}

func (s *stubGuestToucher) TouchGuest(ctx context.Context, guestID string, ttl time.Duration) error {
	s.touched = append(s.touched, guestID)
	return s.err
}

func guestTestConfig() config.GuestConfig {
	return config.GuestConfig{CookieName: "guest_id", CookieTTL: 720 * time.Hour, CookieSecure: false}
}

func TestIdentityMintsGuestCookieOnFirstContact(t *testing.T) {
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	guests := &stubGuestToucher{}

	var captured string
	handler := Identity(jwtCfg, guestTestConfig(), stubSessionVerifier{ok: true}, guests, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GuestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured == "" {
		t.Fatal("expected guest id in context")
	}

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != "guest_id" || cookie.Value != captured {
		t.Fatalf("cookie mismatch: %s=%s context=%s", cookie.Name, cookie.Value, captured)
	}
	if !cookie.HttpOnly {
		t.Fatal("expected http-only cookie")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatal("expected SameSite=Lax")
	}
	if len(guests.touched) != 1 || guests.touched[0] != captured {
		t.Fatalf("expected guest touch for %s got %v", captured, guests.touched)
	}
}

func TestIdentityReusesExistingGuestCookie(t *testing.T) {
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}

	var captured string
	handler := Identity(jwtCfg, guestTestConfig(), stubSessionVerifier{ok: true}, &stubGuestToucher{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GuestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "guest_id", Value: "guest-123"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if captured != "guest-123" {
		t.Fatalf("expected guest-123 got %s", captured)
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("expected no new cookie when one was presented")
	}
}

func TestIdentityPrefersAuthenticatedUser(t *testing.T) {
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	token := mintTestToken(t, jwtCfg, enums.UserRoleUser, nil)
	guests := &stubGuestToucher{}

	var user, guest string
	handler := Identity(jwtCfg, guestTestConfig(), stubSessionVerifier{ok: true}, guests, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = UserIDFromContext(r.Context())
		guest = GuestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.AddCookie(&http.Cookie{Name: "guest_id", Value: "guest-123"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if user == "" {
		t.Fatal("expected user id in context")
	}
	if guest != "" {
		t.Fatalf("expected no guest id for logged-in user, got %s", guest)
	}
	if len(guests.touched) != 0 {
		t.Fatalf("expected no guest touch, got %v", guests.touched)
	}
}

func TestIdentityRejectsBadToken(t *testing.T) {
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := Identity(jwtCfg, guestTestConfig(), stubSessionVerifier{ok: true}, &stubGuestToucher{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
