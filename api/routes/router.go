package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onmall/onmall-backend/api/controllers"
	"github.com/onmall/onmall-backend/api/middleware"
	"github.com/onmall/onmall-backend/internal/auth"
	"github.com/onmall/onmall-backend/internal/cart"
	"github.com/onmall/onmall-backend/internal/categories"
	"github.com/onmall/onmall-backend/internal/kyc"
	"github.com/onmall/onmall-backend/internal/media"
	"github.com/onmall/onmall-backend/internal/products"
	"github.com/onmall/onmall-backend/internal/vendors"
	"github.com/onmall/onmall-backend/pkg/auth/session"
	"github.com/onmall/onmall-backend/pkg/config"
	"github.com/onmall/onmall-backend/pkg/db"
	"github.com/onmall/onmall-backend/pkg/enums"
	"github.com/onmall/onmall-backend/pkg/logger"
	"github.com/onmall/onmall-backend/pkg/metrics"
	"github.com/onmall/onmall-backend/pkg/redis"
	"github.com/onmall/onmall-backend/pkg/storage/cloudinary"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	mediaPinger cloudinary.Pinger,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	sessionManager session.AccessSessionChecker,
	authService auth.Service,
	cartService cart.Service,
	kycService kyc.Service,
	vendorService vendors.Service,
	productService products.Service,
	categoryService categories.Service,
	mediaBroker media.Broker,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, mediaPinger))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(authService, logg))
		r.Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
	})

	// Storefront browse endpoints stay anonymous.
	r.Get("/api/v1/products", controllers.ProductList(productService, logg))
	r.Get("/api/v1/products/{slug}", controllers.ProductBySlug(productService, logg))
	r.Get("/api/v1/categories", controllers.CategoryList(categoryService, logg))

	// The cart works for guests and logged-in users alike; the identity
	// middleware mints the guest cookie on first contact.
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, cfg.Guest, sessionManager, redisClient, logg))
		r.Get("/", controllers.CartFetch(cartService, logg))
		r.Post("/", controllers.CartAddItem(cartService, logg))
		r.Patch("/", controllers.CartSetItemQuantity(cartService, logg))
		r.Delete("/", controllers.CartRemove(cartService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Post("/media/upload", controllers.MediaUpload(mediaBroker, logg))

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", controllers.VendorRegister(vendorService, logg))
			r.Get("/me", controllers.VendorProfile(vendorService, logg))
			r.Put("/me", controllers.VendorUpdate(vendorService, logg))
			r.Route("/me/products", func(r chi.Router) {
				r.Post("/", controllers.VendorCreateProduct(productService, logg))
				r.Patch("/{productId}", controllers.VendorUpdateProduct(productService, logg))
				r.Delete("/{productId}", controllers.VendorDeleteProduct(productService, logg))
			})
		})

		r.Route("/kyc", func(r chi.Router) {
			r.Post("/documents", controllers.KYCUploadDocument(kycService, logg))
			r.Get("/documents", controllers.KYCListDocuments(kycService, logg))
			r.Delete("/documents/{documentId}", controllers.KYCDeleteDocument(kycService, logg))
			r.Post("/signed-url", controllers.KYCSignedURL(kycService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", controllers.AdminVendorList(vendorService, logg))
			r.Post("/{vendorId}/approval", controllers.AdminVendorApproval(vendorService, logg))
			r.Post("/{vendorId}/kyc/status", controllers.AdminKYCStatus(kycService, logg))
		})

		r.Get("/kyc/preview", controllers.AdminKYCPreview(kycService, logg))

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(categoryService, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(categoryService, logg))
		})
	})

	return r
}
