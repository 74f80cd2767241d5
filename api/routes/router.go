package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshkart-labs/freshkart-backend/api/controllers"
	"github.com/freshkart-labs/freshkart-backend/api/middleware"
	"github.com/freshkart-labs/freshkart-backend/internal/auth"
	"github.com/freshkart-labs/freshkart-backend/internal/cart"
	"github.com/freshkart-labs/freshkart-backend/internal/catalog"
	checkoutsvc "github.com/freshkart-labs/freshkart-backend/internal/checkout"
	"github.com/freshkart-labs/freshkart-backend/internal/notifications"
	"github.com/freshkart-labs/freshkart-backend/internal/orders"
	"github.com/freshkart-labs/freshkart-backend/internal/verification"
	"github.com/freshkart-labs/freshkart-backend/internal/wishlist"
	"github.com/freshkart-labs/freshkart-backend/pkg/auth/session"
	"github.com/freshkart-labs/freshkart-backend/pkg/config"
	"github.com/freshkart-labs/freshkart-backend/pkg/db"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	"github.com/freshkart-labs/freshkart-backend/pkg/logger"
	"github.com/freshkart-labs/freshkart-backend/pkg/redis"
)

// RouterParams bundles every dependency the HTTP surface needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Auth     auth.Service
	Register auth.RegisterService
	Catalog  catalog.Service
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Wishlist wishlist.Service
	Notify   notifications.Service
	Verify   verification.Service
}

// NewRouter assembles the middleware chain and route tree.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Redis, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.Register, p.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(p.Auth, cfg.JWT, logg))
	})

	// Public storefront reads.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(p.Catalog, logg))
		r.Get("/{productId}", controllers.GetProduct(p.Catalog, logg))
	})
	r.Get("/api/v1/categories", controllers.ListCategories(p.Catalog, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.With(middleware.RequireRole(string(enums.UserRoleAdmin), logg)).
			Post("/categories", controllers.CreateCategory(p.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Post("/items", controllers.CartAddItem(p.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(p.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(p.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(p.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(p.Orders, logg))
			r.Post("/{orderId}/verification", controllers.VerifyOrder(p.Verify, logg))
			r.Get("/{orderId}/verification", controllers.ListVerificationRuns(p.Verify, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(p.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(p.Wishlist, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(p.Wishlist, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notify, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notify, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notify, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleSeller), logg))
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.SellerListProducts(p.Catalog, logg))
				r.Post("/", controllers.SellerCreateProduct(p.Catalog, logg))
				r.Patch("/{productId}", controllers.SellerUpdateProduct(p.Catalog, logg))
				r.Delete("/{productId}", controllers.SellerDeleteProduct(p.Catalog, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.SellerListOrders(p.Orders, logg))
				r.Post("/{orderId}/status", controllers.SellerAdvanceStatus(p.Orders, logg))
			})
		})
	})

	return r
}
