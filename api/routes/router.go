package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handcrafted-haven/marketplace-backend/api/controllers"
	"github.com/handcrafted-haven/marketplace-backend/api/middleware"
	authsvc "github.com/handcrafted-haven/marketplace-backend/internal/auth"
	cartsvc "github.com/handcrafted-haven/marketplace-backend/internal/cart"
	checkoutsvc "github.com/handcrafted-haven/marketplace-backend/internal/checkout"
	orderssvc "github.com/handcrafted-haven/marketplace-backend/internal/orders"
	productssvc "github.com/handcrafted-haven/marketplace-backend/internal/products"
	reviewssvc "github.com/handcrafted-haven/marketplace-backend/internal/reviews"
	userssvc "github.com/handcrafted-haven/marketplace-backend/internal/users"
	pkgcache "github.com/handcrafted-haven/marketplace-backend/pkg/cache"
	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
	"github.com/handcrafted-haven/marketplace-backend/pkg/metrics"
	"github.com/handcrafted-haven/marketplace-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	Purger      *pkgcache.Purger
	RedisClient *redis.Client

	DBPinger      controllers.Pinger
	RedisPinger   controllers.Pinger
	StoragePinger controllers.Pinger

	Sessions middleware.SessionValidator

	AuthService     authsvc.Service
	UserService     userssvc.Service
	ProductService  productssvc.Service
	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	OrderService    orderssvc.Service
	ReviewService   reviewssvc.Service
}

// NewRouter builds the HTTP surface: public storefront reads, auth, and the
// authenticated buyer and seller routes.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(deps.Metrics),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger, deps.StoragePinger))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RedisClient, logg)).
			Post("/login", controllers.Login(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RedisClient, logg)).
			Post("/register", controllers.Register(deps.UserService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
			Post("/logout", controllers.Logout(deps.AuthService, logg))
	})

	// Public storefront reads.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.CatalogList(deps.ProductService, logg))
		r.Get("/{productID}", controllers.ProductDetail(deps.ProductService, logg))
		r.Get("/{productID}/reviews", controllers.ReviewList(deps.ReviewService, logg))
	})
	r.Get("/api/v1/sellers/{sellerID}", controllers.SellerProfile(deps.UserService, deps.ProductService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.CartService, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartService, deps.Purger, deps.Metrics, logg))
			r.Patch("/items/{itemID}", controllers.CartSetItemQuantity(deps.CartService, deps.Purger, deps.Metrics, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(deps.CartService, deps.Purger, deps.Metrics, logg))
		})

		r.Post("/checkout", controllers.CheckoutPlaceOrder(deps.CheckoutService, deps.Purger, deps.Metrics, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderHistory(deps.OrderService, logg))
			r.Get("/{orderID}", controllers.OrderDetail(deps.OrderService, logg))
		})

		r.Post("/products/{productID}/reviews", controllers.ReviewSubmit(deps.ReviewService, deps.Purger, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(deps.UserService, logg))
			r.Patch("/", controllers.ProfileUpdate(deps.UserService, cfg.Media, logg))
			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.UserService, logg))
				r.Post("/", controllers.AddressAdd(deps.UserService, logg))
				r.Delete("/{addressID}", controllers.AddressRemove(deps.UserService, logg))
			})
		})

		r.Route("/dashboard/products", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleSeller, logg))
			r.Get("/", controllers.SellerProductList(deps.ProductService, logg))
			r.Post("/", controllers.SellerProductCreate(deps.ProductService, deps.Purger, cfg.Media, logg))
			r.Patch("/{productID}", controllers.SellerProductUpdate(deps.ProductService, deps.Purger, logg))
			r.Delete("/{productID}", controllers.SellerProductDelete(deps.ProductService, deps.Purger, logg))
			r.Post("/{productID}/images", controllers.SellerProductAddImages(deps.ProductService, deps.Purger, cfg.Media, logg))
			r.Delete("/{productID}/images/{imageID}", controllers.SellerProductRemoveImage(deps.ProductService, deps.Purger, logg))
		})
	})

	return r
}
