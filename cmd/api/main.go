package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/handcrafted-haven/marketplace-backend/api/routes"
	authsvc "github.com/handcrafted-haven/marketplace-backend/internal/auth"
	cartsvc "github.com/handcrafted-haven/marketplace-backend/internal/cart"
	checkoutsvc "github.com/handcrafted-haven/marketplace-backend/internal/checkout"
	orderssvc "github.com/handcrafted-haven/marketplace-backend/internal/orders"
	productssvc "github.com/handcrafted-haven/marketplace-backend/internal/products"
	reviewssvc "github.com/handcrafted-haven/marketplace-backend/internal/reviews"
	userssvc "github.com/handcrafted-haven/marketplace-backend/internal/users"
	"github.com/handcrafted-haven/marketplace-backend/pkg/auth/session"
	"github.com/handcrafted-haven/marketplace-backend/pkg/cache"
	"github.com/handcrafted-haven/marketplace-backend/pkg/config"
	"github.com/handcrafted-haven/marketplace-backend/pkg/db"
	"github.com/handcrafted-haven/marketplace-backend/pkg/logger"
	"github.com/handcrafted-haven/marketplace-backend/pkg/metrics"
	"github.com/handcrafted-haven/marketplace-backend/pkg/migrate"
	"github.com/handcrafted-haven/marketplace-backend/pkg/redis"
	"github.com/handcrafted-haven/marketplace-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, dbClient.DB(), logg); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	sessions := session.NewManager(redisClient, cfg.JWT.SessionTTL())
	purger := cache.NewPurger(redisClient, logg)
	m := metrics.New()

	userRepo := userssvc.NewRepository(dbClient.DB())
	productRepo := productssvc.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())
	checkoutRepo := checkoutsvc.NewRepository(dbClient.DB())
	orderRepo := orderssvc.NewRepository(dbClient.DB())
	reviewRepo := reviewssvc.NewRepository(dbClient.DB())

	authService, err := authsvc.NewService(userRepo, sessions, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	userService, err := userssvc.NewService(userRepo, dbClient, gcsClient, logg, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}
	productService, err := productssvc.NewService(productRepo, dbClient, gcsClient, logg, cfg.Media.MaxImagesPerProduct)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(cartRepo, dbClient, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(checkoutRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	orderService, err := orderssvc.NewService(orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}
	reviewService, err := reviewssvc.NewService(reviewRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Metrics:     m,
		Purger:      purger,
		RedisClient: redisClient,

		DBPinger:      dbClient,
		RedisPinger:   redisClient,
		StoragePinger: gcsClient,

		Sessions: authsvc.SessionChecker{Manager: sessions},

		AuthService:     authService,
		UserService:     userService,
		ProductService:  productService,
		CartService:     cartService,
		CheckoutService: checkoutService,
		OrderService:    orderService,
		ReviewService:   reviewService,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
