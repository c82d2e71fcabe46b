// Package app wires storage, cache, domain services and the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/cache"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/order"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/handler"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/storage/memory"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/storage/postgres"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/pkg/health"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/pkg/httpmiddleware"
)

// repositories is the storage backend selected by Config.Storage.
type repositories struct {
	products   product.Repository
	categories product.CategoryRepository
	coupons    coupon.Repository
	orders     order.Repository
	tx         order.Transactor
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
		zap.String("cache", cfg.Cache.Driver),
	)

	healthSvc := health.New()

	repos, closeStorage, err := openStorage(ctx, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer closeStorage()

	store, closeCache, err := openCache(cfg.Cache, healthSvc)
	if err != nil {
		return err
	}
	defer closeCache()

	layer, err := cache.NewLayer(store, cache.Options{
		Timeout:       cfg.Cache.Timeout,
		MeterProvider: m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create cache layer")
	}

	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.AddInfoCheck("promo_stock", time.Second, health.LowWatermarkCheck("promotional item stock", 1,
		func(ctx context.Context) (int, error) {
			p, err := repos.products.GetByID(ctx, order.PromotionalProductID)
			if err != nil {
				return 0, err
			}
			return p.StockQuantity, nil
		},
	))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	productService := product.NewService(repos.products, repos.categories, layer)
	couponService := coupon.NewService(repos.coupons, layer)
	orderService, err := order.NewService(
		repos.products,
		couponService.Validator(),
		repos.orders,
		repos.tx,
		layer,
		order.WithTracerProvider(m.TracerProvider()),
		order.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(productService, couponService, orderService).Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:      cfg.RateLimit.Max,
				WriteMax: cfg.RateLimit.WriteMax,
				Window:   cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument("ttn-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func openStorage(ctx context.Context, cfg *Config, h *health.Health) (*repositories, func(), error) {
	if cfg.Storage == StorageMemory {
		zctx.From(ctx).Warn("Using in-memory storage, data is lost on exit")
		db := memory.New()
		return &repositories{
			products:   db.Products(),
			categories: db.Categories(),
			coupons:    db.Coupons(),
			orders:     db.Orders(),
			tx:         db,
		}, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}
	h.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool.Ping))

	return &repositories{
		products:   postgres.NewProductRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		coupons:    postgres.NewCouponRepository(pool),
		orders:     postgres.NewOrderRepository(pool),
		tx:         postgres.NewTransactor(pool),
	}, pool.Close, nil
}

// openCache builds the configured store. Redis is only reported on /readyz:
// reads fall through to storage while it is unreachable.
func openCache(cfg CacheConfig, h *health.Health) (cache.Store, func(), error) {
	switch cfg.Driver {
	case CacheRedis:
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		if cfg.RedisURL != "" {
			var err error
			if opts, err = redis.ParseURL(cfg.RedisURL); err != nil {
				return nil, nil, errors.Wrap(err, "parse redis url")
			}
		}
		client := redis.NewClient(opts)
		store := cache.NewRedisStore(client, cfg.TTL)
		h.AddInfoCheck("redis", time.Second, health.PingCheck(store.Ping))
		return store, func() { _ = client.Close() }, nil
	case CacheMemory:
		return cache.NewLRUStore(cfg.Size, cfg.TTL), func() {}, nil
	default:
		return cache.Nop{}, func() {}, nil
	}
}
