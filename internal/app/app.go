package app

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kvateru/storefront/db"
	"github.com/kvateru/storefront/internal/domain/cart"
	"github.com/kvateru/storefront/internal/domain/catalog"
	"github.com/kvateru/storefront/internal/domain/order"
	"github.com/kvateru/storefront/internal/domain/promo"
	"github.com/kvateru/storefront/internal/domain/user"
	"github.com/kvateru/storefront/internal/handler"
	"github.com/kvateru/storefront/internal/storage/postgres"
	"github.com/kvateru/storefront/pkg/health"
	"github.com/kvateru/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Product catalog: one load at startup. A failed load leaves the cache
	// empty, so every product resolution fails until the next deploy or
	// reload; the server still comes up.
	catalogCache := catalog.NewCache(&catalog.FeedSource{
		URL:    cfg.CatalogFeedURL,
		Client: &http.Client{Timeout: 30 * time.Second},
	})
	if err := catalogCache.Reload(ctx); err != nil {
		lg.Warn("Catalog load failed, starting with an empty catalog", zap.Error(err))
	} else {
		lg.Info("Catalog loaded", zap.Int("products", catalogCache.Len()))
	}

	// Promotions: fixed at deploy time, embedded defaults or override file.
	promoTable, err := loadPromotions(cfg.PromotionsFile)
	if err != nil {
		return errors.Wrap(err, "load promotions")
	}
	lg.Info("Promotions loaded",
		zap.Int("coupons", len(promoTable.Coupons())),
		zap.Int("shipping_options", len(promoTable.ShippingOptions())),
	)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadiness("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLiveness("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	userRepo := postgres.NewUserRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	// Domain services.
	resolver := user.NewResolver(userRepo)
	cartService := cart.NewService(catalogCache, cartRepo)
	quoter := order.NewQuoter(catalogCache, promoTable)
	orderService := order.NewService(quoter, orderRepo)

	// HTTP handlers.
	h := handler.New(
		handler.Config{BasePath: "/api", AuthSecret: []byte(cfg.AuthSecret)},
		resolver,
		cartService,
		orderService,
		promoTable,
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m),
			httpmiddleware.LogRequests(),
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

// loadPromotions parses the promotions document: the override file when one
// is configured, otherwise the embedded defaults.
func loadPromotions(path string) (*promo.Table, error) {
	data := db.Promotions
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read promotions file %s", path)
		}
	}
	return promo.ParseTable(data)
}
