package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/conejoswing/restoeasy/internal/domain/auth"
	"github.com/conejoswing/restoeasy/internal/domain/channel"
	"github.com/conejoswing/restoeasy/internal/domain/inventory"
	"github.com/conejoswing/restoeasy/internal/domain/menu"
	"github.com/conejoswing/restoeasy/internal/domain/order"
	"github.com/conejoswing/restoeasy/internal/domain/payment"
	"github.com/conejoswing/restoeasy/internal/domain/receipt"
	"github.com/conejoswing/restoeasy/internal/handler"
	"github.com/conejoswing/restoeasy/internal/printer"
	"github.com/conejoswing/restoeasy/internal/storage/memory"
	"github.com/conejoswing/restoeasy/internal/storage/postgres"
	"github.com/conejoswing/restoeasy/internal/storage/redisstore"
	"github.com/conejoswing/restoeasy/pkg/health"
	"github.com/conejoswing/restoeasy/pkg/httpmiddleware"
)

const instrumentationName = "github.com/conejoswing/restoeasy"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Durable repositories and the catalog snapshot.
	menuRepo := postgres.NewMenuRepository(pool)
	inventoryRepo := postgres.NewInventoryRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)

	catalog, err := menu.LoadCatalog(ctx, menuRepo)
	if err != nil {
		return errors.Wrap(err, "load menu")
	}
	stock, err := inventory.LoadStock(ctx, inventoryRepo)
	if err != nil {
		return errors.Wrap(err, "load inventory")
	}
	rules, err := inventory.LoadRuleTable(ctx, inventoryRepo)
	if err != nil {
		return errors.Wrap(err, "load deduction rules")
	}
	lg.Info("Catalog loaded",
		zap.Int("menu_items", len(catalog.Items())),
		zap.Int("inventory_items", len(stock.Snapshot())),
		zap.Int("deduction_rules", rules.Len()),
	)

	// Session state and status notifications.
	var (
		store    channel.SessionStore
		notifier channel.Notifier
	)
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "connect redis")
		}
		defer func() { _ = rdb.Close() }()
		healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		store = redisstore.NewSessionStore(rdb, cfg.SessionTTL)
		notifier = redisstore.NewNotifier(rdb)
	} else {
		lg.Warn("Redis not configured, sessions are kept in memory")
		store = memory.NewSessionStore()
		notifier = memory.NewNotifier()
	}

	// Print subsystem.
	var prn receipt.Printer
	if cfg.AMQPURL != "" {
		p, err := printer.DialAMQP(cfg.AMQPURL, cfg.PrintExchange, lg.Named("printer"))
		if err != nil {
			return errors.Wrap(err, "connect amqp")
		}
		defer func() { _ = p.Close() }()
		healthSvc.AddReadinessCheck("amqp", time.Second, health.ConnCheck(p.Ping))
		prn = p
	} else {
		lg.Warn("AMQP not configured, print jobs are only logged")
		prn = printer.NewLogPrinter(lg.Named("printer"))
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	metrics, err := channel.NewMetrics(m.MeterProvider().Meter(instrumentationName))
	if err != nil {
		return errors.Wrap(err, "create metrics")
	}
	formatter := receipt.TextFormatter{Restaurant: cfg.Restaurant}
	deductor := inventory.NewDeductor(rules, stock, lg.Named("inventory"))
	registry := channel.NewRegistry(channel.Deps{
		Catalog:   catalog,
		Committer: order.NewCommitter(postgres.NewOrderCounter(pool)),
		Payments:  payment.NewService(ledgerRepo, deductor, formatter, prn, lg.Named("payment")),
		Formatter: formatter,
		Printer:   prn,
		Store:     store,
		Notifier:  notifier,
		Metrics:   metrics,
		Logger:    lg.Named("channel"),
	}, channel.Directory{
		Tables:   cfg.Channels.Tables,
		Counter:  cfg.Channels.Counter,
		Delivery: cfg.Channels.Delivery,
	})

	var authenticator *auth.Authenticator
	if cfg.Auth.Enabled {
		authenticator = auth.NewAuthenticator(postgres.NewAPIKeyRepository(pool), []byte(cfg.Auth.Pepper))
	} else {
		lg.Warn("Authentication disabled")
	}

	// HTTP handlers.
	h := handler.New(
		handler.Config{Location: loc},
		registry,
		catalog,
		stock,
		ledgerRepo,
		notifier,
		authenticator,
		m.TracerProvider().Tracer(instrumentationName),
	)

	// Router: health endpoints + API routes on one server.
	root := chi.NewRouter()
	root.Get("/livez", healthSvc.LiveEndpoint)
	root.Get("/readyz", healthSvc.ReadyEndpoint)
	root.Mount("/api", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(root,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.HeaderAPIKey, httpmiddleware.HeaderRequestID},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			func(next http.Handler) http.Handler {
				return otelhttp.NewHandler(next, "pos-api",
					otelhttp.WithTracerProvider(m.TracerProvider()),
					otelhttp.WithMeterProvider(m.MeterProvider()),
				)
			},
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
