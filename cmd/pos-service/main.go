package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/pos-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/sequence"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/sessions"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New("pos-service", cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("pos-service stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return err
		}
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	orderRepo := order.NewPostgresRepository(pool)
	customers := customer.NewRepository(pool)

	// Redis is optional: without it the catalog is uncached and sessions
	// live only in memory.
	var (
		catalogCache catalog.Cache
		snapshots    sessions.SnapshotStore
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		catalogCache = catalog.NewRedisCache(rdb, cfg.CatalogCacheTTL)
		snapshots = sessions.NewRedisSnapshotStore(rdb, cfg.SessionTTL)
	} else {
		logger.Warn("REDIS_ADDR not set; catalog cache and session persistence disabled")
	}
	catalogSvc := catalog.NewService(catalog.NewPostgresRepository(pool), catalogCache, logger)

	// Remote data service for submissions
	var (
		data        pos.DataService = orderRepo
		orderLookup                 = orderRepo.GetByID
	)
	if cfg.DataBackend == config.BackendHTTP {
		oc := clients.NewOrderClient(clients.NewClient("data-api", cfg.DataAPIURL, clients.NewHTTPClient(cfg.UpstreamTimeout)))
		data = oc
		orderLookup = oc.GetOrder
	}
	logger.Info("data backend selected", zap.String("backend", cfg.DataBackend))

	// RabbitMQ is optional: without it no events are published.
	var (
		checkoutOpts []pos.CheckoutOption
		abandoned    httpapi.AbandonNotifier
	)
	if cfg.RabbitURL != "" {
		conn, err := events.Dial(cfg.RabbitURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn)
		if err != nil {
			return err
		}
		defer pub.Close()

		sqlDB, err := db.OpenSQL(ctx, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		notifier := events.NewNotifier(pub, sequence.NewRepository(sqlDB), logger)
		checkoutOpts = append(checkoutOpts, pos.WithNotifier(notifier))
		abandoned = notifier
	} else {
		logger.Warn("RABBITMQ_URL not set; order events disabled")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:      logger,
		Cfg:         cfg,
		Sessions:    sessions.NewRegistry(snapshots, cfg.Clinic.TaxRate, logger),
		Checkout:    pos.NewCheckout(data, logger, checkoutOpts...),
		Catalog:     catalogSvc,
		Customers:   customers,
		Orders:      orderRepo,
		OrderLookup: orderLookup,
		Abandoned:   abandoned,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "pos-service"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}
