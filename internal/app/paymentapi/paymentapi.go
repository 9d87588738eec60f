package paymentapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/eltawla-payments/internal/cache"
	"github.com/magabrotheeeer/eltawla-payments/internal/config"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/handlers/health"
	"github.com/magabrotheeeer/eltawla-payments/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/jwt"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/metrics"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/migrations"
	"github.com/magabrotheeeer/eltawla-payments/internal/paymentprovider"
	"github.com/magabrotheeeer/eltawla-payments/internal/services/paymenthistory"
	"github.com/magabrotheeeer/eltawla-payments/internal/services/paymentmethods"
	"github.com/magabrotheeeer/eltawla-payments/internal/services/paymentprocessor"
	"github.com/magabrotheeeer/eltawla-payments/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP сервер платежей со всеми внешними подключениями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключается к базе, применяет миграции и собирает сервисы.
// Redis и RabbitMQ необязательны: без них нет повторов по ключу идемпотентности
// и событий для чеков.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "paymentapi.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	version, dirty, err := migrations.Version(db.DB, cfg.MigrationsPath)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if dirty {
		app.close()
		return nil, fmt.Errorf("%s: schema version %d is dirty", op, version)
	}
	logger.Info("schema is up to date", slog.Uint64("version", uint64(version)))

	if err = storage.CheckDatabaseReady(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	checks := map[string]health.Pinger{"postgres": db}

	var store paymentprocessor.IdempotencyStore
	if cfg.AddressRedis != "" {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		store = app.cache
		checks["redis"] = app.cache
	} else {
		logger.Warn("redis address not set, idempotent replays disabled")
	}

	var publisher paymentprocessor.Publisher
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.ExchangePayments, rabbitmq.PaymentQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewPublisher(app.ch, rabbitmq.ExchangePayments)
	} else {
		logger.Warn("rabbitmq url not set, payment events disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	gateway := paymentprovider.NewClient(cfg.Provider, cfg.APIURL, cfg.SecretKey, cfg.GatewayTimeout)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Dependencies{
		Methods:     paymentmethods.New(db, gateway, m, logger),
		Payments:    paymentprocessor.New(db, gateway, store, publisher, m, cfg.IdempotencyTTL, logger),
		History:     paymenthistory.New(db, logger),
		Tokens:      jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		RateLimiter: middlewarectx.NewRateLimiter(cfg.RateLimit),
		Requests:    m,
		Gatherer:    registry,
		Health:      checks,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP + cfg.GatewayTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
