package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/noid254/nikosoko/internal/authgate"
	"github.com/noid254/nikosoko/internal/http/handlers"
	httpmw "github.com/noid254/nikosoko/internal/http/middleware"
	"github.com/noid254/nikosoko/internal/payments"
	"github.com/noid254/nikosoko/internal/platform/sms"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/repo/memory"
	"github.com/noid254/nikosoko/internal/repo/postgres"
	"github.com/noid254/nikosoko/internal/seed"
	"github.com/noid254/nikosoko/internal/service"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/cache"
	"github.com/noid254/nikosoko/pkg/config"
	"github.com/noid254/nikosoko/pkg/database"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/logger"
	"github.com/noid254/nikosoko/pkg/metrics"
	mw "github.com/noid254/nikosoko/pkg/middleware"
)

const idempotencyCleanupInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the marketplace HTTP API on PORT.

Stores are chosen from the environment:
  PROVIDER_STORE=memory|postgres  provider directory
  SESSION_STORE=memory|redis      sessions, rate limits and idempotency
  NATS_URL                        domain events (in-process when empty)
  PAYMENTS_PROVIDER=mock|stripe   ticket payments`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := seed.Load(seedPath(cfg))
	if err != nil {
		return err
	}
	store, err := memory.NewStore(ctx, data)
	if err != nil {
		return err
	}

	var providers repo.ProviderRepository = store.Providers
	var idempotency mw.IdempotencyStore = cache.NewMemoryIdempotencyStore()
	var counter httpmw.Counter = cache.NewMemoryCounter()
	var pgIdempotency *postgres.IdempotencyRepo

	if cfg.Store.ProviderDriver == config.DriverPostgres {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		pgProviders := postgres.NewProvidersRepo(pool)
		if err := seedProviders(ctx, pgProviders, data, false); err != nil {
			return err
		}
		pgIdempotency = postgres.NewIdempotencyRepo(pool)
		if err := pgIdempotency.Migrate(ctx); err != nil {
			return err
		}
		providers = pgProviders
		idempotency = pgIdempotency
	}

	var sessions session.Store = session.NewMemoryStore(cfg.Auth.SessionTTL)
	if cfg.Store.SessionDriver == config.DriverRedis {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, cfg.Auth.SessionTTL)
		idempotency = cache.NewRedisIdempotencyStore(rdb)
		counter = cache.NewRedisCounter(rdb)
	}

	bus, err := newEventBus(cfg.NATS)
	if err != nil {
		return err
	}
	defer bus.Close()

	sender := newSender(cfg.SMS)
	m := metrics.New()
	gate := authgate.New(authgate.Config{
		Mode:            cfg.Auth.OtpMode,
		FixedCode:       cfg.Auth.OtpFixedCode,
		MaxAttempts:     cfg.Auth.OtpMaxAttempts,
		SendTimeout:     cfg.Auth.OtpSendTimeout,
		CodeTTL:         cfg.Auth.OtpCodeTTL,
		SuperadminPhone: cfg.Auth.SuperadminPhone,
	}, sender)

	svc := handlers.Services{
		Auth:       service.NewAuthService(sessions, providers, gate, data.UserTickets, bus, m, cfg.Auth),
		Directory:  service.NewDirectoryService(sessions, providers, store.Categories, store.Banners, store.Catalogue, bus, m),
		Contacts:   service.NewContactService(sessions, providers, bus, m),
		Navigation: service.NewNavigationService(sessions),
		Admin:      service.NewAdminService(sessions, providers, store.Catalogue, store.Categories, bus, m),
		Banners:    service.NewBannerService(sessions, store.Banners, providers),
		Gatepass:   service.NewGatepassService(sessions, store.Invitations, bus, m),
		Events:     service.NewEventService(sessions, store.Events, newGateway(cfg.Payments), sender, cfg.Payments.Currency, bus, m),
		Catalogue:  service.NewCatalogueService(sessions, providers, store.Catalogue),
		Documents:  service.NewDocumentService(sessions, store.Documents),
		Inbox:      service.NewInboxService(sessions, store.Inbox),
	}
	if err := service.SubscribeBroadcasts(bus, svc.Inbox); err != nil {
		return fmt.Errorf("failed to subscribe to broadcasts: %w", err)
	}

	h := handlers.New(svc, handlers.Options{
		JWTSecret:   cfg.Auth.JWTSecret,
		Idempotency: idempotency,
		Limiter:     counter,
		OtpLimit:    cfg.Server.OtpRateLimit,
		StartLimit:  cfg.Server.SessionRateLimit,
		LimitWindow: cfg.Server.RateLimitWindow,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("nikosoko"))
	r.Use(mw.Recover)
	r.Use(mw.Logging)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics(m))
	r.Mount("/v1", h.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting nikosoko service",
			"port", cfg.Server.Port,
			"provider_store", cfg.Store.ProviderDriver,
			"session_store", cfg.Store.SessionDriver,
			"payments", cfg.Payments.Provider,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down nikosoko service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if pgIdempotency != nil {
		g.Go(func() error {
			ticker := time.NewTicker(idempotencyCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					n, err := pgIdempotency.CleanupExpired(gctx)
					if err != nil {
						logger.Warn("Idempotency cleanup failed", "error", err)
						continue
					}
					logger.Debug("Idempotency keys expired", "count", n)
				}
			}
		})
	}
	return g.Wait()
}

func seedPath(cfg *config.Config) string {
	if seedFile != "" {
		return seedFile
	}
	return cfg.Store.SeedFile
}

func newEventBus(cfg config.NATSConfig) (events.EventBus, error) {
	if cfg.URL == "" {
		logger.Info("NATS_URL not set, delivering events in-process")
		return events.NewMemoryEventBus(256), nil
	}
	return events.NewNATSEventBus(cfg.URL)
}

func newSender(cfg config.SMSConfig) sms.Sender {
	if cfg.DevMode || cfg.MailerSendKey == "" {
		return sms.NewDevSender()
	}
	return sms.NewMailerSend(cfg.MailerSendKey, cfg.From)
}

func newGateway(cfg config.PaymentsConfig) payments.Gateway {
	if cfg.Provider == config.PaymentsStripe && cfg.StripeSecretKey != "" {
		return payments.NewStripeGateway(cfg.StripeSecretKey)
	}
	return payments.NewMockGateway()
}
