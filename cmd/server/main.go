// Command server runs the superchat backend: the REST API, the payment
// webhook endpoint, and the websocket feed, over a single SQLite database.
//
// @title           Superchat Backend API
// @version         1.0
// @description     Payment-gated broadcast messaging: paid superchats and free messages in one live feed.
// @BasePath        /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	_ "github.com/streamverse/superchat-backend/docs"
	"github.com/streamverse/superchat-backend/internal/config"
	"github.com/streamverse/superchat-backend/internal/gateway"
	httpapi "github.com/streamverse/superchat-backend/internal/http"
	"github.com/streamverse/superchat-backend/internal/http/handlers"
	"github.com/streamverse/superchat-backend/internal/observability"
	"github.com/streamverse/superchat-backend/internal/realtime"
	"github.com/streamverse/superchat-backend/internal/reconcile"
	"github.com/streamverse/superchat-backend/internal/repo"
	"github.com/streamverse/superchat-backend/internal/services"
	"github.com/streamverse/superchat-backend/internal/sysutil"
	"github.com/streamverse/superchat-backend/internal/tiers"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	// Tracing
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	// Tier table
	tierTab := tiers.Default()
	if cfg.TierTable != "" {
		tierTab, err = tiers.Parse(cfg.TierTable)
		if err != nil {
			log.Fatal().Err(err).Msg("TIER_TABLE invalid")
		}
	}

	// Gateway client
	gw := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		KeyID:     cfg.Gateway.KeyID,
		APISecret: cfg.Gateway.APISecret,
		Currency:  cfg.Gateway.Currency,
		ReturnURL: cfg.Gateway.ReturnURL,
		NotifyURL: cfg.Gateway.NotifyURL,
		Timeout:   cfg.Gateway.Timeout,
	})

	// Realtime fabric and services
	hub := realtime.NewHub(log.With().Str("component", "hub").Logger())

	paySvc := &services.PaymentService{
		DB:            db,
		Gateway:       gw,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Hub:           hub,
	}
	poller := &reconcile.Poller{
		Payments: paySvc,
		Interval: cfg.PollInterval,
		Timeout:  cfg.PollTimeout,
		Log:      log.With().Str("component", "poller").Logger(),
	}
	poller.Start(ctx)
	defer poller.Stop()

	orderSvc := &services.OrderService{
		DB:      db,
		Gateway: gw,
		Tiers:   tierTab,
		Watch:   poller.Watch,
	}
	msgSvc := &services.MessageService{DB: db, Hub: hub}

	// Sweep orders the gateway and webhook both forgot about.
	go sweepStaleOrders(ctx, db, cfg.OrderTTL)

	// HTTP
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	h := handlers.New(orderSvc, paySvc, msgSvc, tierTab)
	ws := handlers.NewWSHandler(hub, msgSvc, log.With().Str("component", "ws").Logger())
	httpapi.RegisterRoutes(r, cfg, h, ws)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// sweepStaleOrders periodically expires orders that never settled: the payer
// abandoned checkout, the webhook never came, and the poller ceiling passed.
// The sweep interval is a tenth of the TTL so an order is expired at most
// about 10% late.
func sweepStaleOrders(ctx context.Context, db *gorm.DB, ttl time.Duration) {
	interval := ttl / 10
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.ExpireStaleOrders(ctx, db, time.Now().UTC().Add(-ttl))
			if err != nil {
				log.Warn().Err(err).Msg("stale order sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("expired", n).Msg("stale orders expired")
			}
		}
	}
}
