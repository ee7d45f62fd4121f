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

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/contratpro/internal/auth"
	"github.com/nurpe/contratpro/internal/catalog"
	"github.com/nurpe/contratpro/internal/checkout"
	"github.com/nurpe/contratpro/internal/config"
	"github.com/nurpe/contratpro/internal/db"
	"github.com/nurpe/contratpro/internal/excel"
	"github.com/nurpe/contratpro/internal/gateway"
	httphandler "github.com/nurpe/contratpro/internal/http"
	"github.com/nurpe/contratpro/internal/http/middleware"
	"github.com/nurpe/contratpro/internal/logger"
	"github.com/nurpe/contratpro/internal/pdf"
	"github.com/nurpe/contratpro/internal/repository"
	"github.com/nurpe/contratpro/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	// amounts and percentages go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	userRepo := repository.NewUserRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	cat := catalog.New(cfg.Payment.PremiumPrice)

	tokens := auth.NewTokens(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)
	authService := auth.NewService(userRepo, tokens, cfg.Auth.MinSecretLength, log)

	gw := gateway.NewBreaker(newGateway(cfg, log), gateway.BreakerConfig{
		ConsecutiveFailures: cfg.Payment.BreakerFailures,
		OpenTimeout:         cfg.Payment.BreakerOpenTimeout,
	}, log)

	mailbox := checkout.NewMailbox()
	checkoutService := checkout.NewService(checkout.Deps{
		Store:     checkout.NewCacheStore(cfg.Checkout.SessionTTL),
		Options:   cat,
		Identity:  auth.ContextIdentity{},
		Initiator: gw,
		Verifier:  gw,
		Recorder:  paymentRepo,
		Mailbox:   mailbox,
	}, checkout.Config{
		SettleTimeout: cfg.Checkout.SettleTimeout,
		Currency:      cfg.Payment.Currency,
	}, log)

	contractService := service.NewContractService(cat, paymentRepo, pdf.NewGenerator(), excel.NewGenerator(), log)

	if err := httphandler.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}
	handler := httphandler.NewHandler(httphandler.Deps{
		Contracts: contractService,
		Checkout:  checkoutService,
		Auth:      authService,
		Catalog:   cat,
		Mailbox:   mailbox,
	}, cfg.Checkout.ResultWait, log)
	router := httphandler.NewRouter(handler, middleware.Auth(authService), middleware.OptionalAuth(authService), httphandler.RouterConfig{
		Environment: cfg.Environment,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	}, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      max(cfg.Checkout.ResultWait, cfg.Checkout.SettleTimeout) + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("gateway", cfg.Payment.Gateway).Msg("starting contratpro")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	// let in-flight settlements finish
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Checkout.SettleTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		os.Exit(1)
	}
}

func newGateway(cfg *config.Config, log zerolog.Logger) gateway.Gateway {
	if cfg.Payment.Gateway == config.GatewayHTTP {
		return gateway.NewClient(gateway.ClientConfig{
			BaseURL:  cfg.Payment.GatewayURL,
			APIKey:   cfg.Payment.GatewayAPIKey,
			Timeout:  cfg.Payment.GatewayTimeout,
			RetryMax: cfg.Payment.GatewayRetryMax,
		}, log)
	}
	return gateway.NewStub(cfg.Payment.StubInitiateDelay, cfg.Payment.StubVerifyDelay, log)
}
