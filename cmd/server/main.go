package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"taskfeed/internal/api"
	"taskfeed/internal/app"
	"taskfeed/internal/auth"
	"taskfeed/internal/config"
	"taskfeed/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("taskfeed", "info").WithError(err).Fatal("load config")
	}
	log := logging.New("taskfeed", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.Open(ctx, cfg.Store, log)
	if err != nil {
		log.WithError(err).Fatal("open stores")
	}
	defer stores.Close()

	// Ensure tables exist
	if err := stores.EnsureTables(ctx); err != nil {
		log.WithError(err).Fatal("ensure tables")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	server := api.New(api.Options{
		Tasks:    stores.Service(log),
		Activity: stores.Activity,
		Users:    stores.Users,
		Tokens:   auth.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)),
		Log:      log,
		Registry: registry,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		// Requests inherit ctx so activity streams end on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithField("addr", httpServer.Addr).Info("taskfeed listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("listen")
	}
}
