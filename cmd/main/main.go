package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"catalog-recon/internal/config"
	"catalog-recon/internal/metrics"
	"catalog-recon/internal/reconcile/rules"
	recSvc "catalog-recon/internal/reconcile/service"
	"catalog-recon/internal/store"
	serverhttp "catalog-recon/server/http"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	rs := rules.Default()
	if cfg.RulesFile != "" {
		var err error
		if rs, err = rules.Load(cfg.RulesFile); err != nil {
			logger.Fatal().Err(err).Str("file", cfg.RulesFile).Msg("load rules")
		}
	}

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("db", cfg.DBPath).Msg("open store")
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	engine := recSvc.NewEngine(rs, st, logger, recSvc.WithRecorder(m))
	r := serverhttp.NewRouter(cfg, engine, m, reg, logger)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r, ReadHeaderTimeout: 10 * time.Second}
	logger.Info().Str("addr", cfg.Addr()).Str("db", cfg.DBPath).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
