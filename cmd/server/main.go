package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"modq/internal/config"
	"modq/internal/httpserver"
	"modq/internal/logging"
	"modq/internal/observability"
	"modq/internal/pages"
	"modq/internal/publisher/graph"
	"modq/internal/service"
	"modq/internal/store/jsonfile"
	"modq/internal/util"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadServer()
	logging.Init("modq", cfg.LogFormat)

	pageCfg, err := pages.Load(cfg.PagesFile, cfg.DefaultPageKey)
	if err != nil {
		slog.Error("page table load failed", "err", err, "file", cfg.PagesFile)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	st := jsonfile.New(cfg.StorePath, cfg.StoreLockTimeout)

	pub := &graph.Client{
		BaseURL: cfg.GraphBaseURL,
		HTTP:    &http.Client{Timeout: cfg.PublishTimeout},
		Limiter: rate.NewLimiter(rate.Limit(cfg.PublishRPS), cfg.PublishBurst),
		Breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "graph",
			MaxRequests: 3,
			Timeout:     20 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 10 },
		}),
	}

	svc := &service.Moderation{
		Store:     st,
		Pages:     pageCfg,
		Publisher: pub,
		IDGen:     util.NewSubmissionID,
	}

	s := httpserver.New(observability.APIRequests)
	(&httpserver.Webhook{Svc: svc}).Register(s.Mux)
	(&httpserver.API{Svc: svc}).Register(s.Mux)
	s.Mux.HandleFunc("/healthz", httpserver.Healthz())
	s.Mux.HandleFunc("/readyz", httpserver.Readyz(2*time.Second, func(ctx context.Context) error {
		_, err := st.Load(ctx)
		return err
	}))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s.Handler(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("server shutdown", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	slog.Info("server listening", "port", cfg.Port, "store", cfg.StorePath, "pages", len(pageCfg.Pages))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
