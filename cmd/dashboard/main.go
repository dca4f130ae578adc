package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeMC777/pedidos-live/internal/config"
	"github.com/MikeMC777/pedidos-live/internal/engine"
	"github.com/MikeMC777/pedidos-live/internal/gateway"
	"github.com/MikeMC777/pedidos-live/internal/push"
	"github.com/MikeMC777/pedidos-live/internal/status"
)

// dashboard keeps the order store of one business synchronized: initial
// snapshot over REST, then push events over SSE or Kafka. The engine and
// its collaborators are wired here, never through globals.
func main() {
	cfg := config.Load()
	if cfg.BusinessID == "" {
		log.Fatal("[dashboard] BUSINESS_ID is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scope := push.Scope{Kind: push.ScopeBusiness, ID: cfg.BusinessID}
	metrics := engine.NewMetrics()
	eng := engine.New(
		gateway.NewClient(cfg.APIBaseURL),
		scope,
		engine.WithCancelPolicy(status.ParseCancelPolicy(cfg.CancelPolicy)),
		engine.WithMetrics(metrics),
	)

	loadCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := eng.Load(loadCtx)
	cancel()
	if err != nil {
		// stale-but-present beats empty; with nothing loaded yet we still
		// start and let push events fill the store
		log.Printf("[dashboard] initial load failed: %v", err)
	}
	log.Printf("[dashboard] scope=%s orders=%d active=%d",
		scope.Room(), eng.Count(), len(eng.Active()))

	var channel push.Channel
	switch cfg.PushTransport {
	case "kafka":
		channel = push.NewKafkaChannel(cfg.KafkaBrokers, cfg.KafkaTopic, "dashboard-"+cfg.BusinessID)
	default:
		channel = push.NewSSEChannel(cfg.APIBaseURL)
	}

	go func() {
		if err := eng.Run(ctx, channel); err != nil && ctx.Err() == nil {
			log.Printf("[dashboard] push channel: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		log.Printf("dashboard metrics listening on %s", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[dashboard] metrics server: %v", err)
		}
	}()

	<-ctx.Done()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutCtx)
}
