package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-status/cache"
	shttp "github.com/radieske/race-bet-platform/internal/race-status/http"
	"github.com/radieske/race-bet-platform/internal/race-status/repo"
	"github.com/radieske/race-bet-platform/internal/race-status/ws"
	sharedcache "github.com/radieske/race-bet-platform/internal/shared/cache"
	"github.com/radieske/race-bet-platform/internal/shared/config"
	"github.com/radieske/race-bet-platform/internal/shared/db"
	"github.com/radieske/race-bet-platform/internal/shared/logger"
	"github.com/radieske/race-bet-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "race-status-service"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// WebSocket: o worker publica no canal Redis e o hub repassa aos inscritos
	hub := ws.NewHub(log, func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, log, redisClient, cfg.RedisPubSubChannel, hub)

	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "race_status_cache_hits_total", Help: "rateios servidos do cache"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{Name: "race_status_cache_misses_total", Help: "rateios lidos do banco"})
	prometheus.MustRegister(hits, misses)

	api := &shttp.API{
		Log:         log,
		ReadRepo:    &repo.ReadRepo{DB: pg},
		Cache:       cache.New(redisClient),
		TTL:         cfg.PayoutCacheTTL,
		WS:          hub.HandleWS,
		OnCacheHit:  hits.Inc,
		OnCacheMiss: misses.Inc,
	}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})

	go func() {
		log.Info("race-status-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("race-status-service stopped")
}
