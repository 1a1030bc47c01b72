package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-events/cache"
	"github.com/radieske/race-bet-platform/internal/race-events/consumer"
	"github.com/radieske/race-bet-platform/internal/race-events/pubsub"
	"github.com/radieske/race-bet-platform/internal/race-events/repository"
	sharedcache "github.com/radieske/race-bet-platform/internal/shared/cache"
	"github.com/radieske/race-bet-platform/internal/shared/config"
	"github.com/radieske/race-bet-platform/internal/shared/db"
	"github.com/radieske/race-bet-platform/internal/shared/kafka"
	"github.com/radieske/race-bet-platform/internal/shared/logger"
	"github.com/radieske/race-bet-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "race-events-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer group race-events-worker; mensagens inválidas vão para a DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRaceEvents, "race-events-worker")
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceEventsDLQ)
	defer dlq.Close()

	// Métricas Prometheus
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_events_consumed_total", Help: "eventos consumidos"}, []string{"kind"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "race_events_cache_sets_total", Help: "sets no cache de rateios"})
	broadcasts := prometheus.NewCounter(prometheus.CounterOpts{Name: "race_events_broadcasts_total", Help: "publicações no canal do WebSocket"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_events_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, broadcasts, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		DLQ:         dlq,
		Payouts:     repository.NewPostgresRepo(pg),
		Cache:       cache.NewRedisCache(redisClient, cfg.PayoutCacheTTL),
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient),
		Channel:     cfg.RedisPubSubChannel,
		OnConsumed:  func(kind string) { consumed.WithLabelValues(kind).Inc() },
		OnCached:    func() { cached.Inc() },
		OnBroadcast: func() { broadcasts.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("race-events-worker started", zap.String("topic", cfg.TopicRaceEvents))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("race-events-worker stopped")
}
