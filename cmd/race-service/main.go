package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-service/engine"
	rhttp "github.com/radieske/race-bet-platform/internal/race-service/http"
	kpub "github.com/radieske/race-bet-platform/internal/race-service/producer"
	"github.com/radieske/race-bet-platform/internal/race-service/repo"
	"github.com/radieske/race-bet-platform/internal/shared/config"
	"github.com/radieske/race-bet-platform/internal/shared/db"
	"github.com/radieske/race-bet-platform/internal/shared/kafka"
	"github.com/radieske/race-bet-platform/internal/shared/logger"
	"github.com/radieske/race-bet-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "race-service"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	consolation, err := engine.ParseConsolationRate(cfg.ConsolationRate)
	if err != nil {
		log.Fatal("invalid CONSOLATION_RATE", zap.String("value", cfg.ConsolationRate), zap.Error(err))
	}
	takeout, err := decimal.NewFromString(cfg.TakeoutRate)
	if err != nil {
		log.Fatal("invalid TAKEOUT_RATE", zap.String("value", cfg.TakeoutRate), zap.Error(err))
	}

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writer (race_events), chave = raceId
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceEvents)
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicRaceEvents)
	defer publ.Close()

	// Métricas Prometheus
	wagers := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_wagers_placed_total", Help: "apostas registradas"}, []string{"bet_type"})
	stakes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_wager_stake_total", Help: "valor apostado"}, []string{"bet_type"})
	settleDur := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "race_settlement_duration_seconds", Help: "duração da apuração", Buckets: prometheus.DefBuckets})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "race_settled_wagers_total", Help: "apostas apuradas"})
	credited := prometheus.NewCounter(prometheus.CounterOpts{Name: "race_payouts_credited_total", Help: "valor creditado em pagamentos"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_errors_total", Help: "falhas por operação"}, []string{"op"})
	prometheus.MustRegister(wagers, stakes, settleDur, settled, credited, errorsBy)

	eng := engine.New(log, repo.NewPostgres(pg), publ, engine.Options{ConsolationRate: &consolation})
	eng.OnWagerPlaced = func(betType string, amount int64) {
		wagers.WithLabelValues(betType).Inc()
		stakes.WithLabelValues(betType).Add(float64(amount))
	}
	eng.OnSettled = func(n int, d time.Duration) {
		settled.Add(float64(n))
		settleDur.Observe(d.Seconds())
	}
	eng.OnDisbursed = func(amount int64) { credited.Add(float64(amount)) }
	eng.OnError = func(op string) { errorsBy.WithLabelValues(op).Inc() }

	defaults := engine.PayoutOptions{Mode: engine.PayoutMode(cfg.PayoutMode), TakeoutRate: takeout}
	api := rhttp.NewServer(log, eng, defaults)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Info("race-service listening",
			zap.String("addr", apiSrv.Addr),
			zap.String("payout_mode", cfg.PayoutMode),
			zap.String("consolation_rate", consolation.String()),
		)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
