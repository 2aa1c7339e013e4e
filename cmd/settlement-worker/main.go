package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/fantasy-betbook/internal/betbook/producer"
	"github.com/radieske/fantasy-betbook/internal/betbook/pubsub"
	"github.com/radieske/fantasy-betbook/internal/league"
	leaguecache "github.com/radieske/fantasy-betbook/internal/league/cache"
	"github.com/radieske/fantasy-betbook/internal/league/sleeper"
	"github.com/radieske/fantasy-betbook/internal/settlement"
	"github.com/radieske/fantasy-betbook/internal/shared/cache"
	"github.com/radieske/fantasy-betbook/internal/shared/config"
	"github.com/radieske/fantasy-betbook/internal/shared/db"
	"github.com/radieske/fantasy-betbook/internal/shared/kafka"
	"github.com/radieske/fantasy-betbook/internal/shared/logger"
	"github.com/radieske/fantasy-betbook/internal/shared/metrics"
	"github.com/radieske/fantasy-betbook/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.LeagueID == "" {
		log.Fatal("LEAGUE_ID is required")
	}
	// o store em memória não é compartilhado entre processos; a liquidação roda na própria API
	if cfg.StoreDriver == "memory" {
		log.Fatal("settlement-worker requires STORE_DRIVER=postgres")
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Resultados semanais vêm do provedor, com cache Redis na frente
	provider := league.SeasonPinned{
		Provider: leaguecache.New(sleeper.New(cfg.ProviderBaseURL, cfg.ProviderTimeout, log), redisClient, cfg.CacheTTL, log),
		Season:   cfg.Season,
	}

	// bet_settled no Kafka; bet_placed fica com a API
	kp := producer.NewKafkaPublisher(
		kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced),
		kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled))
	defer kp.Close()

	m := metrics.NewBetbook(prometheus.DefaultRegisterer)
	engine := settlement.NewEngine(postgres.New(pg), league.NewResultSource(provider, cfg.LeagueID), cfg.LeagueID, log,
		settlement.WithMetrics(m),
		settlement.WithPublisher(kp),
		settlement.WithNotifier(pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel)))

	// Servidor HTTP para métricas e health check
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(
		pg.PingContext,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	), log)
	defer msrv.Close()

	runner := &settlement.Runner{
		Engine:   engine,
		Interval: cfg.SettleInterval,
		Log:      log,
	}

	log.Info("settlement-worker started", zap.String("leagueId", cfg.LeagueID), zap.Duration("interval", cfg.SettleInterval))
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("settlement worker stopped with error", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
