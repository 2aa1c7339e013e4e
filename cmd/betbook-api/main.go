package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	httpapi "github.com/radieske/fantasy-betbook/internal/betbook/http"
	"github.com/radieske/fantasy-betbook/internal/betbook/producer"
	"github.com/radieske/fantasy-betbook/internal/betbook/pubsub"
	"github.com/radieske/fantasy-betbook/internal/betbook/ws"
	"github.com/radieske/fantasy-betbook/internal/league"
	leaguecache "github.com/radieske/fantasy-betbook/internal/league/cache"
	"github.com/radieske/fantasy-betbook/internal/league/sleeper"
	"github.com/radieske/fantasy-betbook/internal/ledger"
	"github.com/radieske/fantasy-betbook/internal/settlement"
	"github.com/radieske/fantasy-betbook/internal/shared/cache"
	"github.com/radieske/fantasy-betbook/internal/shared/config"
	"github.com/radieske/fantasy-betbook/internal/shared/db"
	"github.com/radieske/fantasy-betbook/internal/shared/kafka"
	"github.com/radieske/fantasy-betbook/internal/shared/logger"
	"github.com/radieske/fantasy-betbook/internal/shared/metrics"
	"github.com/radieske/fantasy-betbook/internal/slip"
	"github.com/radieske/fantasy-betbook/internal/store"
	"github.com/radieske/fantasy-betbook/internal/store/memory"
	"github.com/radieske/fantasy-betbook/internal/store/postgres"
)

func main() {
	// carrega config
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if cfg.LeagueID == "" {
		log.Fatal("LEAGUE_ID is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var checks []metrics.HealthFunc

	// store: postgres (padrão) ou memória para rodar local sem infra
	var st store.Store
	if cfg.StoreDriver == "memory" {
		st = memory.New()
		log.Warn("using in-memory store; data is lost on restart")
	} else {
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		st = postgres.New(pg)
		checks = append(checks, pg.PingContext)
		log.Info("postgres connected")
	}

	// Redis: cache do provedor + pub/sub ao vivo; opcional só no modo memória
	var rc *redis.Client
	if c, err := cache.ConnectRedis(ctx, cfg.RedisAddr); err != nil {
		if cfg.StoreDriver != "memory" {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		log.Warn("redis unavailable; running without cache and live updates", zap.Error(err))
	} else {
		rc = c
		defer rc.Close()
		checks = append(checks, func(ctx context.Context) error { return rc.Ping(ctx).Err() })
		log.Info("redis connected")
	}

	upstream := sleeper.New(cfg.ProviderBaseURL, cfg.ProviderTimeout, log)
	var provider league.Provider = upstream
	if rc != nil {
		provider = leaguecache.New(provider, rc, cfg.CacheTTL, log)
	}
	provider = league.SeasonPinned{Provider: provider, Season: cfg.Season}

	m := metrics.NewBetbook(prometheus.DefaultRegisterer)
	svc := ledger.NewService(st, log,
		ledger.WithBankroll(decimal.NewFromFloat(cfg.DefaultBankroll)),
		ledger.WithMetrics(m))

	// eventos Kafka; no modo memória são descartados
	var events interface {
		httpapi.EventPublisher
		settlement.Publisher
	} = producer.Noop{}
	if cfg.StoreDriver != "memory" {
		kp := producer.NewKafkaPublisher(
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced),
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled))
		defer kp.Close()
		events = kp
		log.Info("kafka writers ready", zap.String("placed", cfg.TopicBetPlaced), zap.String("settled", cfg.TopicBetSettled))
	}

	engineOpts := []settlement.Option{settlement.WithMetrics(m), settlement.WithPublisher(events)}
	hub := ws.NewHub(func(r *http.Request) bool { return true }, log)
	api := &httpapi.API{
		Ledger:      svc,
		Store:       st,
		Sessions:    slip.NewSessions(),
		Boards:      league.Boards{Provider: provider},
		Members:     league.Membership{Provider: provider, Directory: upstream, LeagueID: cfg.LeagueID},
		Events:      events,
		WS:          hub,
		LeagueID:    cfg.LeagueID,
		AdminSecret: cfg.AdminSecret,
		Log:         log,
	}
	if rc != nil {
		b := pubsub.NewRedisBroadcaster(rc, cfg.RedisPubSubChannel)
		api.Notify = b
		engineOpts = append(engineOpts, settlement.WithNotifier(b))
		ws.StartRedisSubscriber(ctx, rc, cfg.RedisPubSubChannel, hub, log)
	}
	api.Settler = settlement.NewEngine(st, league.NewResultSource(provider, cfg.LeagueID), cfg.LeagueID, log, engineOpts...)

	// sobe servidor de métricas e health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(checks...), log)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("betbook-api listening", zap.String("addr", srv.Addr), zap.String("leagueId", cfg.LeagueID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
}
