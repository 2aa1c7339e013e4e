package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/radieske/fantasy-betbook/internal/betbook/pubsub"
	"github.com/radieske/fantasy-betbook/internal/betbook/refresher"
	"github.com/radieske/fantasy-betbook/internal/league"
	leaguecache "github.com/radieske/fantasy-betbook/internal/league/cache"
	"github.com/radieske/fantasy-betbook/internal/league/sleeper"
	"github.com/radieske/fantasy-betbook/internal/shared/cache"
	"github.com/radieske/fantasy-betbook/internal/shared/config"
	"github.com/radieske/fantasy-betbook/internal/shared/logger"
	"github.com/radieske/fantasy-betbook/internal/shared/metrics"
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// estado da NFL direto do provedor; o resto passa pelo cache que está sendo aquecido
	upstream := sleeper.New(cfg.ProviderBaseURL, cfg.ProviderTimeout, log)
	cached := leaguecache.New(upstream, redisClient, cfg.CacheTTL, log)

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}, log)
	defer msrv.Close()

	r := &refresher.Refresher{
		State:    upstream,
		Cache:    cached,
		Boards:   league.Boards{Provider: league.SeasonPinned{Provider: cached, Season: cfg.Season}},
		Notify:   pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		LeagueID: cfg.LeagueID,
		Season:   cfg.Season,
		Interval: cfg.BoardRefreshInterval,
		Log:      log,
	}

	log.Info("board-refresher started", zap.String("leagueId", cfg.LeagueID), zap.Duration("interval", cfg.BoardRefreshInterval))
	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("board refresher stopped with error", zap.Error(err))
	}
	log.Info("board-refresher stopped")
}
