package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/muhammadchandra19/market-gateway/internal/app/session"
	"github.com/muhammadchandra19/market-gateway/internal/infrastructure/questdb/ohlc"
	"github.com/muhammadchandra19/market-gateway/internal/server"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/aggregator"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/feed"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/marketcache"
	"github.com/muhammadchandra19/market-gateway/internal/usecase/shm"
	tradepublisher "github.com/muhammadchandra19/market-gateway/internal/usecase/trade-publisher"
	"github.com/muhammadchandra19/market-gateway/pkg/config"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
	"github.com/muhammadchandra19/market-gateway/pkg/questdb"
	"github.com/muhammadchandra19/market-gateway/pkg/redis"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel)))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(err, logger.Field{Key: "operation", Value: "run"})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	// Optional trade publisher.
	var publisher tradepublisher.Interface
	if cfg.Kafka.Enabled {
		kafkaPublisher := tradepublisher.NewPublisher(cfg.Kafka, log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("trade publisher enabled",
			logger.Field{Key: "brokers", Value: cfg.Kafka.Brokers},
			logger.Field{Key: "topic", Value: cfg.Kafka.Topic},
		)
	}

	// Optional live-market cache.
	var cache *marketcache.Cache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(log, &cfg.Redis.Config)
		if err := redisClient.Connect(ctx); err != nil {
			return err
		}
		defer redisClient.Disconnect(context.Background())
		cache = marketcache.NewCache(redisClient, cfg.Redis.PrefixKey, log)
		log.Info("market cache enabled", logger.Field{Key: "addrs", Value: cfg.Redis.Addrs})
	}

	// Optional sealed-candle history store.
	var store *ohlc.Repository
	if cfg.QuestDB.Enabled {
		questdbClient, err := questdb.NewClient(ctx, cfg.QuestDB.Config)
		if err != nil {
			return err
		}
		defer questdbClient.Close()

		store = ohlc.NewRepository(questdbClient)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		log.Info("candle history store enabled", logger.Field{Key: "host", Value: cfg.QuestDB.Host})
	}

	sess := session.New(log, &session.Options{
		ProductID:     cfg.App.ProductID,
		PriceCapacity: cfg.Book.PriceCapacity,
		MaxCandles:    cfg.Book.MaxCandles,
	}, publisher)

	agg := aggregator.New(sess.Prices(), sess.Candles(), log, aggregator.Options{
		Interval: cfg.Aggregator.Interval,
		Symbol:   cfg.App.ProductID,
		Store:    store,
		Cache:    cache,
	})

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return feed.NewServer(cfg.Feed, sess, log).Run(ctx)
	})

	group.Go(func() error {
		return agg.Run(ctx)
	})

	group.Go(func() error {
		return server.NewServer(cfg.Server, sess, log).Run(ctx)
	})

	if cfg.Shm.BookPath != "" {
		reader := shm.NewReader(cfg.Shm.BookPath, cfg.Shm.RegionSize, log)
		group.Go(func() error {
			if err := reader.Initialize(cfg.Shm.InitAttempts, cfg.Shm.InitDelay); err != nil {
				return err
			}
			defer reader.Close()
			return reader.Run(ctx, cfg.Shm.BookPoll, sess)
		})
	}

	if cfg.Shm.MarketPath != "" {
		reader := shm.NewReader(cfg.Shm.MarketPath, cfg.Shm.RegionSize, log)
		group.Go(func() error {
			if err := reader.Initialize(cfg.Shm.InitAttempts, cfg.Shm.InitDelay); err != nil {
				return err
			}
			defer reader.Close()
			return reader.Run(ctx, cfg.Shm.MarketPoll, sess)
		})
	}

	log.Info("market gateway started",
		logger.Field{Key: "product", Value: cfg.App.ProductID},
		logger.Field{Key: "environment", Value: cfg.App.Environment},
	)

	return group.Wait()
}
