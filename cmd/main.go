package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/bidding"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/cache"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/grpcserver"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/live"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/notify"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/presence"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/scheduler"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/server"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("freightbid stopped with error", zap.Error(err))
	}
	log.Info("freightbid stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	var (
		store      storage.Storage
		publisher  *kafka.Publisher
		dispatcher domain.Dispatchers
	)
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage, state is lost on restart and no events are relayed")
		store = storage.NewMemoryStorage(nil)
	default:
		database, err := db.NewDb(ctx, db.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Name:     cfg.DBName,
			MaxConns: cfg.DBMaxConns,
		})
		if err != nil {
			return err
		}
		defer database.Close()

		outboxRepo := postgresql.NewOutboxTaskRepo(cfg.OutboxMaxAttempts)
		store = storage.NewPostgresStorage(database, outboxRepo)

		var producer kafka.Producer = kafka.NewConsoleProducer(log)
		if len(cfg.KafkaBrokers) > 0 {
			producer = kafka.NewKafkaProducer(cfg.KafkaBrokers)
		}
		publisher = kafka.NewPublisher(database, outboxRepo, producer, kafka.PublisherConfig{
			PollInterval: cfg.OutboxPollInterval,
			BatchSize:    cfg.OutboxBatchSize,
			MaxAttempts:  cfg.OutboxMaxAttempts,
		}, log.Named("outbox"))
		dispatcher = append(dispatcher, kafka.NewRecorder(cfg.KafkaTopic, nil))
	}

	if cfg.AdminID != "" {
		if err := store.UpsertUser(ctx, cfg.AdminID, string(domain.RoleAdmin)); err != nil {
			return fmt.Errorf("failed to register admin %s: %w", cfg.AdminID, err)
		}
		log.Info("admin user registered", zap.String("admin_id", cfg.AdminID))
	}

	hub := live.NewHub(live.DefaultBuffer, log.Named("live"))
	tracker := presence.NewTracker()

	var (
		broker      *live.RedisBroker
		invalidator *cache.RedisInvalidator
		idempotency server.IdempotencyStore
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		broker = live.NewRedisBroker(client, live.DefaultChannel, log.Named("live"))
		hub.SetBroker(broker)
		tracker.SetMirror(presence.NewRedisMirror(client, presence.DefaultTTL), log.Named("presence"))
		invalidator = cache.NewRedisInvalidator(client, cache.DefaultChannel, log.Named("board"))
		idempotency = server.NewRedisIdempotency(client)
	}

	notifier := notify.NewService(store, hub, tracker, nil, log.Named("notify"))
	dashboard := notify.NewDashboard(store, hub, nil, log.Named("dashboard"))
	board := cache.NewBoardCache(store, log.Named("board"))
	if err := board.LoadInitialData(ctx); err != nil {
		return fmt.Errorf("failed to warm board cache: %w", err)
	}
	if invalidator != nil {
		board.SetInvalidator(invalidator)
	}

	dispatcher = append(dispatcher, notify.NewListener(notifier, dashboard, log.Named("notify")), board)

	l := ledger.New(log.Named("ledger"))
	bids := bidding.NewService(store, l, dispatcher, bidding.Policy{EtaSlack: cfg.EtaSlack}, nil, log.Named("bidding"))
	containers := ledger.NewContainerService(store, l, dispatcher, nil, log.Named("containers"))

	srv := server.New(server.Deps{
		Bidding:     bids,
		Containers:  containers,
		Notifier:    notifier,
		Dashboard:   dashboard,
		Board:       board,
		Users:       store,
		Hub:         hub,
		Presence:    tracker,
		Auth:        server.NewAuthenticator(cfg.JWTSecret),
		Idempotency: idempotency,
		Heartbeat:   cfg.HeartbeatInterval,
	}, log.Named("http"))
	health := grpcserver.NewServer(store, 10*time.Second, log.Named("grpc"))
	sweep := scheduler.New(bids, log.Named("scheduler"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return health.Run(gctx, cfg.GRPCPort)
	})
	g.Go(func() error {
		return sweep.Start(gctx, cfg.ExpirySchedule)
	})
	if broker != nil {
		g.Go(func() error {
			return broker.Run(gctx, hub)
		})
		g.Go(func() error {
			return invalidator.Run(gctx, board)
		})
	}
	if publisher != nil {
		g.Go(func() error {
			publisher.Run(gctx)
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			publisher.Shutdown()
			return nil
		})
	}

	log.Info("freightbid started",
		zap.String("http_port", cfg.HTTPPort),
		zap.String("grpc_port", cfg.GRPCPort),
		zap.String("storage", cfg.Storage),
	)
	return g.Wait()
}
