// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lawjobs-workers/internal/access"
	"lawjobs-workers/internal/api"
	"lawjobs-workers/internal/classification"
	"lawjobs-workers/internal/common/camunda"
	"lawjobs-workers/internal/common/config"
	"lawjobs-workers/internal/common/database"
	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/observability"
	"lawjobs-workers/internal/common/validation"
	"lawjobs-workers/internal/hh"
	"lawjobs-workers/internal/matching"
	"lawjobs-workers/internal/models"
	"lawjobs-workers/internal/posting"
	"lawjobs-workers/internal/registration"
	"lawjobs-workers/internal/repository"
	"lawjobs-workers/internal/scheduler"
	"lawjobs-workers/internal/search"
	"lawjobs-workers/internal/telegram"
	distributeposting "lawjobs-workers/internal/workers/postings/distribute-posting"
	"lawjobs-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	shutdownTracing, err := observability.InitTracing(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	engine := camunda.Wrap(zeebeClient, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.MigrateOnStart {
		changed, err := database.MigrateUp(pg.GetDB())
		if err != nil {
			zapLog.Fatal("migrations failed", zap.Error(err))
		}
		zapLog.Info("migrations checked", zap.Bool("applied", changed))
	}

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	indexer := search.NewIndexer(esClient.Client, cfg.Database.Elasticsearch.PostingsIndex)
	if err := indexer.EnsureIndex(ctx); err != nil {
		zapLog.Warn("postings index not ready", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Redis ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Telegram ---
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		zapLog.Fatal("telegram bot init failed", zap.Error(err))
	}
	zapLog.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))

	// --- Domain services ---
	postings := repository.NewPostingStore(pg.GetDB())
	subscribers := repository.NewSubscriberStore(pg.GetDB())
	reviews := repository.NewReviewStore(pg.GetDB())
	employerTypes := repository.NewEmployerTypeStore(pg.GetDB(), redis.Client)

	classifier := classification.NewClassifier(classification.Config{
		EmptyEmployerDefault: models.EmployerCategory(cfg.Classification.EmptyEmployerDefault),
	})
	checker := access.NewChecker(cfg.Telegram.SuperuserIDs, subscribers)
	notifier := telegram.NewNotifier(bot, cfg.Telegram.SendRatePerSec, cfg.Telegram.SendBurst, log)

	deps := &services{
		cfg:         cfg,
		postings:    postings,
		subscribers: subscribers,
		reviews:     reviews,
		sessions:    registration.NewStore(redis.Client, config.GetDuration(cfg.Telegram.SessionTTLMillis)),
		claims:      repository.NewDistributionClaims(redis.Client, distributeposting.LoadConfig(cfg).ClaimTTL),
		classifier:  classifier,
		validator:   posting.NewValidator(postings, employerTypes, classifier),
		matcher:     matching.NewEngine(subscribers),
		checker:     checker,
		notifier:    notifier,
		indexer:     indexer,
		source:      hh.NewClient(cfg.HH),
	}
	deps.connectAWS(ctx, zapLog)

	// --- Workers ---
	opts := camunda.Options{
		Errors:        commonerrors.NewErrorHandler(log.WithFields(map[string]interface{}{"component": "job-validation"})),
		Observability: obs,
	}
	if reg, err := registry.LoadRegistry(cfg.Registry.Path); err != nil {
		zapLog.Warn("activity registry unavailable, input validation disabled", zap.Error(err))
	} else if v, err := validation.NewSchemaValidator(reg); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	} else {
		opts.Validator = v
	}

	workers := startWorkers(zeebeClient, deps.handlers(log), cfg, opts, log)
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Scheduler ---
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg.Scheduler, engine, log)
		if err != nil {
			zapLog.Fatal("scheduler init failed", zap.Error(err))
		}
		if err := sched.Start(ctx); err != nil {
			zapLog.Fatal("scheduler start failed", zap.Error(err))
		}
	}

	// --- HTTP ---
	router := telegram.NewRouter(engine, cfg.Telegram.UpdateProcessID, postings, checker, notifier, log)
	server := api.NewServer(cfg.Server, api.Deps{
		Router:        router,
		Classifier:    classifier,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		Checks: map[string]api.Pinger{
			"postgres":      pg,
			"redis":         redis,
			"elasticsearch": esClient,
			"zeebe":         api.PingFunc(engine.HealthCheck),
		},
	}, log)
	go func() {
		if err := server.Start(); err != nil {
			zapLog.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	if sched != nil {
		sched.Stop()
	}
	for _, w := range workers {
		w.Stop()
	}
	if err := engine.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLog.Error("tracing shutdown failed", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
