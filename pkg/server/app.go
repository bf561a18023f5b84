package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PriceGate/internal/domain/repository"
	"PriceGate/internal/usecase"
	"PriceGate/pkg/cache"
	pkgch "PriceGate/pkg/clickhouse"
	"PriceGate/pkg/config"
	xhttp "PriceGate/pkg/http"
	pkgkafka "PriceGate/pkg/kafka"
	applogger "PriceGate/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server

	collector *usecase.UpdateCollector
	consumer  *pkgkafka.Consumer
	kh        *usecase.KafkaUpdatesHandler
	worker    *usecase.ArchiveWorker

	chClient *pkgch.Client
	redis    *cache.RedisCache
	events   repository.Publisher
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.UpdateCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaUpdatesHandler,
	worker *usecase.ArchiveWorker,
	chClient *pkgch.Client,
	redis *cache.RedisCache,
	events repository.Publisher,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		httpHandler: handler,
		collector:   collector,
		consumer:    consumer,
		kh:          kh,
		worker:      worker,
		chClient:    chClient,
		redis:       redis,
		events:      events,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("collector error", applogger.Error(err))
			}
		}()
		a.log.Info("update collector started",
			applogger.Strings("feed_ids", a.cfg.Provider.FeedIDs))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.worker != nil {
		if err := a.worker.Start(); err != nil {
			a.log.Error("archive worker start error", applogger.Error(err))
			return err
		}
		a.log.Info("archive worker started", applogger.Int("workers", a.cfg.Archive.Workers))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.worker != nil {
		if err := a.worker.Stop(shutdownCtx); err != nil {
			a.log.Warn("archive worker stop error", applogger.Error(err))
		}
	}

	// Flush the log collector before its Kafka producer goes away.
	a.log.RemoveCollector()

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
