package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"TapeLens/internal/domain/repository"
	"TapeLens/internal/engine"
	"TapeLens/internal/usecase"
	pkgch "TapeLens/pkg/clickhouse"
	"TapeLens/pkg/config"
	xhttp "TapeLens/pkg/http"
	pkgkafka "TapeLens/pkg/kafka"
	applogger "TapeLens/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	pipeline  *engine.Pipeline
	consumer  *pkgkafka.Consumer
	kh        *usecase.KafkaTicksHandler
	collector *usecase.TickCollector
	chClient  *pkgch.Client
	ivStore   repository.HistoricalIVStore

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates the App with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *engine.Pipeline,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	collector *usecase.TickCollector,
	chClient *pkgch.Client,
	ivStore repository.HistoricalIVStore,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		pipeline:    pipeline,
		consumer:    consumer,
		kh:          kh,
		collector:   collector,
		chClient:    chClient,
		ivStore:     ivStore,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.pipeline.Start(ctx)
	a.log.Info("pipeline started", applogger.Int("shards", a.cfg.Ingest.Shards))

	switch a.cfg.Ingest.Source {
	case "kafka":
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(ctx); err != nil {
			a.log.Error("kafka consumer start failed", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	case "websocket":
		go func() {
			if err := a.collector.Run(ctx); err != nil && ctx.Err() == nil {
				a.log.Error("tick collector stopped", applogger.Error(err))
			}
		}()
		a.log.Info("tick collector started", applogger.Any("instruments", a.cfg.Stream.Instruments))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start failed", applogger.Error(err))
		return err
	}
	a.log.Info("http server listening", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops ingest first so no new ticks arrive, then drains the
// pipeline and closes infrastructure clients.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.pipeline.Stop()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Warn("http shutdown error", applogger.Error(err))
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if closer, ok := a.ivStore.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn("iv store close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
