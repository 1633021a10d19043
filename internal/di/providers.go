package di

import (
	"context"
	"fmt"
	"time"

	"TapeLens/internal/domain/repository"
	"TapeLens/internal/engine"
	"TapeLens/internal/handler/api"
	mid "TapeLens/internal/middleware"
	internalrepo "TapeLens/internal/repository"
	"TapeLens/internal/service/notify"
	"TapeLens/internal/service/settings"
	"TapeLens/internal/service/stream"
	"TapeLens/internal/usecase"
	pkgch "TapeLens/pkg/clickhouse"
	"TapeLens/pkg/config"
	xhttp "TapeLens/pkg/http"
	pkgkafka "TapeLens/pkg/kafka"
	applogger "TapeLens/pkg/logger"
	"TapeLens/pkg/metrics"
	"TapeLens/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "dev" {
		format = "console"
	}
	return applogger.New(&applogger.Config{
		Level:  "info",
		Format: format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSettings builds the settings provider from the analysis config.
func ProvideSettings(cfg *config.Config) repository.SettingsProvider {
	return settings.NewProvider(cfg.Analysis)
}

// ProvideIVStore returns the Redis-backed IV history store when Redis is
// enabled, otherwise an in-memory one.
func ProvideIVStore(cfg *config.Config) (repository.HistoricalIVStore, error) {
	if !cfg.Redis.Enabled {
		return internalrepo.NewMemoryIVStore(cfg.Analysis.IVHistoryLength), nil
	}
	store, err := internalrepo.NewRedisIVStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Analysis.IVHistoryLength)
	if err != nil {
		return nil, fmt.Errorf("redis iv store: %w", err)
	}
	return store, nil
}

// ProvideClickHouseClient creates the ClickHouse client and prepares the
// signal log schema. Returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		internalrepo.SignalLogSchema(cfg.ClickHouse.Database),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSignalLogger creates ClickHouse-backed signal logging, or nil when
// ClickHouse is disabled.
func ProvideSignalLogger(chClient *pkgch.Client, cfg *config.Config) repository.SignalLogger {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseSignalLog(chClient.DB(), cfg.ClickHouse.Database+".signal_log")
}

// ProvideNotifier fans out to every configured delivery channel.
func ProvideNotifier(cfg *config.Config) (repository.Notifier, error) {
	var notifiers []repository.Notifier
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChat != 0 {
		tg, err := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChat)
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		notifiers = append(notifiers, tg)
	}
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhook(cfg.Notify.WebhookURL))
	}
	if len(notifiers) == 0 {
		return notify.Nop{}, nil
	}
	return notify.NewMulti(notifiers...), nil
}

// ProvidePipeline assembles the analysis pipeline.
func ProvidePipeline(
	cfg *config.Config,
	provider repository.SettingsProvider,
	m repository.Metrics,
	log *applogger.Logger,
	siglog repository.SignalLogger,
	notifier repository.Notifier,
	ivStore repository.HistoricalIVStore,
) *engine.Pipeline {
	return engine.New(provider, m, log, cfg.Ingest.Shards, cfg.Notify.Workers,
		engine.WithSignalLogger(siglog),
		engine.WithNotifier(notifier),
		engine.WithIVStore(ivStore),
	)
}

// ProvideIngress wraps the pipeline with validation and throttling.
func ProvideIngress(p *engine.Pipeline, m repository.Metrics, log *applogger.Logger, cfg *config.Config) *mid.Ingress {
	return mid.NewIngress(p, m, log, cfg.Ingest.MaxTPS)
}

// ProvideKafkaConsumer creates the ticks consumer; nil unless the kafka
// ingest source is selected.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Ingest.Source != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.RetryMax, cfg.Kafka.BackoffMin, cfg.Kafka.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.MinBytes, cfg.Kafka.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaTicksHandler registers the decoder for the ticks topic.
func ProvideKafkaTicksHandler(cfg *config.Config, ingress *mid.Ingress, log *applogger.Logger) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.Topic, ingress, log)
}

// ProvideTickStream creates the WebSocket tick stream; nil unless the
// websocket ingest source is selected.
func ProvideTickStream(cfg *config.Config, log *applogger.Logger) repository.TickStream {
	if cfg.Ingest.Source != "websocket" {
		return nil
	}
	return stream.New(
		cfg.Stream.URL,
		cfg.Stream.APIKey,
		cfg.Stream.Instruments,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		log,
	)
}

// ProvideTickCollector drains the live stream into the ingress.
func ProvideTickCollector(s repository.TickStream, ingress *mid.Ingress, m repository.Metrics, log *applogger.Logger) *usecase.TickCollector {
	if s == nil {
		return nil
	}
	return usecase.NewTickCollector(s, ingress, m, log)
}

// ProvideResultsHandler exposes the pipeline over HTTP.
func ProvideResultsHandler(p *engine.Pipeline) xhttp.Handler {
	return api.NewResultsHandler(p)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *engine.Pipeline,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	collector *usecase.TickCollector,
	chClient *pkgch.Client,
	ivStore repository.HistoricalIVStore,
	httpHandler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, pipeline, consumer, kh, collector, chClient, ivStore, httpHandler)
}
