package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"AstroChart/internal/domain/repository"
	dsvc "AstroChart/internal/domain/service"
	"AstroChart/internal/handler/api"
	internalrepo "AstroChart/internal/repository"
	smetrics "AstroChart/internal/service/metrics"
	"AstroChart/internal/service/ratelimit"
	"AstroChart/internal/service/webhook"
	"AstroChart/internal/services/astro"
	"AstroChart/internal/usecase"
	"AstroChart/pkg/cache"
	pkgch "AstroChart/pkg/clickhouse"
	"AstroChart/pkg/config"
	xhttp "AstroChart/pkg/http"
	pkgkafka "AstroChart/pkg/kafka"
	applogger "AstroChart/pkg/logger"
	"AstroChart/pkg/metrics"
	"AstroChart/pkg/queue"
	"AstroChart/pkg/server"
)

const chartsTable = "charts"

// ProvideRegistry creates the registry behind /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pkgkafka.SetMetricsRegisterer(reg)
	smetrics.Register(reg)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideKafkaProducer creates a Kafka producer when brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts, cfg.Kafka.Producer.Async),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the service logger. Error digests go to the logs topic when a
// producer exists.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "astrochart",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.CollectInterval,
			CountThreshold: cfg.Log.CollectMax,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideClickHouseClient connects to ClickHouse for the clickhouse backend only.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != config.BackendClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithAuth(cfg.ClickHouse.Database, cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns, cfg.ClickHouse.ConnMaxLifetime),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithInserts(cfg.ClickHouse.UseHTTP, cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideChartStore creates the charts table and its repository.
func ProvideChartStore(client *pkgch.Client, cfg *config.Config, log *applogger.Logger) (repository.ChartStore, error) {
	if client == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseChartStore(client.DB(), cfg.ClickHouse.Database+"."+chartsTable, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideChartPublisher creates the chart.computed publisher for the kafka backend.
func ProvideChartPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ChartPublisher {
	if producer == nil || cfg.Backend.Type != config.BackendKafka {
		return nil
	}
	return internalrepo.NewKafkaChartPublisher(producer, cfg.Kafka.Topic)
}

// ProvideRedisCache connects to Redis when enabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		cache.WithRedisPrefix(cfg.Redis.KeyPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideCache layers a bounded memory cache over Redis, or uses memory alone.
func ProvideCache(rc *cache.RedisCache, cfg *config.Config) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MaxItems),
			cache.WithMemoryTTL(cfg.Cache.TTL),
		)
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MaxItems),
		cache.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
	)
}

func ProvideCalculator() dsvc.ChartCalculator {
	return astro.NewCalculator()
}

// ProvideChartProcessor creates the backend router.
func ProvideChartProcessor(pub repository.ChartPublisher, store repository.ChartStore, m repository.Metrics, cfg *config.Config) *usecase.ChartProcessor {
	return usecase.NewChartProcessor(pub, store, m, cfg.Backend.Type)
}

func ProvideChartService(
	calc dsvc.ChartCalculator,
	c cache.Service,
	store repository.ChartStore,
	proc *usecase.ChartProcessor,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.ChartService {
	return usecase.NewChartService(calc, c, store, proc, m, log, cfg.Cache.TTL)
}

func ProvideSkyFeed(svc *usecase.ChartService, cfg *config.Config) *usecase.SkyFeed {
	return usecase.NewSkyFeed(svc, cfg.Sky.MaxStreams, cfg.Sky.MinInterval)
}

// ProvideNotifier creates the signed webhook client.
func ProvideNotifier(cfg *config.Config) dsvc.Notifier {
	return webhook.New(xhttp.NewClient(xhttp.WithTimeout(cfg.Webhook.Timeout)), cfg.Webhook.Secret)
}

func ProvideWebhookJob(n dsvc.Notifier, m repository.Metrics) *usecase.WebhookJob {
	return usecase.NewWebhookJob(n, m)
}

// ProvideWebhookQueue creates the Redis-backed webhook queue; webhooks need Redis.
func ProvideWebhookQueue(rc *cache.RedisCache, job *usecase.WebhookJob, cfg *config.Config, log *applogger.Logger) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(log, queue.Config{
		Workers:      cfg.Webhook.Workers,
		RetryLimit:   cfg.Webhook.MaxRetries,
		RetryDelay:   time.Second,
		PollInterval: cfg.Webhook.PollInterval,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Redis.KeyPrefix+":"+cfg.Webhook.Queue))
	q.RegisterJob(job)
	return q
}

// ProvideKafkaConsumer creates the chart requests consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TracingHook{},
		pkgkafka.LoggingHook{Log: log, Slow: time.Second},
	))
	return consumer, nil
}

// ProvideChartRequestsHandler handles the requests topic. Request ids are deduplicated
// through the shared cache for a day.
func ProvideChartRequestsHandler(
	cfg *config.Config,
	svc *usecase.ChartService,
	c cache.Service,
	q *queue.RedisQueue,
	m repository.Metrics,
	log *applogger.Logger,
) []pkgkafka.MessageHandler {
	var webhooks queue.Publisher
	if q != nil {
		webhooks = q
	}
	return []pkgkafka.MessageHandler{
		usecase.NewKafkaChartRequestsHandler(cfg.Kafka.RequestsTopic, svc, c, webhooks, m, log, 24*time.Hour),
	}
}

// ProvideSkyDigest schedules the sky digest when enabled.
func ProvideSkyDigest(cfg *config.Config, svc *usecase.ChartService, producer *pkgkafka.Producer, log *applogger.Logger) (*usecase.SkyDigest, error) {
	if !cfg.Sky.DigestEnabled || producer == nil {
		return nil, nil
	}
	return usecase.NewSkyDigest(svc, producer, cfg.Sky.DigestTopic, cfg.Sky.DigestSpec, log)
}

// ProvideHTTPServer registers the API, websocket and health routes.
func ProvideHTTPServer(
	cfg *config.Config,
	log *applogger.Logger,
	reg *prometheus.Registry,
	svc *usecase.ChartService,
	feed *usecase.SkyFeed,
	ch *pkgch.Client,
	rc *cache.RedisCache,
) *xhttp.Server {
	health := api.NewHealthHandler()
	if ch != nil {
		health.AddCheck("clickhouse", ch.Health)
	}
	if rc != nil {
		health.AddCheck("redis", func(ctx context.Context) error {
			return rc.Client().Ping(ctx).Err()
		})
	}

	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	}
	if cfg.Server.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec, 10000, 10*time.Minute)
		opts = append(opts, xhttp.WithMiddleware(ratelimit.Middleware(limiter, log)))
	}

	return xhttp.NewServer(log, []xhttp.Handler{
		api.NewChartsEchoHandler(log, svc),
		api.NewSkyStreamHandler(log, feed, cfg.Server.CORSOrigins),
		health,
	}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	webhooks *queue.RedisQueue,
	digest *usecase.SkyDigest,
	proc *usecase.ChartProcessor,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	c cache.Service,
) *server.App {
	return server.New(cfg, log, server.Components{
		Server:     srv,
		Consumer:   consumer,
		Handlers:   handlers,
		Webhooks:   webhooks,
		Digest:     digest,
		Processor:  proc,
		Producer:   producer,
		ClickHouse: ch,
		Cache:      c,
	})
}
