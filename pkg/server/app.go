package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AstroChart/internal/usecase"
	"AstroChart/pkg/cache"
	pkgch "AstroChart/pkg/clickhouse"
	"AstroChart/pkg/config"
	xhttp "AstroChart/pkg/http"
	pkgkafka "AstroChart/pkg/kafka"
	applogger "AstroChart/pkg/logger"
	"AstroChart/pkg/queue"
)

// Components are the long-running parts of the service. Anything but Server may be nil.
type Components struct {
	Server     *xhttp.Server
	Consumer   *pkgkafka.Consumer
	Handlers   []pkgkafka.MessageHandler
	Webhooks   *queue.RedisQueue
	Digest     *usecase.SkyDigest
	Processor  *usecase.ChartProcessor
	Producer   *pkgkafka.Producer
	ClickHouse *pkgch.Client
	Cache      cache.Service
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg  *config.Config
	log  *applogger.Logger
	c    Components
	quit chan os.Signal
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, c Components) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{cfg: cfg, log: log, c: c}
}

// Run starts every component and blocks until ctx is done, a signal arrives or the
// HTTP listener fails. It always shuts down before returning.
func (a *App) Run(ctx context.Context) error {
	if a.c.Server == nil {
		return errors.New("http server is required")
	}

	if err := a.start(); err != nil {
		_ = a.shutdown()
		return err
	}

	a.quit = make(chan os.Signal, 1)
	signal.Notify(a.quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(a.quit)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("context cancelled")
	case sig := <-a.quit:
		a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	case err := <-a.c.Server.Errors():
		a.log.Error("http server failed", applogger.Error(err))
		runErr = err
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (a *App) start() error {
	if a.c.Consumer != nil && len(a.c.Handlers) > 0 {
		for _, h := range a.c.Handlers {
			a.c.Consumer.RegisterHandler(h)
		}
		if err := a.c.Consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.log.Info("kafka consumer started", applogger.String("group", a.cfg.Kafka.Consumer.GroupID))
	}

	if a.c.Webhooks != nil {
		if err := a.c.Webhooks.Start(); err != nil {
			return fmt.Errorf("webhook queue: %w", err)
		}
		a.log.Info("webhook queue started", applogger.Int("workers", a.cfg.Webhook.Workers))
	}

	if a.c.Digest != nil {
		a.c.Digest.Start()
		a.log.Info("sky digest scheduled",
			applogger.String("spec", a.cfg.Sky.DigestSpec),
			applogger.String("topic", a.cfg.Sky.DigestTopic))
	}

	if err := a.c.Server.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("astrochart started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("backend", a.cfg.Backend.Type),
		applogger.Int("port", a.cfg.Server.Port))
	return nil
}

// shutdown stops intake first, then background work, then closes shared clients.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.log.Info("shutting down...")
	var errs []error

	if err := a.c.Server.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.c.Webhooks != nil {
		if err := a.c.Webhooks.Stop(ctx); err != nil {
			a.log.Warn("webhook queue stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.c.Digest != nil {
		if err := a.c.Digest.Stop(ctx); err != nil {
			a.log.Warn("sky digest stop error", applogger.Error(err))
		}
	}

	// flush pending error digests while the producer is still open
	a.log.RemoveCollector()

	if a.c.Processor != nil {
		a.c.Processor.Close()
	}
	if a.c.Producer != nil {
		if err := a.c.Producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.c.ClickHouse != nil {
		if err := a.c.ClickHouse.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.c.Cache != nil {
		if err := a.c.Cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
