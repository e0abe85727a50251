package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/logger"

	"github.com/dsavch/reskeeper/internal/clock"
	"github.com/dsavch/reskeeper/internal/config"
	"github.com/dsavch/reskeeper/internal/engine"
	"github.com/dsavch/reskeeper/internal/notifier"
	"github.com/dsavch/reskeeper/internal/obs"
	"github.com/dsavch/reskeeper/internal/registry"
	"github.com/dsavch/reskeeper/internal/sweeper"
)

type App struct {
	cfg     *config.Config
	log     logger.Logger
	reg     *registry.Registry
	engine  *engine.Engine
	broker  *notifier.Broker
	sweeper *sweeper.Sweeper
	rdb     *redis.Client

	metricsServer *http.Server
}

func New(cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg}

	log, err := logger.InitLogger(
		cfg.Logger.LogEngine(),
		"reskeeper",
		cfg.Logger.Mode,
		logger.WithLevel(cfg.Logger.LogLevel()),
	)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	app.log = log

	if err = app.initRegistry(); err != nil {
		return nil, fmt.Errorf("init registry: %w", err)
	}

	app.initServices()

	return app, nil
}

func (a *App) initRegistry() error {
	specs, err := a.cfg.Inventory.Parse()
	if err != nil {
		return err
	}

	a.reg = registry.New()
	for _, spec := range specs {
		for i := 1; i <= spec.Count; i++ {
			id := fmt.Sprintf("%s-%d", spec.Category, i)
			if err := a.reg.Add(id, spec.Category); err != nil {
				return fmt.Errorf("seed resource %s: %w", id, err)
			}
		}
		a.log.LogAttrs(context.Background(), logger.InfoLevel, "inventory seeded",
			logger.String("category", spec.Category),
			logger.Int("count", spec.Count),
		)
	}

	return nil
}

func (a *App) initServices() {
	metrics := obs.NewMetrics()

	brokerOpts := []notifier.BrokerOption{
		notifier.WithBuffer(a.cfg.Notifier.Buffer),
		notifier.WithMetrics(metrics),
	}
	if a.cfg.Redis.Addr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		sink := notifier.NewRedisSink(a.rdb, a.log,
			notifier.WithChannelPrefix(a.cfg.Notifier.ChannelPrefix),
		)
		brokerOpts = append(brokerOpts, notifier.WithSink(sink))
		a.log.LogAttrs(context.Background(), logger.InfoLevel, "redis event sink enabled",
			logger.String("addr", a.cfg.Redis.Addr),
		)
	}
	a.broker = notifier.NewBroker(a.log, brokerOpts...)

	a.engine = engine.New(
		a.reg,
		clock.NewSystem(),
		a.broker,
		a.log,
		engine.WithTTLBounds(a.cfg.Engine.MinTTL, a.cfg.Engine.MaxTTL),
		engine.WithMaxResources(a.cfg.Engine.MaxResourcesPerReservation),
		engine.WithMetrics(metrics),
	)

	a.sweeper = sweeper.New(a.engine, a.cfg.Sweeper.Interval, a.log)

	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.metricsServer = &http.Server{
			Addr:    a.cfg.Metrics.Addr,
			Handler: mux,
		}
	}
}

// Engine exposes the reservation engine to embedding callers.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Broker exposes the event broker for Subscribe streams.
func (a *App) Broker() *notifier.Broker {
	return a.broker
}

func (a *App) Logger() logger.Logger {
	return a.log
}

// Run starts the sweeper and the metrics endpoint and blocks until the
// context is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	go a.sweeper.Start(ctx)

	errCh := make(chan error, 1)
	if a.metricsServer != nil {
		go func() {
			a.log.LogAttrs(ctx, logger.InfoLevel, "metrics server starting",
				logger.String("addr", a.metricsServer.Addr),
			)
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.log.LogAttrs(context.Background(), logger.InfoLevel, "shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.log.LogAttrs(context.Background(), logger.InfoLevel, "shutting down...")

	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		a.log.LogAttrs(context.Background(), logger.InfoLevel, "metrics server stopped")
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
		a.log.LogAttrs(context.Background(), logger.InfoLevel, "redis connection closed")
	}

	a.log.LogAttrs(context.Background(), logger.InfoLevel, "app stopped")

	return nil
}
