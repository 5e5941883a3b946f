package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/YelzhanWeb/cafe/internal/adapter/filelog"
	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/adapter/postgres"
	"github.com/YelzhanWeb/cafe/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/cafe/internal/adapter/tcp"
	"github.com/YelzhanWeb/cafe/internal/app/activity"
	"github.com/YelzhanWeb/cafe/internal/app/cafe"
	"github.com/YelzhanWeb/cafe/internal/app/kitchen"
	"github.com/YelzhanWeb/cafe/internal/app/tracking"
	"github.com/YelzhanWeb/cafe/internal/config"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/YelzhanWeb/cafe/internal/metrics"

	amqpAdapter "github.com/YelzhanWeb/cafe/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/cafe/internal/adapter/http"
)

func main() {
	mode := pflag.String("mode", "barista", "Run mode: barista, customer, notification-subscriber")
	configPath := pflag.String("config", "config.yaml", "Path to the YAML config file")
	addr := pflag.String("addr", "localhost:8888", "Café address (for customer)")
	logLevel := pflag.String("log-level", "", "Log level override: debug, info, warn, error")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "barista":
		lgr, err := logger.New(*mode, cfg.Logging.Level)
		if err != nil {
			log.Fatalf("Failed to create logger: %v", err)
		}
		if err := runBarista(ctx, cfg, lgr); err != nil {
			lgr.Error("service_failed", "Barista stopped with an error", "shutdown", nil, err)
			os.Exit(1)
		}

	case "customer":
		client := &tcp.Client{Addr: *addr, In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
		if err := client.Run(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}

	case "notification-subscriber":
		lgr, err := logger.New(*mode, cfg.Logging.Level)
		if err != nil {
			log.Fatalf("Failed to create logger: %v", err)
		}
		if err := runNotificationSubscriber(ctx, cfg, lgr); err != nil && !errors.Is(err, context.Canceled) {
			lgr.Error("service_failed", "Subscriber stopped with an error", "shutdown", nil, err)
			os.Exit(1)
		}

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func engineConfig(c config.CafeConfig) cafe.Config {
	return cafe.Config{
		TeaCapacity:           c.TeaCapacity,
		CoffeeCapacity:        c.CoffeeCapacity,
		TeaWorkers:            c.TeaWorkers,
		CoffeeWorkers:         c.CoffeeWorkers,
		TeaBrewTime:           c.TeaBrewTime.Std(),
		CoffeeBrewTime:        c.CoffeeBrewTime.Std(),
		IdlePollInterval:      c.IdlePollInterval.Std(),
		DisconnectLockTimeout: c.DisconnectLockTimeout.Std(),
		AreaLockTimeout:       c.AreaLockTimeout.Std(),
	}
}

func runBarista(ctx context.Context, cfg *config.Config, lgr logger.Logger) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var (
		sinks      []interfaces.ActivitySink
		publisher  interfaces.EventPublisher
		history    interfaces.ActivityRepository
		workerRepo interfaces.WorkerRepository
	)

	if cfg.Activity.File != "" {
		fileSink, err := filelog.Open(cfg.Activity.File)
		if err != nil {
			return err
		}
		sinks = append(sinks, fileSink)
	}

	if cfg.Database.Enabled {
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})

		history = postgres.NewActivityRepository(db)
		workerRepo = postgres.NewWorkerRepository(db)
		sinks = append(sinks, activity.RepositorySink("postgres", history))
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, dialErr := rabbitmq.Connect(cfg.RabbitMQ)
		if dialErr != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", dialErr)
		}
		defer func() { err = multierr.Append(err, mqConn.Close()) }()

		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})

		publisher = rabbitmq.NewPublisher(mqConn)
		sinks = append(sinks, activity.PublisherSink(publisher))
	}

	recorder := activity.NewRecorder(lgr, m, publisher, cfg.Activity.Buffer, sinks...)
	engine := cafe.NewEngine(engineConfig(cfg.Cafe), lgr, m, recorder)

	// The recorder outlives the other components so the final disconnects are flushed.
	recCtx, recCancel := context.WithCancel(context.Background())
	recErr := make(chan error, 1)
	go func() { recErr <- recorder.Run(recCtx) }()
	defer func() {
		recCancel()
		err = multierr.Append(err, <-recErr)
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return engine.Run(gctx) })

	server := tcp.NewServer(tcp.ServerConfig{
		Address:           cfg.Server.Address,
		DisconnectRetries: cfg.Cafe.DisconnectRetries,
		RetryDelay:        cfg.Cafe.AreaLockTimeout.Std(),
	}, engine, lgr)
	g.Go(func() error { return server.Run(gctx) })

	if cfg.HTTP.Enabled {
		trackingService := tracking.NewService(engine, history, lgr)
		router := httpAdapter.NewRouter(httpAdapter.NewTrackingHandler(trackingService, lgr), reg, lgr)
		g.Go(func() error { return serveHTTP(gctx, cfg.HTTP.Address, router, lgr) })
	}

	if workerRepo != nil {
		heartbeat := kitchen.NewService(engine, workerRepo, lgr, cfg.Database.HeartbeatInterval.Std())
		g.Go(func() error { return heartbeat.Run(gctx) })
	}

	lgr.Info("service_started", fmt.Sprintf("Barista is listening on %s", cfg.Server.Address), "startup", map[string]interface{}{
		"tea_capacity":    cfg.Cafe.TeaCapacity,
		"coffee_capacity": cfg.Cafe.CoffeeCapacity,
		"database":        cfg.Database.Enabled,
		"rabbitmq":        cfg.RabbitMQ.Enabled,
	})

	err = g.Wait()
	lgr.Info("graceful_shutdown", "Barista shut down", "shutdown", nil)
	return err
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, lgr logger.Logger) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during HTTP shutdown", "shutdown", nil, err)
		}
	}()

	lgr.Info("http_started", fmt.Sprintf("Tracking API listening on %s", addr), "startup", nil)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, lgr)
	handler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", map[string]interface{}{
		"exchange": rabbitmq.NotificationsExchange,
	})

	return consumer.ConsumeNotifications(ctx, handler.HandleNotification)
}
