package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/logging"
	"example.com/exercisetracker/internal/observability"
	"example.com/exercisetracker/internal/outbox"
	"example.com/exercisetracker/internal/persistence/memory"
	"example.com/exercisetracker/internal/persistence/mongodb"
	"example.com/exercisetracker/internal/persistence/postgres"
	httptransport "example.com/exercisetracker/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("exercise tracker stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	var dispatcher *outbox.Dispatcher
	if cfg.OutboxEnabled() {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer func() {
			if err := producer.Close(); err != nil {
				log.WithError(err).Warn("closing kafka producer")
			}
		}()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(st.pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize,
			log.WithField("component", "outbox"))
		go dispatcher.Start(ctx)
		log.WithField("brokers", cfg.KafkaBrokers).Info("outbox dispatcher started")
	}

	service := domain.NewService(st.repo, domain.WithRecorder(observability.NewDomainRecorder()))

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, newRouter(cfg, service, log))

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"address": cfg.HTTPAddress,
			"store":   cfg.StoreDriver,
			"auth":    cfg.AuthEnabled(),
		}).Info("exercise tracker listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdownCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
	return nil
}

// store bundles the selected repository with its connection teardown. pool is
// set only for the postgres driver.
type store struct {
	repo  domain.Repository
	pool  *pgxpool.Pool
	close func()
}

func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := pgxpool.New(connectCtx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(connectCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := postgres.Migrate(connectCtx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("using postgres store")
		return &store{repo: postgres.NewRepository(pool), pool: pool, close: pool.Close}, nil

	case config.StoreMongo:
		client, err := mongodb.Connect(connectCtx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		repo := mongodb.NewRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(connectCtx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.WithField("database", cfg.MongoDatabase).Info("using mongodb store")
		return &store{repo: repo, close: func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.WithError(err).Warn("disconnecting mongodb")
			}
		}}, nil
	}

	log.Warn("using in-memory store; data is lost on restart")
	return &store{repo: memory.NewRepository(), close: func() {}}, nil
}
