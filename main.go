package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"coffee-menu/config"
	httpapi "coffee-menu/internal/api/http"
	"coffee-menu/internal/logging"
	"coffee-menu/internal/metrics"
	"coffee-menu/internal/service"
	"coffee-menu/internal/storage"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	var publisher service.MenuPublisher
	if writer := config.NewKafkaWriter(cfg.Kafka); writer != nil {
		defer writer.Close()
		publisher = storage.NewKafkaPublisher(writer)
		log.WithField("topic", cfg.Kafka.Topic).Info("publishing menu events to kafka")
	}

	menuService := service.NewMenuService(repo, publisher, service.DefaultQRGenerator{BaseURL: cfg.PublicBaseURL}, log)

	views, err := httpapi.NewViews()
	if err != nil {
		log.WithError(err).Fatal("Failed to parse templates")
	}

	handler := httpapi.NewHandler(menuService, views, log)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        metrics.New(),
		Log:            log,
	})

	server := httpapi.NewServer(":"+cfg.Port, router)
	go func() {
		log.Infof("Listening on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (service.MenuRepository, func()) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db := config.MustInitPostgres(cfg.Postgres, log)
		repo := storage.NewPostgresRepository(db, cfg.Collection, log)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.WithError(err).Fatal("Failed to ensure schema")
		}
		return repo, func() { db.Close() }
	case config.DriverMongo:
		client := config.MustInitMongo(ctx, cfg.Mongo, log)
		collection := client.Database(cfg.Mongo.Database).Collection(cfg.Collection)
		return storage.NewMongoRepository(collection, log), func() {
			client.Disconnect(context.Background())
		}
	default:
		log.Fatalf("unknown STORE_DRIVER %q", cfg.StoreDriver)
		return nil, nil
	}
}
