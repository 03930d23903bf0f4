package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/config"
	"github.com/Capstone-E1/aquahealth_backend/internal/cache"
	"github.com/Capstone-E1/aquahealth_backend/internal/database"
	httphandlers "github.com/Capstone-E1/aquahealth_backend/internal/http"
	"github.com/Capstone-E1/aquahealth_backend/internal/logger"
	"github.com/Capstone-E1/aquahealth_backend/internal/ml"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/mqtt"
	"github.com/Capstone-E1/aquahealth_backend/internal/predictor"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"github.com/Capstone-E1/aquahealth_backend/internal/ws"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is normal in deployed environments
	envErr := godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "aquahealth-backend")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if envErr != nil {
		log.Debug("No .env file loaded", zap.Error(envErr))
	}
	log.Info("Starting AquaHealth backend",
		zap.String("port", cfg.Server.Port),
		zap.String("environment", cfg.Server.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dataStore := openStore(cfg, log)
	defer dataStore.Close()

	sensors := repository.NewSensors(dataStore, log)
	predictions := repository.NewPredictions(dataStore, log)

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	client := predictor.NewClient(cfg.Predictor, log)
	disease := ml.NewDiseaseService(client, sensors, predictions, hub, log)

	// MQTT ingestion is optional
	if cfg.MQTT.BrokerURL != "" {
		mqttClient := mqtt.NewClient(cfg.MQTT, func(ctx context.Context, reading *models.SensorReading) error {
			saved, err := sensors.Create(ctx, reading)
			if err != nil {
				return err
			}
			hub.BroadcastSensorReading(saved)
			return nil
		}, log)
		if err := mqttClient.Connect(); err != nil {
			log.Warn("Continuing without MQTT ingestion", zap.Error(err))
		} else {
			defer mqttClient.Disconnect()
		}
	} else {
		log.Info("MQTT broker not configured, skipping MQTT ingestion")
	}

	api := httphandlers.NewServer(httphandlers.Dependencies{
		Regions:     repository.NewRegions(dataStore, log),
		Users:       repository.NewUsers(dataStore, log),
		Sensors:     sensors,
		Predictions: predictions,
		Disease:     disease,
		Hub:         hub,
		Logger:      log,
		Production:  cfg.Server.IsProduction(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server shutdown complete")
}

// openStore picks PostgreSQL when configured and falls back to memory. Redis, when
// enabled, caches lookups in front of whichever store was chosen.
func openStore(cfg *config.Config, log *zap.Logger) store.DocumentStore {
	var ds store.DocumentStore = store.NewStore()

	if cfg.Database.URL != "" || cfg.Database.Host != "" {
		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			log.Warn("Falling back to in-memory storage", zap.Error(err))
		} else if err := database.CreateTables(db.DB, log); err != nil {
			log.Error("Failed to create tables, falling back to in-memory storage", zap.Error(err))
			db.Close()
		} else {
			ds = database.NewDatabaseStore(db.DB, log)
			log.Info("Using PostgreSQL document store")
		}
	} else {
		log.Info("Database not configured, using in-memory storage")
	}

	if cfg.Redis.Enabled {
		rdb := cache.NewRedisClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unavailable, running without cache", zap.Error(err))
			rdb.Close()
			return ds
		}
		ds = cache.NewCachedStore(ds, rdb, cfg.Redis.TTL, cfg.Redis.KeyPrefix, log)
		log.Info("Redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	return ds
}
