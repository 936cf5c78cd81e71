// EcoRent Core - device rental marketplace backend
//
// This is the main entry point for the EcoRent API server. It wires the
// SQLite document store, the image blob store (S3 or embedded Badger), the
// account and device services, and the optional MQTT and InfluxDB
// notifiers behind the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/qrqwqeqt/GoF-Patt/migrations"

	"github.com/qrqwqeqt/GoF-Patt/internal/api"
	"github.com/qrqwqeqt/GoF-Patt/internal/audit"
	"github.com/qrqwqeqt/GoF-Patt/internal/auth"
	"github.com/qrqwqeqt/GoF-Patt/internal/device"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/config"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/database"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/influxdb"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/logging"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/mqtt"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/objectstore"
	"github.com/qrqwqeqt/GoF-Patt/internal/notify"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting EcoRent Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	blobs, images, closeBlobs, err := openBlobStore(cfg, log)
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}
	defer closeBlobs()

	// Services
	users := auth.NewUserRepository(db.DB)
	devices := device.NewService(
		device.NewSQLiteRepository(db.DB),
		objectstore.WithTimeout(blobs, cfg.GetStorageTimeout()),
		users,
	)
	devices.SetLogger(log.Component("device"))
	devices.SetMaxImages(cfg.Devices.MaxImages)
	devices.SetRequirePolicyAgreement(cfg.Devices.RequirePolicyAgreement)

	tokens := auth.NewTokenIssuer(cfg.Security.JWT.Secret, cfg.Security.JWT.AccessTokenTTL, cfg.Security.JWT.PremiumTokenTTL)
	accounts := auth.NewService(users, tokens, devices)
	accounts.SetLogger(log.Component("auth"))

	// Audit trail
	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo)
	recorder.SetLogger(log.Component("audit"))
	auditCtx, stopAudit := context.WithCancel(context.Background())
	go recorder.Run(auditCtx)
	defer func() {
		stopAudit()
		<-recorder.Done()
	}()
	devices.AddEventHandler(recorder)
	accounts.AddEventHandler(recorder)

	health := map[string]api.HealthChecker{"database": db}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		devices.AddEventHandler(notify.NewMQTTPublisher(mqttClient, cfg.Server.ID))
		health["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	var metrics api.RequestMetrics
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		devices.AddEventHandler(notify.NewInfluxRecorder(influxClient))
		health["influxdb"] = influxClient
		metrics = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	srv, err := api.New(api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Devices:       cfg.Devices,
		Logger:        log.Component("api"),
		DeviceService: devices,
		Accounts:      accounts,
		Tokens:        tokens,
		AuditRepo:     auditRepo,
		Images:        images,
		Metrics:       metrics,
		MQTT:          mqttClient,
		DB:            db.DB,
		Health:        health,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	devices.AddEventHandler(srv.Hub())

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, audit recorder, blob store, database.

	log.Info("EcoRent Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ECORENT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ECORENT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openBlobStore opens the configured image store.
//
// Returns:
//   - objectstore.Gateway: store used by the device service
//   - objectstore.Reader: store served under /api/images, nil for S3
//   - func(): releases the store
//   - error: if the driver cannot be opened
func openBlobStore(cfg *config.Config, log *logging.Logger) (objectstore.Gateway, objectstore.Reader, func(), error) {
	switch cfg.Storage.Driver {
	case "s3":
		gw, err := objectstore.NewS3Gateway(objectstore.S3Config{
			Bucket:          cfg.Storage.S3.Bucket,
			Region:          cfg.Storage.S3.Region,
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			ForcePathStyle:  cfg.Storage.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("blob store ready", "driver", "s3", "bucket", cfg.Storage.S3.Bucket)
		return gw, nil, func() {}, nil

	case "badger":
		gw, err := objectstore.OpenBadgerGateway(objectstore.BadgerConfig{
			Dir:     cfg.Storage.Badger.Dir,
			BaseURL: imageBaseURL(cfg),
			Logger:  log.Component("badger"),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("blob store ready", "driver", "badger", "dir", cfg.Storage.Badger.Dir)
		return gw, gw, func() {
			log.Info("closing blob store")
			if closeErr := gw.Close(); closeErr != nil {
				log.Error("error closing blob store", "error", closeErr)
			}
		}, nil

	default:
		return nil, nil, nil, errors.New("unknown storage driver " + cfg.Storage.Driver)
	}
}

// imageBaseURL returns the locator prefix for Badger-stored images,
// defaulting to this server's own /api/images route.
func imageBaseURL(cfg *config.Config) string {
	if cfg.Storage.Badger.BaseURL != "" {
		return cfg.Storage.Badger.BaseURL
	}
	host := cfg.API.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d/api/images", host, cfg.API.Port)
}
