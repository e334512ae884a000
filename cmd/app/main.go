package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fulfillment/cmd"
	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/postgres/eventrepo"
	"fulfillment/internal/adapters/out/postgres/inventoryrepo"
	"fulfillment/internal/adapters/out/postgres/jobrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configs := getConfigs(logger)

	db, err := connectDB(configs)
	if err != nil {
		logger.Error("Database connection failed", "error", err)
		os.Exit(1)
	}

	if err = migrate(db); err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	app, err := cmd.NewCompositionRoot(configs, db, logger)
	if err != nil {
		logger.Error("Wiring failed", "error", err)
		os.Exit(1)
	}

	jobManager := app.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		logger.Error("Background jobs failed to start", "error", err)
		os.Exit(1)
	}
	defer jobManager.StopAll()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	server := httpin.NewServer(
		app.CreateIngestEventCommandHandler(),
		app.CreateTransitionOrderCommandHandler(),
		app.CreateCreateSKUCommandHandler(),
		app.CreateAdjustStockCommandHandler(),
		app.CreateGetOrderQueryHandler(),
		app.CreateGetStockQueryHandler(),
	)
	server.RegisterRoutes(e)

	go func() {
		if startErr := e.Start("0.0.0.0:" + configs.HTTPPort); startErr != nil && startErr != http.ErrServerClosed {
			logger.Error("HTTP server stopped", "error", startErr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err = e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
}

func connectDB(configs cmd.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser, configs.DBPassword, configs.DBName, configs.DBSslMode)
	return gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
}

// migrate creates the schema, plus the one constraint AutoMigrate cannot
// express: the partial unique index enforcing at most one active reservation
// per order and SKU.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.ItemDTO{},
		&orderrepo.TimelineEventDTO{},
		&inventoryrepo.SKUDTO{},
		&inventoryrepo.ReservationDTO{},
		&jobrepo.JobDTO{},
		&eventrepo.ProcessedEventDTO{},
		&eventrepo.ProcessedJobDTO{},
	); err != nil {
		return err
	}

	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_active
		ON reservations (order_id, sku_id)
		WHERE released = false
	`).Error
}

func getConfigs(logger *slog.Logger) cmd.Config {
	if err := godotenv.Load(".env"); err != nil {
		logger.Info("No .env file, using process environment")
	}

	return cmd.Config{
		HTTPPort:   envOr("HTTP_PORT", "8080"),
		DBHost:     envOr("DB_HOST", "localhost"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     envOr("DB_USER", "postgres"),
		DBPassword: envOr("DB_PASSWORD", "postgres"),
		DBName:     envOr("DB_NAME", "fulfillment"),
		DBSslMode:  envOr("DB_SSLMODE", "disable"),

		WebhookSecrets: parseSecrets(os.Getenv("WEBHOOK_SECRETS")),

		DefaultCarrier:     envOr("DEFAULT_CARRIER", "dhl"),
		CarrierAccount:     os.Getenv("CARRIER_ACCOUNT"),
		CarrierCallTimeout: envDuration("CARRIER_CALL_TIMEOUT", 30*time.Second),
		DHLBaseURL:         os.Getenv("DHL_BASE_URL"),
		DHLAPIKey:          os.Getenv("DHL_API_KEY"),
		FedExBaseURL:       os.Getenv("FEDEX_BASE_URL"),
		FedExAPIKey:        os.Getenv("FEDEX_API_KEY"),

		LabelDir: envOr("LABEL_DIR", "labels"),

		WebhookWorkers:  envInt("WEBHOOK_WORKERS", 4),
		ShipmentWorkers: envInt("SHIPMENT_WORKERS", 2),
		TrackingWorkers: envInt("TRACKING_WORKERS", 2),
		PollInterval:    envDuration("WORKER_POLL_INTERVAL", time.Second),
		LeaseFor:        envDuration("WORKER_LEASE_FOR", 2*time.Minute),

		TrackingSchedule: envOr("TRACKING_SCHEDULE", "0 */5 * * * *"),
		ReclaimSchedule:  envOr("RECLAIM_SCHEDULE", "30 * * * * *"),
	}
}

// parseSecrets reads "source:secret,source:secret" pairs.
func parseSecrets(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		source, secret, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || source == "" {
			continue
		}
		out[source] = secret
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
