package cmd

import "time"

// Config carries everything the composition root needs to wire the service.
// Values come from the environment; see cmd/app.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// WebhookSecrets maps a channel source name to its HMAC signing secret.
	WebhookSecrets map[string]string

	// Carrier integration.
	DefaultCarrier     string
	CarrierAccount     string
	CarrierCallTimeout time.Duration
	DHLBaseURL         string
	DHLAPIKey          string
	FedExBaseURL       string
	FedExAPIKey        string

	// LabelDir is where shipping label files are stored.
	LabelDir string

	// Worker pool sizing per queue.
	WebhookWorkers  int
	ShipmentWorkers int
	TrackingWorkers int
	PollInterval    time.Duration
	LeaseFor        time.Duration

	// Cron expressions (with seconds) for the background sweeps.
	TrackingSchedule string
	ReclaimSchedule  string
}
