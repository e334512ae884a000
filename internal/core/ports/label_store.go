package ports

import "context"

// LabelStore persists shipping label documents keyed by carrier shipment id.
// Opaque to the core; the filesystem implementation is the default.
type LabelStore interface {
	// Store saves the label bytes for a shipment.
	Store(ctx context.Context, shipmentID string, data []byte, contentType string) error

	// Retrieve returns the label bytes and content type for a shipment.
	Retrieve(ctx context.Context, shipmentID string) ([]byte, string, error)
}
