package carrier

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"fulfillment/internal/core/ports"
)

// CodeDHL is the carrier code the DHL adapter registers under.
const CodeDHL = "dhl"

// DHLAdapter books shipments and polls tracking against the DHL parcel API.
type DHLAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewDHLAdapter creates a DHL adapter. The client timeout is a transport
// backstop; callers bound individual requests via context.
func NewDHLAdapter(baseURL, apiKey string, logger *slog.Logger) *DHLAdapter {
	return &DHLAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With("component", "dhl_adapter"),
	}
}

// Code returns the carrier code the adapter serves.
func (a *DHLAdapter) Code() string {
	return CodeDHL
}

type dhlShipmentRequest struct {
	CustomerReference string     `json:"customerReference"`
	Account           string     `json:"account"`
	Receiver          dhlAddress `json:"receiver"`
	WeightGrams       int        `json:"weightGrams"`
}

type dhlAddress struct {
	Name        string `json:"name"`
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
}

type dhlShipmentResponse struct {
	ShipmentID        string     `json:"shipmentId"`
	TrackingNumber    string     `json:"trackingNumber"`
	LabelData         string     `json:"labelData"`
	LabelFormat       string     `json:"labelFormat"`
	PriceCents        int64      `json:"priceCents"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// CreateShipment books a parcel on the given DHL account.
func (a *DHLAdapter) CreateShipment(
	ctx context.Context,
	account string,
	req ports.ShipmentRequest,
) (*ports.ShipmentResult, error) {
	body := dhlShipmentRequest{
		CustomerReference: req.Reference,
		Account:           account,
		Receiver: dhlAddress{
			Name:        req.RecipientName,
			Street:      req.AddressLine,
			City:        req.City,
			PostalCode:  req.PostalCode,
			CountryCode: req.CountryCode,
		},
		WeightGrams: req.WeightGrams,
	}

	var resp dhlShipmentResponse
	err := doJSON(ctx, a.client,
		"create_shipment", CodeDHL, http.MethodPost,
		a.baseURL+"/shipments", a.apiKey, req.CorrelationID,
		body, &resp,
	)
	if err != nil {
		a.logger.ErrorContext(ctx, "DHL shipment booking failed",
			"reference", req.Reference, "correlation_id", req.CorrelationID, "error", err)
		return nil, err
	}

	label, err := base64.StdEncoding.DecodeString(resp.LabelData)
	if err != nil {
		return nil, ports.NewTerminalIntegrationError("create_shipment", CodeDHL, 0,
			fmt.Errorf("label decode: %w", err))
	}

	a.logger.InfoContext(ctx, "DHL shipment booked",
		"shipment_id", resp.ShipmentID, "tracking_number", resp.TrackingNumber)

	return &ports.ShipmentResult{
		CarrierShipmentID: resp.ShipmentID,
		TrackingNumber:    resp.TrackingNumber,
		Label:             label,
		LabelContentType:  labelContentType(resp.LabelFormat),
		CostCents:         resp.PriceCents,
		EstimatedDelivery: resp.EstimatedDelivery,
	}, nil
}

type dhlTrackingResponse struct {
	Status string `json:"status"`
	Events []struct {
		Status      string    `json:"status"`
		Description string    `json:"description"`
		Timestamp   time.Time `json:"timestamp"`
	} `json:"events"`
}

// dhlStatuses maps DHL wire statuses to the carrier-neutral ones.
var dhlStatuses = map[string]ports.TrackingStatus{
	"PICKED_UP":        ports.TrackingPickedUp,
	"IN_TRANSIT":       ports.TrackingInTransit,
	"OUT_FOR_DELIVERY": ports.TrackingOutForDelivery,
	"DELIVERED":        ports.TrackingDelivered,
	"FAILED":           ports.TrackingFailed,
}

// GetTracking polls the parcel state for a tracking number.
func (a *DHLAdapter) GetTracking(
	ctx context.Context,
	account, trackingNumber, correlationID string,
) (*ports.TrackingResult, error) {
	endpoint := fmt.Sprintf("%s/tracking/%s?account=%s",
		a.baseURL, url.PathEscape(trackingNumber), url.QueryEscape(account))

	var resp dhlTrackingResponse
	err := doJSON(ctx, a.client,
		"get_tracking", CodeDHL, http.MethodGet,
		endpoint, a.apiKey, correlationID,
		nil, &resp,
	)
	if err != nil {
		a.logger.ErrorContext(ctx, "DHL tracking poll failed",
			"tracking_number", trackingNumber, "correlation_id", correlationID, "error", err)
		return nil, err
	}

	status, ok := dhlStatuses[resp.Status]
	if !ok {
		return nil, ports.NewTerminalIntegrationError("get_tracking", CodeDHL, 0,
			fmt.Errorf("unknown tracking status %q", resp.Status))
	}

	result := &ports.TrackingResult{Status: status}
	for _, ev := range resp.Events {
		if s, known := dhlStatuses[ev.Status]; known {
			result.Events = append(result.Events, ports.TrackingEvent{
				Status:      s,
				Description: ev.Description,
				OccurredAt:  ev.Timestamp,
			})
		}
	}

	return result, nil
}

func labelContentType(format string) string {
	if format == "ZPL" {
		return "application/zpl"
	}
	return "application/pdf"
}
