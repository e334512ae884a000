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

// CodeFedEx is the carrier code the FedEx adapter registers under.
const CodeFedEx = "fedex"

// FedExAdapter books shipments and polls tracking against the FedEx ship API.
type FedExAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewFedExAdapter creates a FedEx adapter.
func NewFedExAdapter(baseURL, apiKey string, logger *slog.Logger) *FedExAdapter {
	return &FedExAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With("component", "fedex_adapter"),
	}
}

// Code returns the carrier code the adapter serves.
func (a *FedExAdapter) Code() string {
	return CodeFedEx
}

type fedexShipmentRequest struct {
	AccountNumber string `json:"accountNumber"`
	Reference     string `json:"reference"`
	Recipient     struct {
		PersonName  string `json:"personName"`
		StreetLine  string `json:"streetLine"`
		City        string `json:"city"`
		PostalCode  string `json:"postalCode"`
		CountryCode string `json:"countryCode"`
	} `json:"recipient"`
	WeightGrams int `json:"weightGrams"`
}

type fedexShipmentResponse struct {
	TransactionID  string `json:"transactionId"`
	TrackingNumber string `json:"trackingNumber"`
	Label          struct {
		EncodedLabel string `json:"encodedLabel"`
		DocType      string `json:"docType"`
	} `json:"label"`
	NetChargeCents   int64      `json:"netChargeCents"`
	DeliveryEstimate *time.Time `json:"deliveryEstimate"`
}

// CreateShipment books a parcel on the given FedEx account.
func (a *FedExAdapter) CreateShipment(
	ctx context.Context,
	account string,
	req ports.ShipmentRequest,
) (*ports.ShipmentResult, error) {
	var body fedexShipmentRequest
	body.AccountNumber = account
	body.Reference = req.Reference
	body.Recipient.PersonName = req.RecipientName
	body.Recipient.StreetLine = req.AddressLine
	body.Recipient.City = req.City
	body.Recipient.PostalCode = req.PostalCode
	body.Recipient.CountryCode = req.CountryCode
	body.WeightGrams = req.WeightGrams

	var resp fedexShipmentResponse
	err := doJSON(ctx, a.client,
		"create_shipment", CodeFedEx, http.MethodPost,
		a.baseURL+"/ship/v1/shipments", a.apiKey, req.CorrelationID,
		body, &resp,
	)
	if err != nil {
		a.logger.ErrorContext(ctx, "FedEx shipment booking failed",
			"reference", req.Reference, "correlation_id", req.CorrelationID, "error", err)
		return nil, err
	}

	label, err := base64.StdEncoding.DecodeString(resp.Label.EncodedLabel)
	if err != nil {
		return nil, ports.NewTerminalIntegrationError("create_shipment", CodeFedEx, 0,
			fmt.Errorf("label decode: %w", err))
	}

	a.logger.InfoContext(ctx, "FedEx shipment booked",
		"shipment_id", resp.TransactionID, "tracking_number", resp.TrackingNumber)

	return &ports.ShipmentResult{
		CarrierShipmentID: resp.TransactionID,
		TrackingNumber:    resp.TrackingNumber,
		Label:             label,
		LabelContentType:  labelContentType(resp.Label.DocType),
		CostCents:         resp.NetChargeCents,
		EstimatedDelivery: resp.DeliveryEstimate,
	}, nil
}

type fedexTrackingResponse struct {
	LatestStatus string `json:"latestStatus"`
	ScanEvents   []struct {
		Status      string    `json:"status"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
	} `json:"scanEvents"`
}

// fedexStatuses maps FedEx scan codes to the carrier-neutral statuses.
var fedexStatuses = map[string]ports.TrackingStatus{
	"PU": ports.TrackingPickedUp,
	"IT": ports.TrackingInTransit,
	"OD": ports.TrackingOutForDelivery,
	"DL": ports.TrackingDelivered,
	"DE": ports.TrackingFailed,
}

// GetTracking polls the parcel state for a tracking number.
func (a *FedExAdapter) GetTracking(
	ctx context.Context,
	account, trackingNumber, correlationID string,
) (*ports.TrackingResult, error) {
	endpoint := fmt.Sprintf("%s/track/v1/%s?account=%s",
		a.baseURL, url.PathEscape(trackingNumber), url.QueryEscape(account))

	var resp fedexTrackingResponse
	err := doJSON(ctx, a.client,
		"get_tracking", CodeFedEx, http.MethodGet,
		endpoint, a.apiKey, correlationID,
		nil, &resp,
	)
	if err != nil {
		a.logger.ErrorContext(ctx, "FedEx tracking poll failed",
			"tracking_number", trackingNumber, "correlation_id", correlationID, "error", err)
		return nil, err
	}

	status, ok := fedexStatuses[resp.LatestStatus]
	if !ok {
		return nil, ports.NewTerminalIntegrationError("get_tracking", CodeFedEx, 0,
			fmt.Errorf("unknown scan code %q", resp.LatestStatus))
	}

	result := &ports.TrackingResult{Status: status}
	for _, ev := range resp.ScanEvents {
		if s, known := fedexStatuses[ev.Status]; known {
			result.Events = append(result.Events, ports.TrackingEvent{
				Status:      s,
				Description: ev.Description,
				OccurredAt:  ev.Date,
			})
		}
	}

	return result, nil
}
