// Package queries contains read operations that bypass the domain model.
// Implements the Query side of the CQRS architecture: handlers read
// denormalized rows straight from the database and return plain response
// structs shaped for the API.
package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
)

// GetOrderQuery retrieves one order with its line items and full timeline.
//
// Example:
//
//	query, err := NewGetOrderQuery(orgID, orderID)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := handler.Handle(ctx, query)
type GetOrderQuery struct { //nolint:recvcheck //using for validation
	orgID   kernel.UUID
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderQuery creates a query scoped to the caller's organization.
func NewGetOrderQuery(orgID, orderID kernel.UUID) (GetOrderQuery, error) {
	q := GetOrderQuery{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(q.setOrgID(orgID), q.setOrderID(orderID)); err != nil {
		return GetOrderQuery{}, err
	}

	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// OrgID returns the caller's organization scope.
func (q GetOrderQuery) OrgID() kernel.UUID {
	return q.orgID
}

// OrderID returns the order to retrieve.
func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

func (q *GetOrderQuery) setOrgID(orgID kernel.UUID) error {
	if err := orgID.Validate(); err != nil {
		return err
	}
	q.orgID = orgID
	return nil
}

func (q *GetOrderQuery) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	q.orderID = orderID
	return nil
}

// GetOrderQueryResponse is the full read model of one order.
type GetOrderQueryResponse struct {
	ID               kernel.UUID                  `json:"id"`
	Channel          string                       `json:"channel"`
	ExternalOrderID  string                       `json:"external_order_id"`
	Currency         string                       `json:"currency"`
	Status           string                       `json:"status"`
	PaymentConfirmed bool                         `json:"payment_confirmed"`
	CarrierCode      string                       `json:"carrier_code,omitempty"`
	TrackingNumber   string                       `json:"tracking_number,omitempty"`
	TotalCents       int64                        `json:"total_cents"`
	Milestones       map[string]time.Time         `json:"milestones"`
	Items            []GetOrderQueryItem          `json:"items"`
	Timeline         []GetOrderQueryTimelineEvent `json:"timeline"`
}

// GetOrderQueryItem is one line of the order read model.
type GetOrderQueryItem struct {
	ExternalItemID string `json:"external_item_id"`
	SKUCode        string `json:"sku"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// GetOrderQueryTimelineEvent is one audit entry of the order read model.
type GetOrderQueryTimelineEvent struct {
	EventType  string            `json:"event_type"`
	Actor      string            `json:"actor"`
	FromStatus string            `json:"from_status,omitempty"`
	ToStatus   string            `json:"to_status,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
