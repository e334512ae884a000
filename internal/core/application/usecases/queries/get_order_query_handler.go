package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderQueryHandler retrieves the order read model from the database.
//
// Example:
//
//	handler := NewGetOrderQueryHandler(db)
//	query, _ := NewGetOrderQuery(orgID, orderID)
//
//	resp, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for order read queries.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle executes the query. Returns *errs.ObjectNotFoundError when no order
// with the id exists inside the caller's organization.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	resp, err := h.loadOrder(ctx, query)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	resp.Items, err = h.loadItems(ctx, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	for _, item := range resp.Items {
		resp.TotalCents += int64(item.Quantity) * item.UnitPriceCents
	}

	resp.Timeline, err = h.loadTimeline(ctx, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	return resp, nil
}

func (h GetOrderQueryHandler) loadOrder(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			channel,
			external_order_id,
			currency,
			status,
			payment_confirmed,
			carrier_code,
			tracking_number,
			milestones
		FROM orders
		WHERE id = ? AND org_id = ?
	`, query.OrderID().String(), query.OrgID().String()).Row()

	var resp GetOrderQueryResponse
	var id uuid.UUID
	var carrierCode, trackingNumber sql.NullString
	var milestonesRaw []byte

	err := row.Scan(
		&id,
		&resp.Channel,
		&resp.ExternalOrderID,
		&resp.Currency,
		&resp.Status,
		&resp.PaymentConfirmed,
		&carrierCode,
		&trackingNumber,
		&milestonesRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	resp.ID = orderID
	resp.CarrierCode = carrierCode.String
	resp.TrackingNumber = trackingNumber.String

	resp.Milestones = make(map[string]time.Time)
	if len(milestonesRaw) > 0 {
		if err = json.Unmarshal(milestonesRaw, &resp.Milestones); err != nil {
			return GetOrderQueryResponse{}, err
		}
	}

	return resp, nil
}

func (h GetOrderQueryHandler) loadItems(ctx context.Context, orderID kernel.UUID) ([]GetOrderQueryItem, error) {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			i.external_item_id,
			s.code,
			i.quantity,
			i.unit_price_cents
		FROM order_items i
		JOIN skus s ON s.id = i.sku_id
		WHERE i.order_id = ?
		ORDER BY i.external_item_id
	`, orderID.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]GetOrderQueryItem, 0)

	for rows.Next() {
		var item GetOrderQueryItem
		if err = rows.Scan(
			&item.ExternalItemID,
			&item.SKUCode,
			&item.Quantity,
			&item.UnitPriceCents,
		); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (h GetOrderQueryHandler) loadTimeline(ctx context.Context, orderID kernel.UUID) ([]GetOrderQueryTimelineEvent, error) {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			event_type,
			actor,
			from_status,
			to_status,
			metadata,
			occurred_at
		FROM timeline_events
		WHERE order_id = ?
		ORDER BY occurred_at, id
	`, orderID.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]GetOrderQueryTimelineEvent, 0)

	for rows.Next() {
		var ev GetOrderQueryTimelineEvent
		var fromStatus, toStatus sql.NullString
		var metadataRaw []byte

		if err = rows.Scan(
			&ev.EventType,
			&ev.Actor,
			&fromStatus,
			&toStatus,
			&metadataRaw,
			&ev.OccurredAt,
		); err != nil {
			return nil, err
		}

		ev.FromStatus = fromStatus.String
		ev.ToStatus = toStatus.String
		if len(metadataRaw) > 0 {
			if err = json.Unmarshal(metadataRaw, &ev.Metadata); err != nil {
				return nil, err
			}
		}

		events = append(events, ev)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
