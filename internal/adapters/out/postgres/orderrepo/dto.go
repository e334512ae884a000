// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. It implements the repository pattern for the order
// aggregate, converting between domain entities and database rows.
package orderrepo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// JSONMap is a string map persisted as a JSONB column.
type JSONMap map[string]string

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("cannot scan %T into JSONMap", src)
}

// GormDataType tells GORM to create a jsonb column.
func (JSONMap) GormDataType() string {
	return "jsonb"
}

// TimeMap is a status-keyed timestamp map persisted as a JSONB column.
// Used for the order's milestone record.
type TimeMap map[string]time.Time

// Value implements driver.Valuer.
func (m TimeMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *TimeMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("cannot scan %T into TimeMap", src)
}

// GormDataType tells GORM to create a jsonb column.
func (TimeMap) GormDataType() string {
	return "jsonb"
}

// OrderDTO represents the database structure for persisting order aggregates.
// The (org_id, channel, external_order_id) triple carries a unique index: it
// is the idempotency key that makes channel imports collapse into one row.
type OrderDTO struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID           uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_orders_external,priority:1"`
	Channel         string    `gorm:"uniqueIndex:idx_orders_external,priority:2"`
	ExternalOrderID string    `gorm:"uniqueIndex:idx_orders_external,priority:3"`
	Currency        string    `gorm:"type:char(3)"`
	Status          string    `gorm:"index"`
	Milestones      TimeMap

	ShipTo AddressDTO `gorm:"embedded;embeddedPrefix:ship_to_"`

	PaymentConfirmed bool

	CarrierCode       string
	CarrierShipmentID string
	TrackingNumber    string

	Items []ItemDTO `gorm:"-"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// AddressDTO represents the embedded ship-to destination within the order
// table. An empty recipient name means no address was provided yet.
type AddressDTO struct {
	RecipientName string
	AddressLine   string
	City          string
	PostalCode    string
	CountryCode   string
}

// ItemDTO represents one order line. Lines are keyed by their external item
// identifier within an order, so re-imported payloads update in place.
type ItemDTO struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_order_items_external,priority:1"`
	ExternalItemID string    `gorm:"uniqueIndex:idx_order_items_external,priority:2"`
	SKUID          uuid.UUID `gorm:"type:uuid;index"`
	Quantity       int
	UnitPriceCents int64
}

// TableName specifies the database table name for order line entities.
func (ItemDTO) TableName() string {
	return "order_items"
}

// TimelineEventDTO represents one append-only audit record.
type TimelineEventDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;index"`
	EventType  string
	Actor      string
	FromStatus *string
	ToStatus   *string
	Metadata   JSONMap
	OccurredAt time.Time `gorm:"index"`
}

// TableName specifies the database table name for timeline events.
func (TimelineEventDTO) TableName() string {
	return "timeline_events"
}

// fromDomain converts an order aggregate to its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	milestones := make(TimeMap)
	for status, ts := range aggregate.Milestones() {
		milestones[status.String()] = ts
	}

	var shipTo AddressDTO
	if addr, ok := aggregate.ShipTo(); ok {
		shipTo = AddressDTO{
			RecipientName: addr.RecipientName(),
			AddressLine:   addr.AddressLine(),
			City:          addr.City(),
			PostalCode:    addr.PostalCode(),
			CountryCode:   addr.CountryCode(),
		}
	}

	items := make([]ItemDTO, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, ItemDTO{
			ID:             item.ID().Bytes(),
			OrderID:        aggregate.ID().Bytes(),
			ExternalItemID: item.ExternalItemID(),
			SKUID:          item.SKUID().Bytes(),
			Quantity:       item.Quantity(),
			UnitPriceCents: item.UnitPriceCents(),
		})
	}

	return OrderDTO{
		ID:                aggregate.ID().Bytes(),
		OrgID:             aggregate.OrgID().Bytes(),
		Channel:           aggregate.Channel(),
		ExternalOrderID:   aggregate.ExternalOrderID(),
		Currency:          aggregate.Currency(),
		Status:            aggregate.Status().String(),
		Milestones:        milestones,
		ShipTo:            shipTo,
		PaymentConfirmed:  aggregate.PaymentConfirmed(),
		CarrierCode:       aggregate.CarrierCode(),
		CarrierShipmentID: aggregate.CarrierShipmentID(),
		TrackingNumber:    aggregate.TrackingNumber(),
		Items:             items,
	}
}

// toDomain converts database rows back to an order aggregate via RestoreOrder.
func toDomain(dto OrderDTO, itemDTOs []ItemDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orgID, err := kernel.UUIDFromBytes(dto.OrgID[:])
	if err != nil {
		return nil, err
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	milestones := make(map[order.Status]time.Time, len(dto.Milestones))
	for name, ts := range dto.Milestones {
		s, msErr := order.StatusFromString(name)
		if msErr != nil {
			return nil, msErr
		}
		milestones[s] = ts
	}

	items := make([]*order.Item, 0, len(itemDTOs))
	for _, itemDTO := range itemDTOs {
		item, itemErr := itemToDomain(itemDTO)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	var shipTo *kernel.Address
	if dto.ShipTo.RecipientName != "" {
		addr, addrErr := kernel.NewAddress(
			dto.ShipTo.RecipientName, dto.ShipTo.AddressLine,
			dto.ShipTo.City, dto.ShipTo.PostalCode, dto.ShipTo.CountryCode,
		)
		if addrErr != nil {
			return nil, addrErr
		}
		shipTo = &addr
	}

	return order.RestoreOrder(
		id, orgID,
		dto.Channel, dto.ExternalOrderID, dto.Currency,
		status, milestones, items, shipTo,
		dto.PaymentConfirmed,
		dto.CarrierCode, dto.CarrierShipmentID, dto.TrackingNumber,
	)
}

func itemToDomain(dto ItemDTO) (*order.Item, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	skuID, err := kernel.UUIDFromBytes(dto.SKUID[:])
	if err != nil {
		return nil, err
	}

	return order.RestoreItem(id, dto.ExternalItemID, skuID, dto.Quantity, dto.UnitPriceCents)
}

// eventFromDomain converts a timeline event to its database representation.
func eventFromDomain(event *order.TimelineEvent) TimelineEventDTO {
	var fromStatus, toStatus *string
	if s := event.FromStatus(); s != nil {
		str := s.String()
		fromStatus = &str
	}
	if s := event.ToStatus(); s != nil {
		str := s.String()
		toStatus = &str
	}

	return TimelineEventDTO{
		ID:         event.ID().Bytes(),
		OrderID:    event.OrderID().Bytes(),
		EventType:  string(event.Type()),
		Actor:      string(event.Actor()),
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Metadata:   JSONMap(event.Metadata()),
		OccurredAt: event.OccurredAt(),
	}
}
