package order

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// ErrTimelineEventIsNotConstructed is returned when a TimelineEvent was not
// created through NewTimelineEvent or one of its helpers.
var ErrTimelineEventIsNotConstructed = errors.New("TimelineEvent must be created via NewTimelineEvent")

// EventType classifies a timeline entry.
type EventType string

const (
	EventStatusChanged   EventType = "status_changed"
	EventNote            EventType = "note"
	EventStockReserved   EventType = "stock_reserved"
	EventStockReleased   EventType = "stock_released"
	EventStockShortfall  EventType = "stock_shortfall"
	EventShipmentCreated EventType = "shipment_created"
	EventShipmentFailed  EventType = "shipment_failed"
	EventTrackingUpdated EventType = "tracking_updated"
)

// Actor identifies who or what caused a timeline entry.
type Actor string

const (
	ActorSystem  Actor = "system"
	ActorUser    Actor = "user"
	ActorChannel Actor = "channel"
	ActorCarrier Actor = "carrier"
)

// Validate checks the actor is one of the defined kinds.
func (a Actor) Validate() error {
	switch a {
	case ActorSystem, ActorUser, ActorChannel, ActorCarrier:
		return nil
	}
	return errs.NewValueIsInvalidError("actor")
}

// TimelineEvent is an append-only audit record on an order. One is recorded
// for every transition, note, and inventory side effect; events are never
// mutated or deleted.
type TimelineEvent struct {
	id         kernel.UUID
	orderID    kernel.UUID
	eventType  EventType
	actor      Actor
	fromStatus *Status
	toStatus   *Status
	metadata   map[string]string
	occurredAt time.Time

	isConstructed bool
}

// NewTimelineEvent creates a generic timeline entry for the given order.
// Metadata may be nil; it is copied when present.
func NewTimelineEvent(orderID kernel.UUID, eventType EventType, actor Actor, metadata map[string]string) (*TimelineEvent, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if eventType == "" {
		return nil, errs.NewValueIsRequiredError("eventType")
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	ev := &TimelineEvent{
		id:            kernel.NewUUID(),
		orderID:       orderID,
		eventType:     eventType,
		actor:         actor,
		occurredAt:    time.Now().UTC(),
		isConstructed: true,
	}
	if len(metadata) > 0 {
		ev.metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			ev.metadata[k] = v
		}
	}
	return ev, nil
}

// NewStatusChangedEvent creates the audit entry for a status transition.
// An optional comment is recorded in the metadata.
func NewStatusChangedEvent(orderID kernel.UUID, actor Actor, from, to Status, comment string) (*TimelineEvent, error) {
	var metadata map[string]string
	if comment != "" {
		metadata = map[string]string{"comment": comment}
	}

	ev, err := NewTimelineEvent(orderID, EventStatusChanged, actor, metadata)
	if err != nil {
		return nil, err
	}

	fromCopy, toCopy := from, to
	ev.fromStatus = &fromCopy
	ev.toStatus = &toCopy
	return ev, nil
}

// RestoreTimelineEvent rehydrates a timeline entry from persistence.
func RestoreTimelineEvent(
	id, orderID kernel.UUID,
	eventType EventType,
	actor Actor,
	fromStatus, toStatus *Status,
	metadata map[string]string,
	occurredAt time.Time,
) (*TimelineEvent, error) {
	ev, err := NewTimelineEvent(orderID, eventType, actor, metadata)
	if err != nil {
		return nil, err
	}
	if err = id.Validate(); err != nil {
		return nil, err
	}

	ev.id = id
	ev.fromStatus = fromStatus
	ev.toStatus = toStatus
	ev.occurredAt = occurredAt
	return ev, nil
}

// Validate ensures the event was constructed through a factory function.
func (e *TimelineEvent) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrTimelineEventIsNotConstructed
	}
	return nil
}

// ID returns the event's unique identifier.
func (e *TimelineEvent) ID() kernel.UUID {
	return e.id
}

// OrderID returns the identifier of the order the event belongs to.
func (e *TimelineEvent) OrderID() kernel.UUID {
	return e.orderID
}

// Type returns the event classification.
func (e *TimelineEvent) Type() EventType {
	return e.eventType
}

// Actor returns who caused the event.
func (e *TimelineEvent) Actor() Actor {
	return e.actor
}

// FromStatus returns the pre-transition status for status_changed events, nil otherwise.
func (e *TimelineEvent) FromStatus() *Status {
	return e.fromStatus
}

// ToStatus returns the post-transition status for status_changed events, nil otherwise.
func (e *TimelineEvent) ToStatus() *Status {
	return e.toStatus
}

// Metadata returns the event's metadata blob. May be nil.
func (e *TimelineEvent) Metadata() map[string]string {
	return e.metadata
}

// OccurredAt returns when the event was recorded.
func (e *TimelineEvent) OccurredAt() time.Time {
	return e.occurredAt
}
