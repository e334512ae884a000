// Package order provides domain entities and business logic for the order
// lifecycle in the fulfillment system. It implements the Order aggregate root
// with its line items, an append-only timeline, and the status state machine.
//
// The package includes:
//   - Order: The aggregate root managing identity, line items, and lifecycle
//   - Item: A line referencing a SKU, upserted by its external item identifier
//   - Status: A state machine enforcing the lifecycle adjacency table
//   - TimelineEvent: The append-only audit record for transitions and side effects
//
// Key business rules:
//   - Orders are imported from sales channels; (organization, channel,
//     external order id) is the idempotency key for imports
//   - The lifecycle runs forward from NEW through delivery; every non-terminal
//     status may be cancelled, and DELIVERED may become RETURNED
//   - Entering RESERVED requires a stock reservation; entering CANCELLED or
//     RETURNED releases it. The aggregate validates transitions, the
//     application layer performs the inventory side effects atomically
//   - Every transition and side effect appends a timeline event
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
