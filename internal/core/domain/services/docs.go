// Package services contains stateless domain services that coordinate
// behavior across aggregates.
//
// StockAllocator plans all-or-nothing stock reservations for an order's
// items and releases them on cancellation or return. It operates purely on
// in-memory aggregates; transactional boundaries and per-SKU locking are the
// application and persistence layers' responsibility.
package services
