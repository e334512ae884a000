// Package inventory provides the inventory ledger's domain model: per-SKU
// on-hand/reserved counters and the reservations that hold stock for orders.
//
// The defining correctness property of the ledger is that the sum of active
// reservations for a SKU never exceeds its on-hand quantity, even under
// concurrent reservation attempts. The aggregate enforces the arithmetic
// invariant (0 <= reserved <= quantityOnHand); the persistence adapter
// provides the per-SKU serialization that makes it hold under concurrency.
package inventory
