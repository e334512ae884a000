// Package carrier provides HTTP implementations of the CarrierAdapter port
// and the registry that resolves them by carrier code.
package carrier

import (
	"fulfillment/internal/core/ports"
)

// Registry is a lookup table of carrier adapters keyed by carrier code.
// Carrier selection is data: adding a carrier means registering one more
// adapter, with no branching at call sites.
type Registry struct {
	adapters map[string]ports.CarrierAdapter
}

// NewRegistry creates a registry holding the given adapters.
func NewRegistry(adapters ...ports.CarrierAdapter) *Registry {
	byCode := make(map[string]ports.CarrierAdapter, len(adapters))
	for _, adapter := range adapters {
		byCode[adapter.Code()] = adapter
	}
	return &Registry{adapters: byCode}
}

// Adapter returns the adapter for the code, or ErrUnknownCarrier.
func (r *Registry) Adapter(code string) (ports.CarrierAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, ports.ErrUnknownCarrier
	}
	return adapter, nil
}
