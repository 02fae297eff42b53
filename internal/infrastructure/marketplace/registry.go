package marketplace

import (
	"sort"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/domain/integration"
)

// Registry resolves marketplace codes to their adapter instances. Adapters
// are registered once at wiring time; the registry is read-only afterwards.
type Registry struct {
	adapters map[integration.MarketplaceCode]integration.MarketplaceAdapter
}

var _ integration.AdapterRegistry = (*Registry)(nil)

// NewRegistry creates a registry over the given adapters.
func NewRegistry(adapters ...integration.MarketplaceAdapter) *Registry {
	byCode := make(map[integration.MarketplaceCode]integration.MarketplaceAdapter, len(adapters))
	for _, a := range adapters {
		byCode[a.Code()] = a
	}
	return &Registry{adapters: byCode}
}

// Get implements integration.AdapterRegistry.
func (r *Registry) Get(code integration.MarketplaceCode) (integration.MarketplaceAdapter, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, integration.ErrMarketplaceNotRegistered
	}
	return a, nil
}

// List implements integration.AdapterRegistry. Stable order for handlers.
func (r *Registry) List() []integration.MarketplaceAdapter {
	out := make([]integration.MarketplaceAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}
