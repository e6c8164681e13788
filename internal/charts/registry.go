// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"fmt"
	"sort"
	"sync"

	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/models"
)

// Registry maps chart kinds to handlers. Lookup is two-step: an exact map
// hit on the primary kind, then a linear scan asking each handler whether
// it can handle the config. The scan lets one handler claim variants it
// did not register as primary keys.
type Registry struct {
	mu       sync.RWMutex
	handlers map[models.ChartKind]Handler
	ordered  []Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[models.ChartKind]Handler)}
}

// Register adds a handler under all its primary kinds. Re-registering a
// kind overwrites with a warning; tests rely on this to substitute fakes.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, kind := range h.Kinds() {
		if _, exists := r.handlers[kind]; exists {
			logging.Warn().Str("chart_kind", string(kind)).Msg("Overwriting registered chart handler")
		}
		r.handlers[kind] = h
	}
	r.ordered = append(r.ordered, h)
}

// Lookup finds the handler for a config.
func (r *Registry) Lookup(cfg *models.ChartConfig) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.handlers[cfg.ChartType]; ok {
		return h, nil
	}
	for _, h := range r.ordered {
		if h.CanHandle(cfg) {
			return h, nil
		}
	}
	return nil, fmt.Errorf("no handler for chart type %q (available: %v)", cfg.ChartType, r.kinds())
}

// kinds lists registered kinds sorted; callers hold at least a read lock.
func (r *Registry) kinds() []string {
	kinds := make([]string, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	return kinds
}

// Clear removes all handlers. Tests use this to start from a clean slate.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[models.ChartKind]Handler)
	r.ordered = nil
}

// RegisterDefaults wires every built-in handler against the fetcher.
func (r *Registry) RegisterDefaults(fetcher Fetcher) {
	r.Register(NewTimeSeriesHandler(fetcher))
	r.Register(NewBarHandler(fetcher))
	r.Register(NewDistributionHandler(fetcher))
	r.Register(NewDualAxisHandler(fetcher))
	r.Register(NewMetricHandler(fetcher))
	r.Register(NewProgressBarHandler(fetcher))
	r.Register(NewTableHandler(fetcher))
}
