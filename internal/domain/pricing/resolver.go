package pricing

import (
	"context"
	"sort"
	"sync"

	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESOLUCIÓN TEMPORAL DE CONFIGURACIONES
// ══════════════════════════════════════════════════════════════════════════════

// Resolver resuelve la configuración vigente para un período objetivo sobre
// una lista cacheada de todas las configuraciones, ordenada por vigencia
// descendente. La lista se carga una vez y se refresca a pedido, entre
// corridas de conciliación; durante una corrida es de sólo lectura.
type Resolver struct {
	mu      sync.RWMutex
	configs []*Configuration // orden descendente por EffectiveKey
	loaded  bool

	repo Repository
}

// NewResolver crea un Resolver sobre el repositorio de configuraciones.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Refresh recarga la lista completa desde el repositorio y la deja ordenada
// por vigencia descendente.
func (r *Resolver) Refresh(ctx context.Context) error {
	configs, err := r.repo.GetAll(ctx)
	if err != nil {
		return err
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].EffectiveKey() > configs[j].EffectiveKey()
	})

	r.mu.Lock()
	r.configs = configs
	r.loaded = true
	r.mu.Unlock()
	return nil
}

// Resolve devuelve la configuración más reciente cuya vigencia
// (año·100+mes) no supera al período objetivo. La búsqueda es determinística:
// para la misma lista cacheada y el mismo objetivo el resultado no cambia.
// Devuelve ErrConfigurationNotFound si la lista está vacía o todas las
// configuraciones son futuras.
func (r *Resolver) Resolve(ctx context.Context, period shared.Period) (*Configuration, error) {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()

	if !loaded {
		if err := r.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	target := period.Key()
	for _, cfg := range r.configs {
		if cfg.EffectiveKey() <= target {
			return cfg, nil
		}
	}
	return nil, shared.ErrConfigurationNotFound
}

// Current devuelve la configuración marcada como vigente, si existe.
func (r *Resolver) Current(ctx context.Context) (*Configuration, error) {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()

	if !loaded {
		if err := r.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cfg := range r.configs {
		if cfg.IsCurrent {
			return cfg, nil
		}
	}
	return nil, shared.ErrConfigurationNotFound
}
