package embed

import (
	"fmt"
	"sync"

	"github.com/cobaltash/vectorize/core"
)

// Registry maps modalities to embedding backends. Backend selection is an
// explicit lookup by modality, never a first-match scan.
type Registry struct {
	mu       sync.RWMutex
	backends map[core.Modality]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[core.Modality]Backend),
	}
}

// Register installs a backend for its modality, replacing any previous one.
func (r *Registry) Register(backend Backend) error {
	if backend == nil {
		return ErrBackendRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[backend.Modality()] = backend
	return nil
}

// Lookup returns the backend registered for modality.
// Returns ErrBackendUnavailable if none is registered.
func (r *Registry) Lookup(modality core.Modality) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, ok := r.backends[modality]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, modality)
	}
	return backend, nil
}

// SupportedModalities lists the modalities with a registered backend.
func (r *Registry) SupportedModalities() []core.Modality {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modalities := make([]core.Modality, 0, len(r.backends))
	for _, m := range core.Modalities {
		if _, ok := r.backends[m]; ok {
			modalities = append(modalities, m)
		}
	}
	return modalities
}
