package repositories

import (
	"context"
	"sync"
)

// MemoryOptionRepository keeps options in process memory
type MemoryOptionRepository struct {
	mu      sync.RWMutex
	options map[string][]byte
}

// NewMemoryOptionRepository creates an empty in-memory store
func NewMemoryOptionRepository() *MemoryOptionRepository {
	return &MemoryOptionRepository{options: make(map[string][]byte)}
}

func (r *MemoryOptionRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.options[key]
	if !ok {
		return nil, ErrOptionNotFound
	}
	return copyBytes(value), nil
}

func (r *MemoryOptionRepository) Set(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[key] = copyBytes(value)
	return nil
}

func (r *MemoryOptionRepository) Create(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.options[key]; ok {
		return ErrOptionExists
	}
	r.options[key] = copyBytes(value)
	return nil
}

func (r *MemoryOptionRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.options, key)
	return nil
}

// Health always succeeds for the in-memory store
func (r *MemoryOptionRepository) Health(ctx context.Context) error {
	return nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var (
	_ OptionRepository = (*MemoryOptionRepository)(nil)
	_ HealthChecker    = (*MemoryOptionRepository)(nil)
)
