package repositories

import (
	"context"
)

// OptionRepository defines the key-value config store. Values are JSON documents.
type OptionRepository interface {
	// Get returns the stored value or ErrOptionNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes the value, creating the key if needed
	Set(ctx context.Context, key string, value []byte) error
	// Create writes the value only if the key is absent, otherwise ErrOptionExists
	Create(ctx context.Context, key string, value []byte) error
	// Delete removes the key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}

// HealthChecker is implemented by stores that can report connectivity
type HealthChecker interface {
	Health(ctx context.Context) error
}
