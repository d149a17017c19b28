package mock

import (
	"context"

	"github.com/khabaroff/hook-expose/src/repositories"
)

// OptionRepository is a mock implementation of repositories.OptionRepository
type OptionRepository struct {
	// Function stubs that can be overridden in tests
	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte) error
	CreateFunc func(ctx context.Context, key string, value []byte) error
	DeleteFunc func(ctx context.Context, key string) error

	// Call tracking
	Calls map[string][]interface{}
}

// NewOptionRepository creates a new mock option repository
func NewOptionRepository() *OptionRepository {
	return &OptionRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *OptionRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.Calls["Get"] = append(m.Calls["Get"], key)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, repositories.ErrOptionNotFound
}

func (m *OptionRepository) Set(ctx context.Context, key string, value []byte) error {
	m.Calls["Set"] = append(m.Calls["Set"], []interface{}{key, value})
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}
	return nil
}

func (m *OptionRepository) Create(ctx context.Context, key string, value []byte) error {
	m.Calls["Create"] = append(m.Calls["Create"], []interface{}{key, value})
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, key, value)
	}
	return nil
}

func (m *OptionRepository) Delete(ctx context.Context, key string) error {
	m.Calls["Delete"] = append(m.Calls["Delete"], key)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

// Ensure OptionRepository implements the interface
var _ repositories.OptionRepository = (*OptionRepository)(nil)
