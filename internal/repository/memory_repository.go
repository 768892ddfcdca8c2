package repository

import (
	"context"
	"sync"
)

// memoryStateRepository keeps encoded documents in process memory.
type memoryStateRepository struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStateRepository creates a StateRepository that lives as long as the process.
func NewMemoryStateRepository() StateRepository {
	return &memoryStateRepository{docs: make(map[string][]byte)}
}

func (r *memoryStateRepository) Load(ctx context.Context, namespace string, dest any) (bool, error) {
	r.mu.RLock()
	data, ok := r.docs[namespace]
	r.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := decode(namespace, data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *memoryStateRepository) Save(ctx context.Context, namespace string, value any) error {
	return r.SaveAll(ctx, map[string]any{namespace: value})
}

func (r *memoryStateRepository) SaveAll(ctx context.Context, values map[string]any) error {
	encoded, err := encodeAll(values)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for ns, data := range encoded {
		r.docs[ns] = data
	}
	return nil
}

func (r *memoryStateRepository) Close() error {
	return nil
}
