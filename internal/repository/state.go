package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// StateRepository durably stores JSON documents keyed by namespace.
type StateRepository interface {
	// Load decodes the document stored under namespace into dest.
	// It reports false, and leaves dest untouched, when nothing is stored.
	Load(ctx context.Context, namespace string, dest any) (bool, error)

	// Save stores value under namespace, replacing any previous document.
	Save(ctx context.Context, namespace string, value any) error

	// SaveAll stores every value atomically: all namespaces are written or none are.
	SaveAll(ctx context.Context, values map[string]any) error

	// Close releases resources held by the repository.
	Close() error
}

// encodeAll marshals every value so that nothing is written when one of them fails.
func encodeAll(values map[string]any) (map[string][]byte, error) {
	out := make(map[string][]byte, len(values))
	for ns, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", ns, err)
		}
		out[ns] = data
	}
	return out, nil
}

func decode(namespace string, data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", namespace, err)
	}
	return nil
}
