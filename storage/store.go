// Package storage persists the handful of session keys a client keeps between runs.
package storage

import "context"

// Store is a tiny string key/value store. Missing keys are not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
