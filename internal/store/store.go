// Package store provides the key-value store used for job locks and
// operational counters, with memory and Redis backends.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key is not found in the store.
var ErrNotFound = errors.New("store: key not found")

// Store defines the interface for a key-value store.
type Store interface {
	// Set stores a key-value pair with an optional TTL. A TTL of 0 means no expiration.
	Set(key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by its key. Returns ErrNotFound if the key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes a value by its key.
	Delete(key string) error

	// Exists checks if a key exists in the store.
	Exists(key string) (bool, error)

	// SetNX sets a key-value pair if the key does not already exist.
	// Returns true when the key was set. Used for distributed job locks.
	SetNX(key string, value []byte, ttl time.Duration) (bool, error)

	// HSet sets fields of a hash.
	HSet(key string, values map[string]any) error

	// HGetAll returns all fields of a hash.
	HGetAll(key string) (map[string]string, error)

	// HIncrBy atomically increments a hash field and returns the new value.
	HIncrBy(key, field string, incr int64) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}
