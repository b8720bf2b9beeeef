// Package storage provides the persistent key-value abstraction used by the
// navigation cache for its snapshot writes.
package storage

import "errors"

// ErrNotFound is returned when the requested key has no stored value.
var ErrNotFound = errors.New("key not found")

// Store defines the interface for persistent key-value byte storage.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}
