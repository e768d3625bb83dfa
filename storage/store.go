// Package storage defines the key/value contract the session record is persisted through.
//
// Values are opaque strings stored under fixed keys. Implementations decide where the
// bytes live (memory, an encrypted file, Redis, SQLite) and whether they are encrypted.
package storage

import "errors"

// ErrKeyNotFound is returned by Get when nothing is stored under the key.
var ErrKeyNotFound = errors.New("key not found")

// Store is the persistent key/value facility.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}
