// Package storage provides the durable client side key/value store backing
// the session. It is the Go counterpart of the browser localStorage the
// backend's web clients use: a handful of fixed keys, read synchronously.
package storage

// Storage is a small key/value store with atomic multi-key writes.
//
// Get returns (nil, nil) for an absent key. SetMulti and Delete apply all
// of their keys in a single transaction so that a session is never
// persisted half-written.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	SetMulti(values map[string][]byte) error
	Delete(keys ...string) error
	Close() error
}
