package backend

import (
	"context"

	"spendwise/internal/amqp"
	"spendwise/internal/store"
)

// BackendType represents the type of storage backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// IsValid checks if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	}
	return false
}

// Shared reports whether writes through this backend are visible to other
// processes. The memory store lives and dies with one process.
func (bt BackendType) Shared() bool {
	return bt == SQLiteBackend
}

func (bt BackendType) String() string {
	return string(bt)
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult bundles the store with the optional event publisher.
type BackendResult struct {
	Store store.Store
	// Events is nil when no broker is configured or it was unreachable.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}
