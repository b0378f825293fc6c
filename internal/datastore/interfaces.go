// interfaces.go defines the recording store abstraction and its constructor
package datastore

import (
	"context"
	"fmt"

	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/logger"
)

// Backend names accepted by New
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Interface is a keyed recording store. Implementations are safe for
// concurrent use and hand out copies, never references to stored state.
type Interface interface {
	// Insert stores rec. A duplicate ID is a conflict error.
	Insert(ctx context.Context, rec *Recording) error
	// List returns all recordings in insertion order
	List(ctx context.Context) ([]Recording, error)
	// Get returns a recording or a not-found error
	Get(ctx context.Context, id string) (Recording, error)
	// Delete removes a recording or returns a not-found error
	Delete(ctx context.Context, id string) error
	// Count returns the number of stored recordings
	Count(ctx context.Context) (int, error)
	Close() error
}

// New creates the store for the configured backend. Neither backend persists across restarts.
func New(backend string, log logger.Logger) (Interface, error) {
	if log == nil {
		log = logger.Global().Module("datastore")
	}

	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(log.Module("sqlite"))
	default:
		return nil, errors.New(fmt.Errorf("unknown storage backend %q", backend)).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

func notFoundError(id string) error {
	return errors.Newf("recording not found").
		Component("datastore").
		Category(errors.CategoryNotFound).
		Context("id", id).
		Build()
}

func conflictError(id string) error {
	return errors.Newf("recording %s already exists", id).
		Component("datastore").
		Category(errors.CategoryConflict).
		Context("id", id).
		Build()
}

// dbError creates a categorized database error with context
func dbError(err error, operation string, kv ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)

	for i := 0; i < len(kv)-1; i += 2 {
		if key, ok := kv[i].(string); ok {
			builder = builder.Context(key, kv[i+1])
		}
	}
	return builder.Build()
}
