package store

import (
	"context"
	"errors"
)

// ErrUnavailable marks data-store connectivity failures so callers can
// distinguish them from statement-level problems.
var ErrUnavailable = errors.New("data store unavailable")

// Store is the narrow contract the executor needs from the data store:
// execute one read-only parameterized statement, honoring ctx for timeout
// and cancellation. Nothing else — no transactions, no writes.
type Store interface {
	Query(ctx context.Context, sql string, params ...interface{}) ([]map[string]interface{}, error)
	Ping(ctx context.Context) error
	Close() error
}
