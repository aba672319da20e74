package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/chainsight/chainsight/internal/store"
)

// ErrorKind classifies execution failures for the response layer.
type ErrorKind string

const (
	ErrTimeout          ErrorKind = "TIMEOUT"
	ErrStoreUnavailable ErrorKind = "DATA_STORE_UNAVAILABLE"
	ErrRowLimitExceeded ErrorKind = "ROW_LIMIT_EXCEEDED"
)

// ExecutionError carries the classified failure along with the underlying
// cause for logging.
type ExecutionError struct {
	Kind  ErrorKind
	Cause error
}

func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// Result is one executed statement's outcome.
type Result struct {
	Rows      []map[string]interface{}
	Truncated bool
	FromCache bool
	ElapsedMs int64
}

// Executor runs validated statements against the store with a statement
// timeout, a bounded row count, and a TTL result cache. Identical in-flight
// statements share one store round trip.
type Executor struct {
	store   store.Store
	cache   *resultCache
	group   singleflight.Group
	timeout time.Duration
	clock   func() time.Time
}

func New(st store.Store, timeout, cacheTTL time.Duration, cacheSize int) *Executor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Executor{
		store:   st,
		cache:   newResultCache(cacheTTL, cacheSize),
		timeout: timeout,
		clock:   time.Now,
	}
}

// fingerprint keys the cache on the sanitized statement and its bound
// parameter values.
func fingerprint(sql string, params []interface{}) string {
	h := sha256.New()
	h.Write([]byte(sql))
	for _, p := range params {
		fmt.Fprintf(h, "|%v", p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type executeOutcome struct {
	rows      []map[string]interface{}
	truncated bool
}

// Execute runs the statement. sql must already carry the validator's
// LIMIT effectiveLimit+1 clause; the extra row signals truncation and is
// dropped before the result is returned or cached.
func (e *Executor) Execute(ctx context.Context, sql string, params []interface{}, effectiveLimit int) (*Result, error) {
	if e.store == nil {
		return nil, &ExecutionError{Kind: ErrStoreUnavailable, Cause: errors.New("no data store configured")}
	}

	key := fingerprint(sql, params)
	now := e.clock()

	if rows, truncated, ok := e.cache.get(key, now); ok {
		return &Result{Rows: rows, Truncated: truncated, FromCache: true, ElapsedMs: 0}, nil
	}

	start := e.clock()
	v, err, shared := e.group.Do(key, func() (interface{}, error) {
		queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		rows, qerr := e.store.Query(queryCtx, sql, params...)
		if qerr != nil {
			if queryCtx.Err() == context.DeadlineExceeded {
				return nil, &ExecutionError{Kind: ErrTimeout, Cause: qerr}
			}
			if errors.Is(qerr, store.ErrUnavailable) {
				return nil, &ExecutionError{Kind: ErrStoreUnavailable, Cause: qerr}
			}
			return nil, &ExecutionError{Kind: ErrStoreUnavailable, Cause: qerr}
		}

		// The validator appends LIMIT effectiveLimit+1, so at most one row
		// beyond the limit can come back. More than that means the statement
		// lost its limit guard and must not be served.
		truncated := false
		if effectiveLimit > 0 {
			if len(rows) > effectiveLimit+1 {
				return nil, &ExecutionError{
					Kind:  ErrRowLimitExceeded,
					Cause: fmt.Errorf("statement returned %d rows with limit %d", len(rows), effectiveLimit),
				}
			}
			if len(rows) > effectiveLimit {
				truncated = true
				rows = rows[:effectiveLimit]
			}
		}
		e.cache.put(key, rows, truncated, e.clock())
		return executeOutcome{rows: rows, truncated: truncated}, nil
	})
	elapsed := e.clock().Sub(start).Milliseconds()

	if err != nil {
		var execErr *ExecutionError
		if errors.As(err, &execErr) {
			log.Warn().Str("kind", string(execErr.Kind)).Err(execErr.Cause).Msg("statement execution failed")
			return nil, execErr
		}
		return nil, &ExecutionError{Kind: ErrStoreUnavailable, Cause: err}
	}

	out := v.(executeOutcome)
	return &Result{
		Rows:      out.rows,
		Truncated: out.truncated,
		FromCache: shared,
		ElapsedMs: elapsed,
	}, nil
}

// CacheLen reports the number of live cache entries, for the stats endpoint.
func (e *Executor) CacheLen() int { return e.cache.len() }
