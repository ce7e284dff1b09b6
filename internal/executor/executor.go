// Package executor implements the Sync Executor: the six primitive
// operations (push, pull, update-push, update-pull, link,
// conflict-record) plus the three reliability primitives (retry,
// circuit breaker, at-most-once effects) that wrap every outbound
// remote call.
//
// Grounded on the teacher's internal/sync/worker.go (bounded execution
// draining ready work) and internal/sync/ledger.go (crash-recoverable
// action queue), retargeted from path-based file transfer onto
// entity-based sync actions.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/ghsync/ghsync/internal/store"
	"github.com/ghsync/ghsync/internal/syncerr"
)

// DefaultMaxRetries is spec.md §4.8's default retry budget for
// transient-category failures.
const DefaultMaxRetries = 3

// transientCategories is the fixed retryable set named in spec.md §4.8.
var transientCategories = map[syncerr.Type]bool{
	syncerr.NetworkError:       true,
	syncerr.Timeout:            true,
	syncerr.ServiceUnavailable: true,
	syncerr.APIRateLimit:       true,
}

// SyncConflict records a pair of versions that both changed since the
// last sync, left for the caller to resolve (spec.md §4.8 point 6).
type SyncConflict struct {
	EntityType string
	EntityID   string
	Local      any
	Remote     any
}

// Report summarizes one executor run.
type Report struct {
	Pushed    []string
	Pulled    []string
	Conflicts []SyncConflict
	Errors    map[string]string
	Fatal     error
}

func newReport() *Report {
	return &Report{Errors: make(map[string]string)}
}

func (r *Report) recordError(entityID string, err error) {
	r.Errors[entityID] = err.Error()
}

// Executor drives primitive sync operations against one remote backend,
// guarding every call with a per-backend circuit breaker and retrying
// the transient error categories with exponential backoff. At-most-once
// effects are enforced via store.Ledger: a claimed row survives a crash
// mid-call, so the next run skips that create instead of repeating it;
// the remote record, if one was created, is not linked.
type Executor struct {
	st         *store.Store
	ledger     *store.Ledger
	logger     *slog.Logger
	maxRetries uint64

	breakers map[string]*gobreaker.CircuitBreaker
}

// New builds an Executor bound to a store and its ledger.
func New(st *store.Store, ledger *store.Ledger, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		st:         st,
		ledger:     ledger,
		logger:     logger,
		maxRetries: DefaultMaxRetries,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

// breakerFor returns (creating if needed) the circuit breaker guarding
// calls to backendName: trips after 5 consecutive failures, half-opens
// after a 30s cool-down for one probe request.
func (e *Executor) breakerFor(backendName string) *gobreaker.CircuitBreaker {
	if cb, ok := e.breakers[backendName]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        backendName,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Warn("circuit breaker state change", "backend", name, "from", from, "to", to)
		},
	})

	e.breakers[backendName] = cb

	return cb
}

// retryCall wraps a remote.Backend call with the circuit breaker and,
// for transient SyncErrorType categories, exponential backoff up to
// maxRetries.
func retryCall[T any](ctx context.Context, e *Executor, backendName string, call func() syncerr.Result[T]) syncerr.Result[T] {
	var last syncerr.Result[T]

	cb := e.breakerFor(backendName)

	operation := func() error {
		out, err := cb.Execute(func() (any, error) {
			res := call()
			if res.IsErr() {
				return nil, res.UnwrapErr()
			}

			return res.Unwrap(), nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				last = syncerr.Err[T](syncerr.New(syncerr.CircuitBreakerOpen, "circuit breaker open for "+backendName))
				return backoff.Permanent(err)
			}

			var se *syncerr.SyncError
			if errors.As(err, &se) {
				last = syncerr.Err[T](se)

				if !transientCategories[se.Category] {
					return backoff.Permanent(err)
				}

				return err
			}

			last = syncerr.Err[T](syncerr.FromError(err, "", ""))

			return err
		}

		last = syncerr.Ok(out.(T))

		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond

	_ = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, e.maxRetries), ctx))

	return last
}
