// Package gate presents the async facade over the secure entry store.
//
// Every facade owns one background worker that executes store operations one
// at a time, in submission order. That ordering is what makes the store's
// multi-step sequences (delete-then-add, delete-entry-then-delete-marker)
// safe against interleaving from concurrent callers of the same facade.
//
// Biometric availability is resolved fresh on every call, never cached, and
// decides whether the operation runs with the biometric gate enabled. Each
// operation returns a 1-buffered result channel that resolves exactly once:
// success, error, or a closed-queue error. Nothing is silently dropped.
package gate

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"biovault/internal/biometry"
	"biovault/internal/credstore"
	"biovault/internal/keychain"
	"biovault/internal/keychain/metrics"
	dErrors "biovault/pkg/domain-errors"
	"biovault/pkg/platform/sentinel"
)

// taskQueueDepth bounds the submission queue. Submissions beyond it block
// until the worker catches up; order is preserved either way.
const taskQueueDepth = 64

// Config is the immutable configuration of a facade instance.
type Config struct {
	// Service, Label and AccessGroup configure the underlying store.
	Service     string
	Label       string
	AccessGroup string

	// BiometricPreference opts this instance into biometric protection. The
	// gate is only actually enabled when the preference holds AND the
	// subsystem reports Configured at call time.
	BiometricPreference bool

	// Policy is the evaluation policy used to resolve availability.
	Policy biometry.Policy
}

// ValueResult resolves a byte-value read.
type ValueResult struct {
	Value []byte
	Found bool
	Err   error
}

// StringResult resolves a text read. A stored value that is not valid UTF-8
// reads as not found with a nil error.
type StringResult struct {
	Value string
	Found bool
	Err   error
}

// BoolResult resolves a validation-marker check.
type BoolResult struct {
	Present bool
	Err     error
}

// Facade serializes store operations and resolves biometric availability per
// call. Stateless between calls apart from its fixed configuration; the
// availability state is recomputed every time.
type Facade struct {
	cfg     Config
	cred    credstore.Store
	eval    biometry.Evaluator
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	done   chan struct{}
}

// Option customizes a Facade.
type Option func(*Facade)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) { f.logger = logger }
}

// WithMetrics attaches store metrics, shared by every per-call store.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Facade) { f.metrics = m }
}

// New creates a facade and starts its worker.
func New(cred credstore.Store, eval biometry.Evaluator, cfg Config, opts ...Option) *Facade {
	f := &Facade{
		cfg:    cfg,
		cred:   cred,
		eval:   eval,
		logger: slog.Default(),
		tracer: otel.Tracer("biovault/gate"),
		tasks:  make(chan func(), taskQueueDepth),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	go f.run()
	return f
}

func (f *Facade) run() {
	defer close(f.done)
	for task := range f.tasks {
		task()
	}
}

// Close stops the worker after the already-submitted operations finish.
// Operations submitted after Close resolve with a closed-queue error.
func (f *Facade) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.tasks)
	f.mu.Unlock()
	<-f.done
}

// Availability resolves the current biometric availability. Computed fresh;
// the answer can change between any two calls.
func (f *Facade) Availability() biometry.Availability {
	return biometry.Resolve(f.eval, f.cfg.Policy)
}

// SetValue stores value under key. The result channel resolves with nil on
// success.
func (f *Facade) SetValue(ctx context.Context, key string, value []byte) <-chan error {
	out := make(chan error, 1)
	store := f.storeForCall()
	submit[error](f, out, errClosed, func() {
		ctx, span := f.tracer.Start(ctx, "gate.SetValue")
		defer span.End()
		if err := ctx.Err(); err != nil {
			out <- dErrors.Wrap(err, dErrors.CodeUnavailable, "context done before operation ran")
			return
		}
		out <- store.Set(ctx, key, value)
	})
	return out
}

// GetValue retrieves the value under key. Absent resolves as Found=false
// with a nil error.
func (f *Facade) GetValue(ctx context.Context, key string) <-chan ValueResult {
	out := make(chan ValueResult, 1)
	store := f.storeForCall()
	submit(f, out, ValueResult{Err: errClosed}, func() {
		ctx, span := f.tracer.Start(ctx, "gate.GetValue")
		defer span.End()
		if err := ctx.Err(); err != nil {
			out <- ValueResult{Err: dErrors.Wrap(err, dErrors.CodeUnavailable, "context done before operation ran")}
			return
		}
		value, found, err := store.Get(ctx, key)
		out <- ValueResult{Value: value, Found: found, Err: err}
	})
	return out
}

// GetString retrieves the value under key decoded as UTF-8 text.
func (f *Facade) GetString(ctx context.Context, key string) <-chan StringResult {
	out := make(chan StringResult, 1)
	store := f.storeForCall()
	submit(f, out, StringResult{Err: errClosed}, func() {
		ctx, span := f.tracer.Start(ctx, "gate.GetString")
		defer span.End()
		if err := ctx.Err(); err != nil {
			out <- StringResult{Err: dErrors.Wrap(err, dErrors.CodeUnavailable, "context done before operation ran")}
			return
		}
		value, found, err := store.GetString(ctx, key)
		out <- StringResult{Value: value, Found: found, Err: err}
	})
	return out
}

// Remove deletes the value under key and the service's validation marker.
func (f *Facade) Remove(ctx context.Context, key string) <-chan error {
	out := make(chan error, 1)
	store := f.storeForCall()
	submit[error](f, out, errClosed, func() {
		ctx, span := f.tracer.Start(ctx, "gate.Remove")
		defer span.End()
		if err := ctx.Err(); err != nil {
			out <- dErrors.Wrap(err, dErrors.CodeUnavailable, "context done before operation ran")
			return
		}
		out <- store.Remove(ctx, key)
	})
	return out
}

// CheckValidation reports whether the service's validation marker is present.
func (f *Facade) CheckValidation(ctx context.Context) <-chan BoolResult {
	out := make(chan BoolResult, 1)
	store := f.storeForCall()
	submit(f, out, BoolResult{Err: errClosed}, func() {
		ctx, span := f.tracer.Start(ctx, "gate.CheckValidation")
		defer span.End()
		if err := ctx.Err(); err != nil {
			out <- BoolResult{Err: dErrors.Wrap(err, dErrors.CodeUnavailable, "context done before operation ran")}
			return
		}
		present, err := store.HasValidationMarker(ctx)
		out <- BoolResult{Present: present, Err: err}
	})
	return out
}

var errClosed = dErrors.Wrap(sentinel.ErrClosed, dErrors.CodeUnavailable, "gate is closed")

// submit enqueues a task, or resolves the result channel immediately with the
// closed-queue value when the facade was already shut down.
func submit[T any](f *Facade, out chan T, closedResult T, task func()) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		out <- closedResult
		return
	}
	f.tasks <- task
}

// storeForCall resolves availability now and builds the per-call store. The
// gate is enabled only when the subsystem is Configured and the instance
// preference opted in.
func (f *Facade) storeForCall() *keychain.Store {
	availability := f.Availability()
	return keychain.New(f.cred, keychain.Config{
		Service:       f.cfg.Service,
		Label:         f.cfg.Label,
		AccessGroup:   f.cfg.AccessGroup,
		BiometricGate: availability == biometry.Configured && f.cfg.BiometricPreference,
	}, keychain.WithLogger(f.logger), keychain.WithMetrics(f.metrics))
}
