// Package keychain implements the secure entry store: durable,
// access-controlled storage of one opaque value per key within a named
// service namespace, on top of an injected platform credential store.
//
// When the biometric gate is enabled the store also maintains a validation
// marker per service. Marker presence is evidence that a protected write
// succeeded under the biometric enrollment active at that time; absence means
// either "never written" or "enrollment changed since the last write". The
// two causes are indistinguishable and the store does not pretend otherwise.
package keychain

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"biovault/internal/credstore"
	"biovault/internal/keychain/metrics"
	dErrors "biovault/pkg/domain-errors"
	"biovault/pkg/platform/sentinel"
)

const (
	// validationServiceSuffix derives the marker's service namespace.
	validationServiceSuffix = "_validation"
	// validationAccount is the fixed key of the marker entry.
	validationAccount = "validation"
)

// validationValue is the marker's fixed constant payload.
var validationValue = []byte("validated")

// Config is the immutable configuration of one logical store instance.
// Supplied at construction and carried into every operation; there is no
// mutable per-call state to get out of order.
type Config struct {
	// Service scopes which entries belong to this store.
	Service string
	// Label is attached to entries for display purposes.
	Label string
	// AccessGroup optionally shares entries across applications. Empty means
	// no sharing.
	AccessGroup string
	// BiometricGate protects written entries with a user-presence policy and
	// maintains the validation marker.
	BiometricGate bool
}

// Store is the secure entry store for one service namespace.
type Store struct {
	cred    credstore.Store
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	// The access-control object is built lazily, once, and reused. A failed
	// construction is fatal for this instance's protected operations.
	aclOnce sync.Once
	acl     *credstore.AccessControl
	aclErr  error
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics attaches operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New builds a store over the given credential store capability.
func New(cred credstore.Store, cfg Config, opts ...Option) *Store {
	s := &Store{
		cred:   cred,
		cfg:    cfg,
		logger: slog.Default(),
		tracer: otel.Tracer("biovault/keychain"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get looks up the value for key. Absent is (nil, false, nil), never an
// error. Reading a biometric-gated entry triggers the platform challenge as
// a side effect outside this store's control.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := s.tracer.Start(ctx, "keychain.Get")
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveGet(start)

	q := s.query(s.cfg.Service, key)
	q.ReturnValue = true

	item, st := s.cred.Get(ctx, q)
	switch st {
	case credstore.StatusSuccess:
		return item.Value, true, nil
	case credstore.StatusNotFound:
		return nil, false, nil
	default:
		s.metrics.IncrementFailure()
		return nil, false, statusError(st, "get value")
	}
}

// GetString is Get plus UTF-8 decoding. Stored bytes that are not valid text
// read as absent with no error: undecodable content is "no usable string",
// not a fault.
func (s *Store) GetString(ctx context.Context, key string) (string, bool, error) {
	value, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return "", false, err
	}
	if !utf8.Valid(value) {
		return "", false, nil
	}
	return string(value), true, nil
}

// Set stores value under key with idempotent overwrite semantics: any
// existing entry is removed first (not-found ignored), then a fresh entry is
// added under the current access-control policy. The two-step sequence is
// required because Add fails on duplicates and cannot atomically change
// access-control attributes.
//
// With the gate enabled, a successful add is followed by the validation
// marker write. A marker-write failure fails the whole Set even though the
// primary value persisted; re-invoking Set repairs that state.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.tracer.Start(ctx, "keychain.Set")
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveSet(start)

	if err := s.add(ctx, s.cfg.Service, key, value); err != nil {
		s.metrics.IncrementFailure()
		return err
	}
	if s.cfg.BiometricGate {
		if err := s.writeValidationMarker(ctx); err != nil {
			s.metrics.IncrementFailure()
			s.logger.Warn("value persisted but validation marker write failed",
				"service", s.cfg.Service, "error", err)
			return err
		}
	}
	s.metrics.IncrementStored()
	return nil
}

// Update modifies the value of an existing entry in place, preserving its
// access-control attributes. Unlike reads, a missing entry is an error here:
// there is nothing to modify and no absent result channel.
func (s *Store) Update(ctx context.Context, key string, value []byte) error {
	ctx, span := s.tracer.Start(ctx, "keychain.Update")
	defer span.End()

	st := s.cred.Update(ctx, s.query(s.cfg.Service, key), credstore.Change{Value: value})
	switch st {
	case credstore.StatusSuccess:
		return nil
	case credstore.StatusNotFound:
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "no entry to update").
			WithPlatformCode(int(st))
	default:
		s.metrics.IncrementFailure()
		return statusError(st, "update value")
	}
}

// Remove deletes the entry for key, then unconditionally deletes the
// service's validation marker. Not-found counts as success for both steps, so
// removing a value always clears stale enrollment-validation evidence and a
// second Remove still succeeds.
func (s *Store) Remove(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "keychain.Remove")
	defer span.End()

	st := s.cred.Delete(ctx, s.query(s.cfg.Service, key))
	if st != credstore.StatusSuccess && st != credstore.StatusNotFound {
		s.metrics.IncrementFailure()
		return statusError(st, "remove value")
	}

	st = s.cred.Delete(ctx, s.query(s.validationService(), validationAccount))
	if st != credstore.StatusSuccess && st != credstore.StatusNotFound {
		s.metrics.IncrementFailure()
		return statusError(st, "remove validation marker")
	}

	s.metrics.IncrementRemoved()
	return nil
}

// HasValidationMarker reports whether the marker for this service currently
// exists, probing with authentication UI suppressed so the check never
// triggers a biometric challenge. A diagnostic, not gating logic for reads.
func (s *Store) HasValidationMarker(ctx context.Context) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "keychain.HasValidationMarker")
	defer span.End()

	q := s.query(s.validationService(), validationAccount)
	q.SuppressAuthUI = true

	_, st := s.cred.Get(ctx, q)
	switch st {
	case credstore.StatusSuccess:
		return true, nil
	case credstore.StatusNotFound:
		return false, nil
	default:
		s.metrics.IncrementFailure()
		return false, statusError(st, "check validation marker")
	}
}

// add performs the delete-then-add sequence for one entry.
func (s *Store) add(ctx context.Context, service, key string, value []byte) error {
	st := s.cred.Delete(ctx, s.query(service, key))
	if st != credstore.StatusSuccess && st != credstore.StatusNotFound {
		return statusError(st, "remove existing entry")
	}

	attrs := credstore.Attributes{
		Kind:        credstore.KindGenericValue,
		Service:     service,
		Account:     key,
		Label:       s.cfg.Label,
		AccessGroup: s.cfg.AccessGroup,
		Value:       value,
	}
	if s.cfg.BiometricGate {
		acl, err := s.accessControl()
		if err != nil {
			return err
		}
		attrs.AccessControl = acl
	}

	if st := s.cred.Add(ctx, attrs); st != credstore.StatusSuccess {
		return statusError(st, "add entry")
	}
	return nil
}

// writeValidationMarker records that a protected write succeeded under the
// currently enrolled biometrics. The marker shares the entry access-control
// policy, so an enrollment change invalidates it too.
func (s *Store) writeValidationMarker(ctx context.Context) error {
	return s.add(ctx, s.validationService(), validationAccount, validationValue)
}

func (s *Store) validationService() string {
	return s.cfg.Service + validationServiceSuffix
}

func (s *Store) query(service, account string) credstore.Query {
	return credstore.Query{
		Kind:        credstore.KindGenericValue,
		Service:     service,
		Account:     account,
		AccessGroup: s.cfg.AccessGroup,
	}
}

func (s *Store) accessControl() (*credstore.AccessControl, error) {
	s.aclOnce.Do(func() {
		s.acl, s.aclErr = credstore.NewAccessControl(credstore.AccessibleWhenPasscodeSet, true)
	})
	if s.aclErr != nil {
		return nil, dErrors.Wrap(s.aclErr, dErrors.CodeAccessControl, "build access control policy")
	}
	return s.acl, nil
}
