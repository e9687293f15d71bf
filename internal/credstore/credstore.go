// Package credstore defines the platform credential store boundary: the four
// storage primitives the secure entry store is built on, the attribute and
// query dictionaries they consume, and the status codes they return.
//
// Implementations are injected capabilities. The in-memory implementation is
// both the reference backend and the test fake; the Redis and Postgres
// implementations back the demo service. The store enforces access control
// and uniqueness per (kind, service, account); callers never see its internal
// representation.
package credstore

import (
	"context"

	dErrors "biovault/pkg/domain-errors"
)

// Status is the platform status code returned by every primitive. Callers
// map these into the error taxonomy; the raw value travels with every mapped
// error for diagnostics.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotFound
	StatusDuplicateItem
	StatusAuthFailed
	StatusBadParameter
	StatusOther
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "item not found"
	case StatusDuplicateItem:
		return "duplicate item"
	case StatusAuthFailed:
		return "authentication failed"
	case StatusBadParameter:
		return "bad parameter"
	case StatusOther:
		return "other"
	default:
		return "unknown"
	}
}

// KindGenericValue is the fixed kind tag for opaque application values. The
// physical lookup key of every entry is (kind, service, account).
const KindGenericValue = "generic-value"

// Accessibility constrains when a protected entry may be accessed.
type Accessibility int

const (
	// AccessibleWhenUnlocked allows access whenever the device is unlocked.
	AccessibleWhenUnlocked Accessibility = iota
	// AccessibleWhenPasscodeSet additionally requires that a device passcode
	// is configured; removing the passcode invalidates the entry.
	AccessibleWhenPasscodeSet
)

// AccessControl is the access policy attached to a protected entry. Built
// through NewAccessControl so invalid policies fail at construction rather
// than at first use.
type AccessControl struct {
	Accessibility       Accessibility
	RequireUserPresence bool
}

// NewAccessControl validates and builds an access control policy.
func NewAccessControl(accessibility Accessibility, requireUserPresence bool) (*AccessControl, error) {
	if accessibility < AccessibleWhenUnlocked || accessibility > AccessibleWhenPasscodeSet {
		return nil, dErrors.Newf(dErrors.CodeInvalidParams, "unknown accessibility level %d", accessibility)
	}
	return &AccessControl{
		Accessibility:       accessibility,
		RequireUserPresence: requireUserPresence,
	}, nil
}

// Attributes describes an entry being added. Label and AccessGroup are
// display/sharing attributes, not lookup-key components.
type Attributes struct {
	Kind        string
	Service     string
	Account     string
	Label       string
	AccessGroup string
	Value       []byte

	// AccessControl is nil for unprotected entries.
	AccessControl *AccessControl
}

// Query matches a single entry by its physical key.
type Query struct {
	Kind        string
	Service     string
	Account     string
	AccessGroup string

	// ReturnValue requests the stored bytes. Existence checks leave it false
	// so protected entries can be probed without an authentication challenge.
	ReturnValue bool

	// SuppressAuthUI forbids the store from raising an authentication
	// challenge. A value read that would need one fails with StatusAuthFailed
	// instead of prompting.
	SuppressAuthUI bool
}

// Change carries the mutable part of an update. Access-control attributes are
// immutable after Add; only the value can change in place.
type Change struct {
	Value []byte
}

// Item is a matched entry. Value is nil unless the query requested it.
type Item struct {
	Value []byte
	Label string
}

// Store is the platform credential store capability.
type Store interface {
	// Add creates an entry. Fails with StatusDuplicateItem when an entry
	// already exists for the attribute key; there is no upsert primitive.
	Add(ctx context.Context, attrs Attributes) Status

	// Update modifies the value of an existing entry in place, preserving
	// its access-control attributes. StatusNotFound when no entry matches.
	Update(ctx context.Context, q Query, change Change) Status

	// Delete removes the matched entry. StatusNotFound when none matches.
	Delete(ctx context.Context, q Query) Status

	// Get retrieves the matched entry. Reading a protected entry's value
	// triggers the platform's user-presence challenge unless suppressed.
	Get(ctx context.Context, q Query) (Item, Status)
}
