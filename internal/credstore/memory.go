package credstore

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
)

// Authorizer stands in for the platform's user-presence challenge: it blocks
// until the user passes or fails biometric/passcode verification. The default
// approves every challenge.
type Authorizer func(ctx context.Context) bool

// Memory is the in-memory credential store. It is the reference
// implementation of the Store semantics and the fake used across the test
// suites. It intentionally favors clarity over performance.
type Memory struct {
	mu        sync.RWMutex
	entries   map[entryKey]*memoryEntry
	authorize Authorizer

	// generation models the enrolled-biometrics state. Entries protected by
	// user presence record the generation current at write time; after
	// InvalidateEnrollment they silently read back as not found, which is
	// how the platform behaves when enrollment changes.
	generation uint64
}

type entryKey struct {
	kind    string
	service string
	account string
}

type memoryEntry struct {
	id          string
	value       []byte
	label       string
	accessGroup string
	control     *AccessControl
	generation  uint64
}

// MemoryOption customizes a Memory store.
type MemoryOption func(*Memory)

// WithAuthorizer installs the user-presence challenge used for protected
// entries.
func WithAuthorizer(authorize Authorizer) MemoryOption {
	return func(m *Memory) { m.authorize = authorize }
}

// NewMemory creates an empty in-memory credential store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{entries: make(map[entryKey]*memoryEntry)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InvalidateEnrollment simulates a change to the enrolled biometric data.
// All currently stored user-presence-protected entries become unreadable.
func (m *Memory) InvalidateEnrollment() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
}

func (m *Memory) Add(ctx context.Context, attrs Attributes) Status {
	if attrs.Kind == "" || attrs.Service == "" || attrs.Account == "" || attrs.Value == nil {
		return StatusBadParameter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := entryKey{kind: attrs.Kind, service: attrs.Service, account: attrs.Account}
	if existing, ok := m.entries[key]; ok && m.live(existing) {
		return StatusDuplicateItem
	}

	entry := &memoryEntry{
		id:          uuid.NewString(),
		value:       bytes.Clone(attrs.Value),
		label:       attrs.Label,
		accessGroup: attrs.AccessGroup,
		generation:  m.generation,
	}
	if attrs.AccessControl != nil {
		control := *attrs.AccessControl
		entry.control = &control
	}
	m.entries[key] = entry
	return StatusSuccess
}

func (m *Memory) Update(ctx context.Context, q Query, change Change) Status {
	if q.Kind == "" || q.Service == "" || q.Account == "" || change.Value == nil {
		return StatusBadParameter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.match(q)
	if !ok {
		return StatusNotFound
	}
	if st := m.challengeLocked(ctx, entry, q); st != StatusSuccess {
		return st
	}
	entry.value = bytes.Clone(change.Value)
	return StatusSuccess
}

func (m *Memory) Delete(ctx context.Context, q Query) Status {
	if q.Kind == "" || q.Service == "" || q.Account == "" {
		return StatusBadParameter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.match(q); !ok {
		return StatusNotFound
	}
	delete(m.entries, entryKey{kind: q.Kind, service: q.Service, account: q.Account})
	return StatusSuccess
}

func (m *Memory) Get(ctx context.Context, q Query) (Item, Status) {
	if q.Kind == "" || q.Service == "" || q.Account == "" {
		return Item{}, StatusBadParameter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.match(q)
	if !ok {
		return Item{}, StatusNotFound
	}

	item := Item{Label: entry.label}
	if !q.ReturnValue {
		return item, StatusSuccess
	}
	if st := m.challengeLocked(ctx, entry, q); st != StatusSuccess {
		return Item{}, st
	}
	item.Value = bytes.Clone(entry.value)
	return item, StatusSuccess
}

// match finds the live entry for a query. Protected entries written under a
// previous enrollment generation are indistinguishable from missing ones.
func (m *Memory) match(q Query) (*memoryEntry, bool) {
	entry, ok := m.entries[entryKey{kind: q.Kind, service: q.Service, account: q.Account}]
	if !ok || !m.live(entry) {
		return nil, false
	}
	if q.AccessGroup != "" && entry.accessGroup != q.AccessGroup {
		return nil, false
	}
	return entry, true
}

func (m *Memory) live(entry *memoryEntry) bool {
	if entry.control == nil || !entry.control.RequireUserPresence {
		return true
	}
	return entry.generation == m.generation
}

// challengeLocked runs the user-presence challenge for value access to a
// protected entry. Holding the entry lock across the challenge mirrors the
// platform blocking the requesting task until the user responds.
func (m *Memory) challengeLocked(ctx context.Context, entry *memoryEntry, q Query) Status {
	if entry.control == nil || !entry.control.RequireUserPresence {
		return StatusSuccess
	}
	if q.SuppressAuthUI {
		return StatusAuthFailed
	}
	if m.authorize != nil && !m.authorize(ctx) {
		return StatusAuthFailed
	}
	return StatusSuccess
}
