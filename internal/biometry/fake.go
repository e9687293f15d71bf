package biometry

import "sync"

// Fake is a scriptable evaluator for tests and for the demo service, where
// no real sensor exists. Safe for concurrent use.
type Fake struct {
	mu     sync.RWMutex
	ok     bool
	err    error
	demand int
}

// NewFake starts in the Configured state (evaluation succeeds).
func NewFake() *Fake {
	return &Fake{ok: true}
}

// SetEnrolled scripts an affirmative answer.
func (f *Fake) SetEnrolled() {
	f.set(true, nil)
}

// SetNotEnrolled scripts a sensor-present-but-unenrolled answer.
func (f *Fake) SetNotEnrolled() {
	f.set(false, NewError(ReasonNotEnrolled, "no biometric data enrolled"))
}

// SetNoHardware scripts a no-sensor answer.
func (f *Fake) SetNoHardware() {
	f.set(false, NewError(ReasonNoHardware, "no biometric sensor"))
}

// SetNoPasscode scripts a no-passcode answer.
func (f *Fake) SetNoPasscode() {
	f.set(false, NewError(ReasonPasscodeNotSet, "device has no passcode"))
}

// SetAnswer scripts an arbitrary answer.
func (f *Fake) SetAnswer(ok bool, err error) {
	f.set(ok, err)
}

func (f *Fake) set(ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ok, f.err = ok, err
}

// CanEvaluate returns the scripted answer and counts the query.
func (f *Fake) CanEvaluate(Policy) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.demand++
	return f.ok, f.err
}

// Queries reports how many times the evaluator was consulted. Availability
// must be resolved fresh per operation; tests assert on this count.
func (f *Fake) Queries() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.demand
}
