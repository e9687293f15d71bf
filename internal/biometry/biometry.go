// Package biometry defines the platform biometric subsystem boundary and the
// 3-state availability model derived from it.
//
// The subsystem is consumed through a single primitive: can the device
// currently evaluate a device-owner authentication policy. The answer is
// queried fresh on every call and never cached; enrollment can change at any
// moment behind the process's back.
package biometry

import "fmt"

// Policy selects which authentication the evaluator is asked about.
type Policy int

const (
	// PolicyBiometrics asks specifically about biometric authentication.
	PolicyBiometrics Policy = iota
	// PolicyDeviceOwner accepts biometrics or the device passcode.
	PolicyDeviceOwner
)

// Reason categorizes why an evaluation policy cannot currently be satisfied.
type Reason int

const (
	ReasonUnknown Reason = iota
	// ReasonNoHardware: the device has no usable biometric sensor.
	ReasonNoHardware
	// ReasonPasscodeNotSet: no device passcode/unlock is configured.
	ReasonPasscodeNotSet
	// ReasonNotEnrolled: sensor present but no biometric data enrolled.
	ReasonNotEnrolled
	// ReasonLockout: biometrics disabled after repeated failures.
	ReasonLockout
)

func (r Reason) String() string {
	switch r {
	case ReasonNoHardware:
		return "biometry not available"
	case ReasonPasscodeNotSet:
		return "passcode not set"
	case ReasonNotEnrolled:
		return "biometry not enrolled"
	case ReasonLockout:
		return "biometry lockout"
	default:
		return "unknown"
	}
}

// Error is the reason-coded error returned by an Evaluator's negative answer.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("biometry: %s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("biometry: %s", e.Reason)
}

// NewError builds a reason-coded evaluation error.
func NewError(reason Reason, message string) *Error {
	return &Error{Reason: reason, Message: message}
}

// Evaluator is the platform biometric subsystem capability.
type Evaluator interface {
	// CanEvaluate reports whether the given policy can currently be
	// satisfied. A false answer normally carries an *Error explaining why;
	// a false answer with no error (or a non-reason error) is treated as an
	// indefinite negative.
	CanEvaluate(policy Policy) (bool, error)
}
