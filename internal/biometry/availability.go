package biometry

import "errors"

// Availability is the 3-state model exposed to callers. It is computed, never
// stored: every resolution queries the evaluator again.
type Availability int

const (
	// Unavailable: no usable sensor or no passcode set.
	Unavailable Availability = iota
	// Available: sensor physically present and usable in principle, but no
	// biometric currently enrolled. Also covers negative answers the
	// platform cannot attribute; on some OS versions "no passcode" and "not
	// enrolled" were indistinguishable, so only definite hardware/passcode
	// negatives demote to Unavailable.
	Available
	// Configured: a biometric credential is enrolled and usable now.
	Configured
)

func (a Availability) String() string {
	switch a {
	case Unavailable:
		return "unavailable"
	case Available:
		return "available"
	case Configured:
		return "configured"
	default:
		return "unknown"
	}
}

// Resolve classifies the current biometric state for a policy.
func Resolve(eval Evaluator, policy Policy) Availability {
	ok, err := eval.CanEvaluate(policy)
	if ok {
		return Configured
	}

	var bErr *Error
	if errors.As(err, &bErr) {
		switch bErr.Reason {
		case ReasonNoHardware, ReasonPasscodeNotSet:
			return Unavailable
		}
	}
	return Available
}
