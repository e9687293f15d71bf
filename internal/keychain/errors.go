package keychain

import (
	"biovault/internal/credstore"
	dErrors "biovault/pkg/domain-errors"
)

// statusError maps a platform status code into the error taxonomy. The
// mapping is exhaustive over the status enum; anything unrecognized falls
// through to CodeInternal with the raw code preserved.
//
// StatusSuccess and StatusNotFound never reach this function on read paths:
// success is not an error and not-found maps to an absent result.
func statusError(st credstore.Status, op string) error {
	var code dErrors.Code
	switch st {
	case credstore.StatusNotFound:
		code = dErrors.CodeNotFound
	case credstore.StatusDuplicateItem:
		code = dErrors.CodeDuplicateItem
	case credstore.StatusAuthFailed:
		code = dErrors.CodeAuthFailed
	case credstore.StatusBadParameter:
		code = dErrors.CodeInvalidParams
	case credstore.StatusOther:
		code = dErrors.CodeInternal
	default:
		code = dErrors.CodeInternal
	}
	return dErrors.Newf(code, "%s: credential store reported %s", op, st).
		WithPlatformCode(int(st))
}
