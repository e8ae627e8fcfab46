package log

import (
	"github.com/cockroachdb/errors"
)

// marshalStack renders the stack recorded by cockroachdb/errors for
// zerolog's Stack() support.
func marshalStack(err error) interface{} {
	if err == nil {
		return nil
	}
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	// GetSafeDetails only inspects the outermost layer; the stack usually
	// sits one wrap down.
	for cause := errors.UnwrapOnce(err); cause != nil; cause = errors.UnwrapOnce(cause) {
		if details := errors.GetSafeDetails(cause).SafeDetails; len(details) > 0 {
			return details[0]
		}
	}
	return nil
}
