package commander

import "github.com/chris-alexander-pop/commander-core/pkg/errors"

// Error codes for Commander operations not already covered by
// internal/logbroker or internal/fanout.
const (
	CodeValidationFailed = "COMMANDER_VALIDATION_FAILED"
)

// ErrValidationFailed wraps a validateCommandParams rejection. This is
// surfaced to the caller before any append, per spec.md §7's
// ValidationFailure kind.
func ErrValidationFailed(err error) *errors.AppError {
	return errors.New(CodeValidationFailed, "command params failed validation", err)
}
