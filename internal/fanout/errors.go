package fanout

import "github.com/chris-alexander-pop/commander-core/pkg/errors"

// Error codes for the fanout hub.
const (
	CodeHubShutdown  = "FANOUT_HUB_SHUTDOWN"
	CodeAwaitTimeout = "FANOUT_AWAIT_TIMEOUT"
)

// ErrHubShutdown is returned by Subscribe*/Register/AwaitEventByParent once
// the hub has entered its terminal state.
func ErrHubShutdown() *errors.AppError {
	return errors.New(CodeHubShutdown, "fanout hub is shut down", nil)
}

// ErrAwaitTimeout is returned by Wait/AwaitEventByParent when no matching
// event is demuxed before the deadline, or the hub shuts down while
// waiting — both are reported as a timeout (see DESIGN.md on the
// shutdown-mid-wait open question).
func ErrAwaitTimeout() *errors.AppError {
	return errors.New(CodeAwaitTimeout, "timed out waiting for completion event", nil)
}
