package logbroker

import "github.com/chris-alexander-pop/commander-core/pkg/errors"

// Error codes for log broker operations, layered on top of pkg/messaging's
// own codes for the underlying transport failure.
const (
	CodeAppendFailed   = "LOGBROKER_APPEND_FAILED"
	CodeConsumerFatal  = "LOGBROKER_CONSUMER_FATAL"
	CodeProducerClosed = "LOGBROKER_PRODUCER_CLOSED"
)

// ErrAppendFailed wraps a producer-side failure to append a record.
func ErrAppendFailed(err error) *errors.AppError {
	return errors.New(CodeAppendFailed, "failed to append log record", err)
}

// ErrProducerClosed is the result delivered on a closed/never-fulfilled
// append channel: the concrete form of spec.md's "send response channel
// closed" failure.
func ErrProducerClosed() *errors.AppError {
	return errors.New(CodeProducerClosed, "log producer is closed", nil)
}

// ErrConsumerFatal wraps a consume-loop failure that cannot be retried in
// place; the caller must restart the consumer.
func ErrConsumerFatal(err error) *errors.AppError {
	return errors.New(CodeConsumerFatal, "log consumer failed fatally", err)
}
