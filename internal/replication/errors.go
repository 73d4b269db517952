package replication

import "github.com/chris-alexander-pop/commander-core/pkg/errors"

const (
	CodePutRecordFailed errors.Code = "REPLICATION_PUT_RECORD_FAILED"
)

// errPutRecordFailed wraps a streaming.Client.PutRecord failure for logging;
// the mirror never propagates this to a caller.
func errPutRecordFailed(err error) *errors.AppError {
	return errors.New(CodePutRecordFailed, "failed to mirror record to streaming backend", err)
}
