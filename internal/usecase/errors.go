package usecase

import "fmt"

type ErrorCode string

const (
	ErrorConfig         ErrorCode = "CONFIG_ERROR"
	ErrorTemplate       ErrorCode = "TEMPLATE_ERROR"
	ErrorUpstream       ErrorCode = "UPSTREAM_ERROR"
	ErrorMalformedReply ErrorCode = "MALFORMED_REPLY"
	ErrorNoResponse     ErrorCode = "NO_RESPONSE"
	ErrorTranscript     ErrorCode = "TRANSCRIPT_ERROR"
	ErrorHalted         ErrorCode = "OPERATOR_HALTED"
)

// Error is the failure type returned by the exam run. Every Error is fatal to
// the run that produced it.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
