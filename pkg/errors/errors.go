package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTopic     = NewError("INVALID_TOPIC", "topic does not match the input prefix")
	ErrMalformedPayload = NewError("MALFORMED_PAYLOAD", "payload is not a JSON object")
	ErrValidation       = NewError("VALIDATION_ERROR", "validation failed")
	ErrPublish          = NewError("PUBLISH_FAILED", "failed to publish message")
	ErrNotConnected     = NewError("NOT_CONNECTED", "not connected to broker")
	ErrInternal         = NewError("INTERNAL_ERROR", "internal error")
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

type Error struct {
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	retryable *bool
}

func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
		if fields, ok := e.Details["fields"].([]string); ok && len(fields) > 0 {
			msg = fmt.Sprintf("%s [%s]", msg, strings.Join(fields, ", "))
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Code so that errors.Is(err, ErrValidation) holds for any
// copy produced by the With* builders.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) IsRetryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	if e.Cause != nil {
		var retryableErr RetryableError
		if errors.As(e.Cause, &retryableErr) {
			return retryableErr.IsRetryable()
		}
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return !fatalErr.IsFatal()
		}
	}
	return !isDecodeCode(e.Code)
}

func (e *Error) IsFatal() bool {
	if e.retryable != nil {
		return !*e.retryable
	}

	if e.Cause != nil {
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return fatalErr.IsFatal()
		}
	}

	return isDecodeCode(e.Code)
}

// decode failures depend only on the message, so repeating them never helps
func isDecodeCode(code string) bool {
	switch code {
	case ErrInvalidTopic.Code, ErrMalformedPayload.Code, ErrValidation.Code:
		return true
	}
	return false
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	err.Details = details
	return &err
}

func (e *Error) AsRetryable() *Error {
	err := *e
	retryable := true
	err.retryable = &retryable
	return &err
}

func (e *Error) AsFatal() *Error {
	err := *e
	retryable := false
	err.retryable = &retryable
	return &err
}

func hasCode(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsInvalidTopic(err error) bool {
	return hasCode(err, ErrInvalidTopic.Code)
}

func IsMalformedPayload(err error) bool {
	return hasCode(err, ErrMalformedPayload.Code)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrValidation.Code)
}

// Code returns the application error code of err, or INTERNAL_ERROR when err
// is not an *Error.
func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal.Code
}

// Fields returns the offending field names carried by a validation error.
func Fields(err error) []string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return nil
	}
	fields, _ := appErr.Details["fields"].([]string)
	return fields
}
