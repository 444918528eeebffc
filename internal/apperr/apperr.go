// Package apperr defines the error taxonomy shared across the scoring
// engine so HTTP handlers, the job queue, and the pipeline can agree on a
// stable vocabulary of failure kinds without string-matching messages.
package apperr

import "errors"

// Kind is a stable, machine-checkable error classification.
type Kind string

const (
	KindBadRequest     Kind = "bad_request"
	KindUnsupportedFmt Kind = "unsupported_format"
	KindTooLarge       Kind = "too_large"
	KindAudioTooShort  Kind = "audio_too_short"
	KindNoSpeech       Kind = "no_speech_detected"
	KindNotFound       Kind = "not_found"
	KindDenied         Kind = "denied"
	KindUnauthorized   Kind = "unauthorized"
	KindRateLimited    Kind = "rate_limited"
	KindUpstream       Kind = "upstream_error"
	KindValidation     Kind = "validation_error"
	KindConfiguration  Kind = "configuration_error"
	KindInternal       Kind = "internal_error"
)

// Error is the concrete error type carried through the engine. It wraps an
// underlying cause (if any) while exposing a stable Kind for callers that
// need to branch on failure category (HTTP status mapping, retry policy).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetails attaches structured context to an error, returning a copy.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; otherwise it returns KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// httpStatus maps each Kind to the HTTP status code the engine's API
// surface reports for it.
var httpStatus = map[Kind]int{
	KindBadRequest:     400,
	KindUnsupportedFmt: 400,
	KindAudioTooShort:  400,
	KindNoSpeech:       422,
	KindTooLarge:       413,
	KindUnauthorized:   401,
	KindDenied:         403,
	KindNotFound:       404,
	KindRateLimited:    429,
	KindUpstream:       502,
	KindValidation:     502,
	KindConfiguration:  500,
	KindInternal:       500,
}

// HTTPStatus returns the status code the API surface should report for kind.
func HTTPStatus(kind Kind) int {
	if code, ok := httpStatus[kind]; ok {
		return code
	}
	return 500
}
