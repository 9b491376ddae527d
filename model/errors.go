package model

import "fmt"

// ErrorCode is a stable category for programmatic error handling.
//
// Callers should branch on the code rather than matching error strings;
// messages are for humans and may evolve.
type ErrorCode string

const (
	// ErrMalformedInput covers bad hex, wrong key or digest lengths, and
	// unsupported image types. Rejected before any cryptographic work.
	ErrMalformedInput ErrorCode = "MALFORMED_INPUT"

	// ErrHashMismatch means a candidate file's content fingerprint differs
	// from the stored one. Reported, never retried.
	ErrHashMismatch ErrorCode = "HASH_MISMATCH"

	// ErrSignatureInvalid means payload, signature, and public key do not
	// agree. A tamper signal, never auto-corrected.
	ErrSignatureInvalid ErrorCode = "SIGNATURE_INVALID"

	// ErrActionExpired means an action-authorization timestamp fell outside
	// the validity window. Distinct from ErrSignatureInvalid so callers can
	// simply retry with a fresh timestamp.
	ErrActionExpired ErrorCode = "ACTION_EXPIRED"

	// ErrNotFound means no record exists for the given identifier or
	// fingerprint.
	ErrNotFound ErrorCode = "NOT_FOUND"

	ErrInternal ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a human
// message.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

func WrapError(code ErrorCode, message string, cause error) *CodedError {
	return &CodedError{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the ErrorCode from err, or ErrInternal when err carries
// no code.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if ce, ok := err.(*CodedError); ok {
			return ce.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrInternal
}
