package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure the library can return
type ErrorKind string

const (
	KindConfigurationInvalid   ErrorKind = "configuration_invalid"
	KindPayloadInvalid         ErrorKind = "payload_invalid"
	KindProviderNotConfigured  ErrorKind = "provider_not_configured"
	KindCapabilityNotSupported ErrorKind = "capability_not_supported"
	KindTransportFailure       ErrorKind = "transport_failure"
	KindVerificationFailed     ErrorKind = "verification_failed"
)

// Sentinels for errors.Is checks. They match any *Error of the same kind.
var (
	ErrConfigurationInvalid   = &Error{Kind: KindConfigurationInvalid}
	ErrPayloadInvalid         = &Error{Kind: KindPayloadInvalid}
	ErrProviderNotConfigured  = &Error{Kind: KindProviderNotConfigured}
	ErrCapabilityNotSupported = &Error{Kind: KindCapabilityNotSupported}
	ErrTransportFailure       = &Error{Kind: KindTransportFailure}
	ErrVerificationFailed     = &Error{Kind: KindVerificationFailed}
)

// Error is the single error type returned by adapters and the payment service
type Error struct {
	Kind     ErrorKind
	Provider ProviderID
	Op       string
	Message  string

	// StatusCode and Body are only set for transport failures
	StatusCode int
	Body       string

	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(string(e.Provider))
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Provider == "" && t.Op == "" && t.Message == ""
}

// NewError creates a new kind-tagged error
func NewError(kind ErrorKind, id ProviderID, op, message string, cause error) *Error {
	return &Error{
		Kind:     kind,
		Provider: id,
		Op:       op,
		Message:  message,
		Err:      cause,
	}
}

// KindOf returns the kind of err, or an empty kind if err was not produced by this package
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// PayloadError is shorthand for a payload validation failure
func PayloadError(id ProviderID, op, message string, cause error) *Error {
	return NewError(KindPayloadInvalid, id, op, message, cause)
}

// VerificationError is shorthand for a verification failure
func VerificationError(id ProviderID, op, message string, cause error) *Error {
	return NewError(KindVerificationFailed, id, op, message, cause)
}

// ConfigError is shorthand for a configuration failure
func ConfigError(id ProviderID, message string, cause error) *Error {
	return NewError(KindConfigurationInvalid, id, "config", message, cause)
}
