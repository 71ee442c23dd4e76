package api

import (
	"fmt"
	"strings"
)

// UnsupportedContentError is returned by a request adapter when a content part has no
// equivalent in the target vendor protocol. It is raised before any network call.
type UnsupportedContentError struct {
	Dialect  Dialect
	PartType string
	Role     string
}

func (e *UnsupportedContentError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("%s: unsupported %s part in %s turn", e.Dialect, e.PartType, e.Role)
	}
	return fmt.Sprintf("%s: unsupported %s part", e.Dialect, e.PartType)
}

// DialectNotSupportedError is returned by the router for a dialect with no registered entry.
type DialectNotSupportedError struct {
	Dialect string
}

func (e *DialectNotSupportedError) Error() string {
	return fmt.Sprintf("dialect not supported: %q", e.Dialect)
}

// MalformedEventError describes a wire event that did not match the vendor schema.
// Parsers surface it as an issue particle and keep consuming subsequent events.
type MalformedEventError struct {
	Dialect   Dialect
	EventName string
	Reason    string
	Payload   string
	Err       error
}

func (e *MalformedEventError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: malformed event", e.Dialect)
	if e.EventName != "" {
		fmt.Fprintf(&b, " %q", e.EventName)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}

// VendorAPIError is a failure reported by the vendor itself, either in-band in a stream or
// as an error body. The stream is over once one of these has been seen.
type VendorAPIError struct {
	Dialect    Dialect
	HTTPStatus int
	Code       string
	Message    string
}

func (e *VendorAPIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error", e.Dialect)
	if e.HTTPStatus != 0 {
		fmt.Fprintf(&b, " (http %d)", e.HTTPStatus)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// TransportError wraps network failures, non-2xx statuses and timeouts observed while
// executing a dispatch. Retrying is left to the caller.
type TransportError struct {
	Dialect    Dialect
	HTTPStatus int
	Err        error
}

func (e *TransportError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s transport: http %d: %v", e.Dialect, e.HTTPStatus, e.Err)
	}
	return fmt.Sprintf("%s transport: %v", e.Dialect, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
