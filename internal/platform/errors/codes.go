// Package errors provides the coded error envelope returned by backoffice
// transports.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unclassified failure.
	CodeUnknown Code = "UNKNOWN"
	// CodeInvalidArgument represents a malformed request.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeUnauthenticated represents a missing, malformed or expired credential.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeNotFound represents a missing user.
	CodeNotFound Code = "NOT_FOUND"
	// CodeUpstreamUnavailable represents a failed identity or phase call.
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	// CodeUpstreamContract represents an upstream response with the wrong shape.
	CodeUpstreamContract Code = "UPSTREAM_CONTRACT"
	// CodeNotConfigured represents a missing service dependency.
	CodeNotConfigured Code = "NOT_CONFIGURED"
)

// HTTPStatus maps the code to an HTTP status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUpstreamUnavailable, CodeUpstreamContract:
		return http.StatusBadGateway
	case CodeNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
