package domain

import (
	"errors"
	"strings"
)

const (
	dependencyIdentityUsers = "idm.users"
	dependencyIdentityUser  = "idm.user"
	dependencyEchoPhases    = "echo.phases"
	dependencyHubspot       = "hubspot.contacts"
)

var (
	// ErrServiceNotConfigured indicates the backoffice service is nil.
	ErrServiceNotConfigured = errors.New("backoffice service is not configured")
	// ErrHandleRequired indicates a blank user handle.
	ErrHandleRequired = errors.New("handle is required")
	// ErrIdentityGatewayNotConfigured indicates the identity dependency is missing.
	ErrIdentityGatewayNotConfigured = errors.New("identity gateway is not configured")
	// ErrPhaseGatewayNotConfigured indicates the phase dependency is missing.
	ErrPhaseGatewayNotConfigured = errors.New("phase gateway is not configured")
	// ErrCRMGatewayNotConfigured indicates the CRM dependency is missing.
	ErrCRMGatewayNotConfigured = errors.New("crm gateway is not configured")
)

// DependencyUnavailableError reports that an upstream dependency the request
// cannot do without failed.
type DependencyUnavailableError struct {
	Dependency string
	Err        error
}

// Error returns the dependency failure message.
func (e *DependencyUnavailableError) Error() string {
	if e == nil {
		return "dependency unavailable"
	}
	if strings.TrimSpace(e.Dependency) == "" {
		return "dependency unavailable"
	}
	if e.Err == nil {
		return e.Dependency + " unavailable"
	}
	return e.Dependency + " unavailable: " + e.Err.Error()
}

// Unwrap exposes the wrapped dependency failure.
func (e *DependencyUnavailableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ContractError reports an upstream response whose shape breaks the
// contract, such as a user list that is not a list.
type ContractError struct {
	Dependency string
	// Kind describes what was received instead, e.g. "object" or "null".
	Kind string
}

// Error returns the contract violation message.
func (e *ContractError) Error() string {
	if e == nil {
		return "contract violation"
	}
	kind := strings.TrimSpace(e.Kind)
	if kind == "" {
		kind = "undefined"
	}
	if strings.TrimSpace(e.Dependency) == "" {
		return kind + " is not array"
	}
	return e.Dependency + ": " + kind + " is not array"
}
