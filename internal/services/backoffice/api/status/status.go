// Package status classifies backoffice failures into coded transport errors.
package status

import (
	"errors"

	apperrors "github.com/learnersguild/backoffice/internal/platform/errors"
	"github.com/learnersguild/backoffice/internal/services/backoffice/credential"
	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
)

// ErrUserNotFound indicates a handle that matches no user.
var ErrUserNotFound = apperrors.New(apperrors.CodeNotFound, "user not found")

// FromError maps err to a coded error with a caller-safe message. A nil err
// returns nil.
func FromError(err error) *apperrors.Error {
	if err == nil {
		return nil
	}

	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return coded
	}

	var (
		contractErr   *domain.ContractError
		dependencyErr *domain.DependencyUnavailableError
	)
	switch {
	case errors.Is(err, credential.ErrExpiredCredential):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "credential is expired", err)
	case errors.Is(err, credential.ErrInvalidCredential):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "credential is invalid", err)
	case errors.Is(err, domain.ErrHandleRequired):
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err.Error(), err)
	case errors.As(err, &contractErr):
		return apperrors.Wrap(apperrors.CodeUpstreamContract, contractErr.Error(), err)
	case errors.As(err, &dependencyErr):
		return apperrors.Wrap(apperrors.CodeUpstreamUnavailable, dependencyErr.Error(), err)
	case errors.Is(err, domain.ErrServiceNotConfigured),
		errors.Is(err, domain.ErrIdentityGatewayNotConfigured),
		errors.Is(err, domain.ErrPhaseGatewayNotConfigured),
		errors.Is(err, domain.ErrCRMGatewayNotConfigured):
		return apperrors.Wrap(apperrors.CodeNotConfigured, err.Error(), err)
	default:
		return apperrors.Wrap(apperrors.CodeUnknown, "internal error", err)
	}
}
