package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/learnersguild/backoffice/internal/services/backoffice/domain"

// IdentityGateway reads canonical user records.
type IdentityGateway interface {
	// ListUsers returns every user. A nil slice with a nil error is treated
	// as a contract violation.
	ListUsers(ctx context.Context) ([]*User, error)
	// GetUserByHandle returns the user with exactly this handle, or nil.
	GetUserByHandle(ctx context.Context, handle string) (*User, error)
}

// PhaseGateway resolves learning phases.
type PhaseGateway interface {
	// GetPhasesForUsers sets Phase on each user it knows about. It must not
	// write any other user field.
	GetPhasesForUsers(ctx context.Context, users []*User) error
}

// CRMGateway resolves CRM contacts by email.
type CRMGateway interface {
	GetContactsByEmail(ctx context.Context, emails []string) ([]Contact, error)
	GetContactByEmail(ctx context.Context, email string) (Contact, error)
}

// Config controls logging, tracing and time for the service.
type Config struct {
	Logger *zap.Logger
	Tracer trace.Tracer
	Clock  func() time.Time
}

// Service orchestrates the fetch, filter, enrich and post-filter pipeline.
// It owns no state beyond its gateways.
type Service struct {
	identity IdentityGateway
	phases   PhaseGateway
	crm      CRMGateway
	logger   *zap.Logger
	tracer   trace.Tracer
	clock    func() time.Time
}

// NewService builds a backoffice service from upstream gateways.
func NewService(identity IdentityGateway, phases PhaseGateway, crm CRMGateway, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		identity: identity,
		phases:   phases,
		crm:      crm,
		logger:   logger,
		tracer:   tracer,
		clock:    clock,
	}
}

// GetAllUsers returns users matching opts, enriched as requested.
//
// Filters run before enrichment except the phase filter, which runs on the
// resolved phase afterwards. Identity service order is preserved.
func (s *Service) GetAllUsers(ctx context.Context, opts Options) (_ []*User, err error) {
	if s == nil {
		return nil, ErrServiceNotConfigured
	}
	if s.identity == nil {
		return nil, ErrIdentityGatewayNotConfigured
	}
	resolved := opts.resolve()
	if resolved.includePhases && s.phases == nil {
		return nil, ErrPhaseGatewayNotConfigured
	}

	ctx, span := s.tracer.Start(ctx, "backoffice.GetAllUsers", trace.WithAttributes(
		attribute.String("backoffice.activity", string(resolved.activity)),
		attribute.Bool("backoffice.learners", resolved.learners),
		attribute.Bool("backoffice.include_phases", resolved.includePhases),
		attribute.Bool("backoffice.include_hubspot_data", resolved.includeHubspotData),
	))
	defer func() {
		endSpan(span, err)
	}()

	users, err := s.identity.ListUsers(ctx)
	if err != nil {
		var contractErr *ContractError
		if errors.As(err, &contractErr) {
			return nil, err
		}
		return nil, &DependencyUnavailableError{Dependency: dependencyIdentityUsers, Err: err}
	}
	if users == nil {
		return nil, &ContractError{Dependency: dependencyIdentityUsers, Kind: "null"}
	}
	users = filterUsers(users, func(user *User) bool { return user != nil })

	if resolved.learners {
		users = filterUsers(users, IsLearner)
	}
	switch resolved.activity {
	case ActivityActive:
		users = filterUsers(users, IsActive)
	case ActivityInactive:
		users = filterUsers(users, IsInactive)
	}

	if err := s.enrich(ctx, users, resolved); err != nil {
		return nil, err
	}

	if resolved.phase != nil {
		want := *resolved.phase
		users = filterUsers(users, func(user *User) bool {
			return user.Phase != nil && *user.Phase == want
		})
	}

	span.SetAttributes(attribute.Int("backoffice.users", len(users)))
	s.logger.Debug("listed users",
		zap.Int("users", len(users)),
		zap.String("activity", string(resolved.activity)),
		zap.Bool("learners", resolved.learners),
	)
	return users, nil
}

// GetAllLearners is GetAllUsers restricted to learner-role users.
func (s *Service) GetAllLearners(ctx context.Context, opts Options) ([]*User, error) {
	opts.Learners = Bool(true)
	return s.GetAllUsers(ctx, opts)
}

// GetUserByHandle returns the user with this exact handle, or nil without an
// error when there is none. The phase is resolved before the CRM merge. CRM
// failures are recorded on the user.
// A blank handle returns ErrHandleRequired.
func (s *Service) GetUserByHandle(ctx context.Context, handle string, opts Options) (_ *User, err error) {
	if s == nil {
		return nil, ErrServiceNotConfigured
	}
	if s.identity == nil {
		return nil, ErrIdentityGatewayNotConfigured
	}
	resolved := opts.resolve()
	if resolved.includePhases && s.phases == nil {
		return nil, ErrPhaseGatewayNotConfigured
	}

	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrHandleRequired
	}

	ctx, span := s.tracer.Start(ctx, "backoffice.GetUserByHandle", trace.WithAttributes(
		attribute.String("backoffice.handle", handle),
		attribute.Bool("backoffice.include_phases", resolved.includePhases),
		attribute.Bool("backoffice.include_hubspot_data", resolved.includeHubspotData),
	))
	defer func() {
		endSpan(span, err)
	}()

	user, err := s.identity.GetUserByHandle(ctx, handle)
	if err != nil {
		return nil, &DependencyUnavailableError{Dependency: dependencyIdentityUser, Err: err}
	}
	if user == nil {
		return nil, nil
	}
	if resolved.includePhases {
		if err := s.PhasesForUsers(ctx, []*User{user}); err != nil {
			return nil, err
		}
	}
	if resolved.includeHubspotData {
		s.HubspotDataForUser(ctx, user)
	}
	return user, nil
}

// PhasesForUsers loads phases for the whole batch in one call. Failures are
// not recovered.
func (s *Service) PhasesForUsers(ctx context.Context, users []*User) error {
	if s == nil {
		return ErrServiceNotConfigured
	}
	if s.phases == nil {
		return ErrPhaseGatewayNotConfigured
	}
	if err := s.phases.GetPhasesForUsers(ctx, users); err != nil {
		return &DependencyUnavailableError{Dependency: dependencyEchoPhases, Err: err}
	}
	return nil
}

// enrich runs the requested enrichment tasks concurrently and waits for all
// of them. Contacts are fetched concurrently with phases but merged after the
// join, since merging reads and writes Phase.
func (s *Service) enrich(ctx context.Context, users []*User, resolved resolvedOptions) error {
	if !resolved.includePhases && !resolved.includeHubspotData {
		return nil
	}

	var (
		emails     = collectEmails(users)
		contacts   []Contact
		contactErr error
	)
	group, groupCtx := errgroup.WithContext(ctx)
	if resolved.includePhases {
		group.Go(func() error {
			return s.PhasesForUsers(groupCtx, users)
		})
	}
	switch {
	case resolved.includeHubspotData && s.crm == nil:
		contactErr = ErrCRMGatewayNotConfigured
	case resolved.includeHubspotData:
		group.Go(func() error {
			contacts, contactErr = s.crm.GetContactsByEmail(groupCtx, emails)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if resolved.includeHubspotData {
		s.applyHubspotContacts(users, contacts, contactErr)
	}
	return nil
}

// filterUsers returns the users matching keep, in order.
func filterUsers(users []*User, keep func(*User) bool) []*User {
	result := make([]*User, 0, len(users))
	for _, user := range users {
		if keep(user) {
			result = append(result, user)
		}
	}
	return result
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
