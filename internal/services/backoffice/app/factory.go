package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/learnersguild/backoffice/internal/platform/discovery"
	"github.com/learnersguild/backoffice/internal/platform/httpclient"
	"github.com/learnersguild/backoffice/internal/services/backoffice/credential"
	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
	"github.com/learnersguild/backoffice/internal/services/backoffice/gateway/echo"
	"github.com/learnersguild/backoffice/internal/services/backoffice/gateway/hubspot"
	"github.com/learnersguild/backoffice/internal/services/backoffice/gateway/idm"
)

// Factory builds request-scoped aggregators. Upstream HTTP clients are built
// once and shared; the caller credential is bound per aggregator.
type Factory struct {
	idm    *httpclient.Client
	echo   *httpclient.Client
	crm    domain.CRMGateway
	logger *zap.Logger
	clock  func() time.Time
}

// FactoryOption customizes a Factory.
type FactoryOption func(*Factory)

// WithClock sets the clock handed to every aggregator.
func WithClock(clock func() time.Time) FactoryOption {
	return func(f *Factory) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// NewFactory validates settings and builds the shared upstream clients. The
// CRM gateway is left unset when no API key is configured.
func NewFactory(settings Settings, logger *zap.Logger, opts ...FactoryOption) (*Factory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backoffice settings: %w", err)
	}

	httpClient := httpclient.NewHTTPClient(settings.RequestTimeout)
	idmClient, err := httpclient.New(discovery.ServiceIDM, settings.IDMURL, httpClient)
	if err != nil {
		return nil, err
	}
	echoClient, err := httpclient.New(discovery.ServiceEcho, settings.EchoURL, httpClient)
	if err != nil {
		return nil, err
	}

	factory := &Factory{
		idm:    idmClient,
		echo:   echoClient,
		logger: logger,
		clock:  time.Now,
	}
	if settings.CRMEnabled() {
		hubspotClient, err := httpclient.New(discovery.ServiceHubspot, settings.HubspotURL, httpClient)
		if err != nil {
			return nil, err
		}
		factory.crm = hubspot.New(hubspotClient, settings.HubspotAPIKey, logger.Named("hubspot"))
	} else {
		logger.Warn("hubspot api key not set; CRM enrichment disabled")
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory, nil
}

// New builds an aggregator that calls the identity and phase services with
// cred.
func (f *Factory) New(cred credential.Credential) *domain.Service {
	token := cred.Token()
	return domain.NewService(
		idm.New(f.idm, token, f.logger.Named("idm")),
		echo.New(f.echo, token, f.logger.Named("echo")),
		f.crm,
		domain.Config{Logger: f.logger, Clock: f.clock},
	)
}
