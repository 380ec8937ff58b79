package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/learnersguild/backoffice/internal/platform/discovery"
	"github.com/learnersguild/backoffice/internal/platform/timeouts"
)

// Settings locates the upstream services shared by every request.
type Settings struct {
	IDMURL         string
	EchoURL        string
	HubspotURL     string
	HubspotAPIKey  string
	RequestTimeout time.Duration
}

// WithDefaults fills unset upstream URLs from service discovery and an unset
// timeout from the platform default.
func (s Settings) WithDefaults() Settings {
	s.IDMURL = discovery.OrDefaultHTTPBaseURL(s.IDMURL, discovery.ServiceIDM)
	s.EchoURL = discovery.OrDefaultHTTPBaseURL(s.EchoURL, discovery.ServiceEcho)
	s.HubspotURL = discovery.OrDefaultHTTPBaseURL(s.HubspotURL, discovery.ServiceHubspot)
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = timeouts.UpstreamRequest
	}
	return s
}

// CRMEnabled reports whether an API key for the CRM is configured.
func (s Settings) CRMEnabled() bool {
	return strings.TrimSpace(s.HubspotAPIKey) != ""
}

// Validate reports every problem with the settings at once.
func (s Settings) Validate() error {
	var err error
	err = multierr.Append(err, validateBaseURL("idm url", s.IDMURL))
	err = multierr.Append(err, validateBaseURL("echo url", s.EchoURL))
	if s.CRMEnabled() {
		err = multierr.Append(err, validateBaseURL("hubspot url", s.HubspotURL))
	}
	if s.RequestTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("request timeout must not be negative: %s", s.RequestTimeout))
	}
	return err
}

func validateBaseURL(name, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https: %q", name, raw)
	}
	if parsed.Host == "" {
		return errors.New(name + " must include a host")
	}
	return nil
}
