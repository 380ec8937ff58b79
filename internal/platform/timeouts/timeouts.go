// Package timeouts defines shared timeout constants used by backoffice
// commands.
package timeouts

import "time"

// UpstreamRequest caps one call to the identity, phase or CRM service when
// no override is configured.
const UpstreamRequest = 10 * time.Second

// HealthDial caps the wait for the health endpoint in the healthcheck probe.
const HealthDial = 3 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second
