// Package discovery centralizes in-network addresses for backoffice and its
// upstream services.
package discovery

import (
	"strconv"
	"strings"
)

const (
	// ServiceBackoffice is the backoffice HTTP API identity.
	ServiceBackoffice = "backoffice"
	// ServiceBackofficeHealth is the backoffice gRPC health endpoint identity.
	ServiceBackofficeHealth = "backoffice-health"
	// ServiceMCP is the backoffice MCP HTTP identity.
	ServiceMCP = "backoffice-mcp"
	// ServiceIDM is the identity service.
	ServiceIDM = "idm"
	// ServiceEcho is the learning-phase service.
	ServiceEcho = "echo"
	// ServiceHubspot is the CRM service.
	ServiceHubspot = "hubspot"
)

var grpcPorts = map[string]int{
	ServiceBackofficeHealth: 8095,
}

var httpPorts = map[string]int{
	ServiceBackoffice: 8094,
	ServiceMCP:        8096,
	ServiceIDM:        9001,
	ServiceEcho:       9002,
}

// externalBaseURLs lists services reached outside the cluster network.
var externalBaseURLs = map[string]string{
	ServiceHubspot: "https://api.hubapi.com",
}

// DefaultGRPCAddr returns the canonical in-network gRPC address for a service.
func DefaultGRPCAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), grpcPorts)
}

// DefaultHTTPAddr returns the canonical in-network HTTP address for a service.
func DefaultHTTPAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), httpPorts)
}

// DefaultPort returns the canonical listen port for a service, or 0.
func DefaultPort(service string) int {
	service = strings.TrimSpace(service)
	if port, ok := httpPorts[service]; ok {
		return port
	}
	return grpcPorts[service]
}

// OrDefaultGRPCAddr returns value when set, otherwise the service convention.
func OrDefaultGRPCAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultGRPCAddr(service)
}

// OrDefaultHTTPBaseURL returns value when set, otherwise the external URL or
// http://<service-host:port>.
func OrDefaultHTTPBaseURL(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return strings.TrimRight(value, "/")
	}
	service = strings.TrimSpace(service)
	if external, ok := externalBaseURLs[service]; ok {
		return external
	}
	addr := DefaultHTTPAddr(service)
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

func defaultAddr(service string, ports map[string]int) string {
	port, ok := ports[service]
	if !ok || port <= 0 {
		return ""
	}
	return service + ":" + strconv.Itoa(port)
}
