// Package domain maps MCP tool calls onto the backoffice user aggregator.
//
// Each tool has a Tool() schema and a Handler() bound to an aggregator; the
// service package registers them on a server.
package domain
