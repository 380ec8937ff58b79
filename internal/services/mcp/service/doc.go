// Package service wires MCP transports to the backoffice tools.
//
// It runs the same tool set over stdio for local clients or streamable HTTP
// for remote ones, and leaves tool meaning to the domain package.
package service
