// Package graphql sends GraphQL queries over the shared JSON client.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/learnersguild/backoffice/internal/platform/httpclient"
)

// Path is the GraphQL endpoint path on every upstream.
const Path = "/graphql"

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors"`
}

// Error is one GraphQL error entry.
type Error struct {
	Message string `json:"message"`
}

// Errors reports GraphQL-level failures returned with a 200 response.
type Errors []Error

// Error joins the upstream messages.
func (e Errors) Error() string {
	messages := make([]string, 0, len(e))
	for _, item := range e {
		messages = append(messages, item.Message)
	}
	return "graphql: " + strings.Join(messages, "; ")
}

// Query posts query with variables and decodes the data object into out.
func Query(ctx context.Context, client *httpclient.Client, token, query string, variables map[string]any, out any) error {
	var resp response
	err := client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   Path,
		Header: httpclient.BearerHeader(token),
		Body:   request{Query: query, Variables: variables},
	}, &resp)
	if err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return Errors(resp.Errors)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("%s: graphql response has no data", client.Service())
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode %s graphql data: %w", client.Service(), err)
	}
	return nil
}

// Kind names the JSON type of raw the way a contract error reports it.
func Kind(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "undefined"
	}
	switch trimmed[0] {
	case '[':
		return "array"
	case '{':
		return "object"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
