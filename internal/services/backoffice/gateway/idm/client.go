// Package idm reads users from the identity service.
package idm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/learnersguild/backoffice/internal/platform/httpclient"
	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
	"github.com/learnersguild/backoffice/internal/services/backoffice/gateway/graphql"
)

const userFields = `id handle name email roles active`

const findUsersQuery = `query { findUsers { ` + userFields + ` } }`

const getUserQuery = `query ($identifier: String!) { getUser(identifier: $identifier) { ` + userFields + ` } }`

// Client calls the identity service on behalf of one caller.
type Client struct {
	http   *httpclient.Client
	token  string
	logger *zap.Logger
}

var _ domain.IdentityGateway = (*Client)(nil)

// New builds an identity client that forwards token on every call.
func New(http *httpclient.Client, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, token: token, logger: logger}
}

type user struct {
	ID     string   `json:"id"`
	Handle string   `json:"handle"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	Active bool     `json:"active"`
}

func (u *user) toDomain() *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:     u.ID,
		Handle: u.Handle,
		Name:   u.Name,
		Email:  u.Email,
		Roles:  u.Roles,
		Active: u.Active,
	}
}

// ListUsers returns every user in identity service order. A findUsers value
// that is not a JSON array is a *domain.ContractError.
func (c *Client) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var data struct {
		FindUsers json.RawMessage `json:"findUsers"`
	}
	if err := graphql.Query(ctx, c.http, c.token, findUsersQuery, nil, &data); err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	if kind := graphql.Kind(data.FindUsers); kind != "array" {
		return nil, &domain.ContractError{Dependency: "idm.users", Kind: kind}
	}

	var raw []*user
	if err := json.Unmarshal(data.FindUsers, &raw); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]*domain.User, 0, len(raw))
	for _, item := range raw {
		if item == nil {
			continue
		}
		users = append(users, item.toDomain())
	}
	c.logger.Debug("loaded users", zap.Int("users", len(users)))
	return users, nil
}

// GetUserByHandle returns the user whose handle equals handle, or nil.
func (c *Client) GetUserByHandle(ctx context.Context, handle string) (*domain.User, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, nil
	}
	var data struct {
		GetUser *user `json:"getUser"`
	}
	variables := map[string]any{"identifier": handle}
	if err := graphql.Query(ctx, c.http, c.token, getUserQuery, variables, &data); err != nil {
		return nil, fmt.Errorf("get user %q: %w", handle, err)
	}
	// getUser also matches ids and emails.
	if data.GetUser == nil || data.GetUser.Handle != handle {
		return nil, nil
	}
	return data.GetUser.toDomain(), nil
}
