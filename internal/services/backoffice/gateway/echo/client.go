// Package echo reads learning phases from the phase service.
package echo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/learnersguild/backoffice/internal/platform/httpclient"
	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
	"github.com/learnersguild/backoffice/internal/services/backoffice/gateway/graphql"
)

const findMembersQuery = `query ($identifiers: [ID]!) { findMembers(identifiers: $identifiers) { id phase { number } } }`

// Client calls the phase service on behalf of one caller.
type Client struct {
	http   *httpclient.Client
	token  string
	logger *zap.Logger
}

var _ domain.PhaseGateway = (*Client)(nil)

// New builds a phase client that forwards token on every call.
func New(http *httpclient.Client, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, token: token, logger: logger}
}

type member struct {
	ID    string `json:"id"`
	Phase *struct {
		Number *int `json:"number"`
	} `json:"phase"`
}

// GetPhasesForUsers sets Phase on every user the phase service returns.
// Members without a valid phase get a nil Phase; users the service does not
// return are left untouched.
func (c *Client) GetPhasesForUsers(ctx context.Context, users []*domain.User) error {
	ids := make([]string, 0, len(users))
	for _, user := range users {
		if user == nil || user.ID == "" {
			continue
		}
		ids = append(ids, user.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	var data struct {
		FindMembers []*member `json:"findMembers"`
	}
	variables := map[string]any{"identifiers": ids}
	if err := graphql.Query(ctx, c.http, c.token, findMembersQuery, variables, &data); err != nil {
		return fmt.Errorf("find members: %w", err)
	}

	phases := make(map[string]*domain.Phase, len(data.FindMembers))
	for _, item := range data.FindMembers {
		if item == nil || item.ID == "" {
			continue
		}
		phases[item.ID] = memberPhase(item)
	}
	for _, user := range users {
		if user == nil {
			continue
		}
		if phase, ok := phases[user.ID]; ok {
			user.Phase = phase
		}
	}
	c.logger.Debug("loaded phases", zap.Int("requested", len(ids)), zap.Int("members", len(phases)))
	return nil
}

func memberPhase(item *member) *domain.Phase {
	if item.Phase == nil || item.Phase.Number == nil {
		return nil
	}
	phase := domain.Phase(*item.Phase.Number)
	if !phase.Valid() {
		return nil
	}
	return &phase
}
