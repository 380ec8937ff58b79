package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	backoffice "github.com/learnersguild/backoffice/internal/services/backoffice/domain"
	"github.com/learnersguild/backoffice/internal/services/backoffice/filter"
)

// callTimeout bounds one tool call including every upstream request it makes.
const callTimeout = 30 * time.Second

// Users is the aggregator surface the tools call.
type Users interface {
	GetAllUsers(ctx context.Context, opts backoffice.Options) ([]*backoffice.User, error)
	GetAllLearners(ctx context.Context, opts backoffice.Options) ([]*backoffice.User, error)
	GetUserByHandle(ctx context.Context, handle string, opts backoffice.Options) (*backoffice.User, error)
}

// errUserNotFound is returned by user_get when no user has the handle.
var errUserNotFound = errors.New("user not found")

// ListUsersInput represents the MCP tool input for listing users or learners.
type ListUsersInput struct {
	Status             string `json:"status,omitempty" jsonschema:"activity filter: active (default), inactive or any"`
	Learners           bool   `json:"learners,omitempty" jsonschema:"keep only users with the learner role"`
	Phase              int    `json:"phase,omitempty" jsonschema:"keep only users in this program phase (1-5); enables phase lookup"`
	IncludePhases      bool   `json:"include_phases,omitempty" jsonschema:"look up each user's phase"`
	IncludeHubspotData bool   `json:"include_hubspot_data,omitempty" jsonschema:"merge CRM contact data into each user"`
	Filter             string `json:"filter,omitempty" jsonschema:"optional AIP-160 filter over status, role and phase, e.g. status = \"inactive\" AND phase = 3"`
}

// ListUsersResult represents the MCP tool output for a user listing.
type ListUsersResult struct {
	Users []UserRecord `json:"users" jsonschema:"matching users"`
	Count int          `json:"count" jsonschema:"number of users returned"`
}

// UserGetInput represents the MCP tool input for fetching one user.
type UserGetInput struct {
	Handle             string `json:"handle" jsonschema:"user handle"`
	IncludePhases      bool   `json:"include_phases,omitempty" jsonschema:"look up the user's phase"`
	IncludeHubspotData bool   `json:"include_hubspot_data,omitempty" jsonschema:"merge CRM contact data into the user"`
}

// UserGetResult represents the MCP tool output for one user.
type UserGetResult struct {
	User UserRecord `json:"user" jsonschema:"the user"`
}

// UserRecord is the tool-facing projection of an aggregated user. Unknown
// values are omitted.
type UserRecord struct {
	ID                               string   `json:"id" jsonschema:"identity user identifier"`
	Handle                           string   `json:"handle" jsonschema:"user handle"`
	Name                             string   `json:"name,omitempty" jsonschema:"display name"`
	Email                            string   `json:"email,omitempty" jsonschema:"primary email"`
	Roles                            []string `json:"roles,omitempty" jsonschema:"identity roles"`
	Active                           bool     `json:"active" jsonschema:"whether the user is active"`
	Phase                            int      `json:"phase,omitempty" jsonschema:"resolved program phase"`
	PhaseWeek                        int      `json:"phase_week,omitempty" jsonschema:"week within the current phase"`
	PhaseStartDate                   string   `json:"phase_start_date,omitempty" jsonschema:"start date of the current phase"`
	EchoPhase                        int      `json:"echo_phase,omitempty" jsonschema:"phase reported by the phase service"`
	HubspotPhase                     int      `json:"hubspot_phase,omitempty" jsonschema:"phase reported by the CRM"`
	Vid                              int64    `json:"vid,omitempty" jsonschema:"CRM contact id"`
	HubspotURL                       string   `json:"hubspot_url,omitempty" jsonschema:"CRM profile link"`
	Nickname                         string   `json:"nickname,omitempty" jsonschema:"CRM nickname"`
	LearningFacilitator              string   `json:"learning_facilitator,omitempty" jsonschema:"assigned learning facilitator"`
	PersonalDevelopmentDaysRemaining int      `json:"personal_development_days_remaining,omitempty"`
	PersonalDevelopmentDaysUsed      int      `json:"personal_development_days_used,omitempty"`
	PersonalDaysRemaining            int      `json:"personal_days_remaining,omitempty"`
	PersonalDaysUsed                 int      `json:"personal_days_used,omitempty"`
	Errors                           []string `json:"errors,omitempty" jsonschema:"non-fatal enrichment errors"`
}

// UsersListTool defines the MCP tool schema for listing users.
func UsersListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "users_list",
		Description: "List users from the identity service, optionally enriched with program phases and CRM data",
	}
}

// LearnersListTool defines the MCP tool schema for listing learners.
func LearnersListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "learners_list",
		Description: "List users with the learner role, optionally enriched with program phases and CRM data",
	}
}

// UserGetTool defines the MCP tool schema for fetching a user by handle.
func UserGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "user_get",
		Description: "Get one user by handle, optionally enriched with program phase and CRM data",
	}
}

// UsersListHandler lists users.
func UsersListHandler(users Users) mcp.ToolHandlerFor[ListUsersInput, ListUsersResult] {
	return listHandler(users, false)
}

// LearnersListHandler lists learners.
func LearnersListHandler(users Users) mcp.ToolHandlerFor[ListUsersInput, ListUsersResult] {
	return listHandler(users, true)
}

func listHandler(users Users, learnersOnly bool) mcp.ToolHandlerFor[ListUsersInput, ListUsersResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListUsersInput) (*mcp.CallToolResult, ListUsersResult, error) {
		if users == nil {
			return nil, ListUsersResult{}, backoffice.ErrServiceNotConfigured
		}
		opts, err := listOptions(input)
		if err != nil {
			return nil, ListUsersResult{}, err
		}

		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		var found []*backoffice.User
		if learnersOnly {
			found, err = users.GetAllLearners(runCtx, opts)
		} else {
			found, err = users.GetAllUsers(runCtx, opts)
		}
		if err != nil {
			return nil, ListUsersResult{}, fmt.Errorf("list users failed: %w", err)
		}

		result := ListUsersResult{Users: make([]UserRecord, 0, len(found))}
		for _, user := range found {
			if user == nil {
				continue
			}
			result.Users = append(result.Users, NewUserRecord(user))
		}
		result.Count = len(result.Users)
		return nil, result, nil
	}
}

// UserGetHandler fetches one user by handle.
func UserGetHandler(users Users) mcp.ToolHandlerFor[UserGetInput, UserGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UserGetInput) (*mcp.CallToolResult, UserGetResult, error) {
		if users == nil {
			return nil, UserGetResult{}, backoffice.ErrServiceNotConfigured
		}
		handle := strings.TrimSpace(input.Handle)
		if handle == "" {
			return nil, UserGetResult{}, backoffice.ErrHandleRequired
		}

		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		user, err := users.GetUserByHandle(runCtx, handle, backoffice.Options{
			IncludePhases:      backoffice.Bool(input.IncludePhases),
			IncludeHubspotData: backoffice.Bool(input.IncludeHubspotData),
		})
		if err != nil {
			return nil, UserGetResult{}, fmt.Errorf("get user failed: %w", err)
		}
		if user == nil {
			return nil, UserGetResult{}, fmt.Errorf("%w: %s", errUserNotFound, handle)
		}
		return nil, UserGetResult{User: NewUserRecord(user)}, nil
	}
}

func listOptions(input ListUsersInput) (backoffice.Options, error) {
	opts := backoffice.Options{
		IncludePhases:      backoffice.Bool(input.IncludePhases),
		IncludeHubspotData: backoffice.Bool(input.IncludeHubspotData),
	}
	if input.Learners {
		opts.Learners = backoffice.Bool(true)
	}
	if input.Phase != 0 {
		opts.Phase = backoffice.Int(input.Phase)
	}
	switch status := strings.ToLower(strings.TrimSpace(input.Status)); status {
	case "":
	case string(backoffice.ActivityActive):
		opts.Activity = backoffice.ActivityActive
	case string(backoffice.ActivityInactive):
		opts.Activity = backoffice.ActivityInactive
	case string(backoffice.ActivityAny), "all":
		opts.Activity = backoffice.ActivityAny
	default:
		return backoffice.Options{}, fmt.Errorf("unsupported status %q", input.Status)
	}
	return filter.Apply(input.Filter, opts)
}

// NewUserRecord projects an aggregated user for tool output.
func NewUserRecord(user *backoffice.User) UserRecord {
	if user == nil {
		return UserRecord{}
	}
	record := UserRecord{
		ID:                               user.ID,
		Handle:                           user.Handle,
		Name:                             user.Name,
		Email:                            user.Email,
		Roles:                            user.Roles,
		Active:                           user.Active,
		Phase:                            phaseValue(user.Phase),
		EchoPhase:                        phaseValue(user.EchoPhase),
		HubspotPhase:                     phaseValue(user.HubspotPhase),
		PhaseStartDate:                   stringValue(user.PhaseStartDate),
		HubspotURL:                       stringValue(user.HubspotURL),
		Nickname:                         stringValue(user.Nickname),
		LearningFacilitator:              stringValue(user.LearningFacilitator),
		PersonalDevelopmentDaysRemaining: user.PersonalDevelopmentDaysRemaining,
		PersonalDevelopmentDaysUsed:      user.PersonalDevelopmentDaysUsed,
		PersonalDaysRemaining:            user.PersonalDaysRemaining,
		PersonalDaysUsed:                 user.PersonalDaysUsed,
		Errors:                           user.Errors,
	}
	if user.PhaseWeek != nil {
		record.PhaseWeek = *user.PhaseWeek
	}
	if user.Vid != nil {
		record.Vid = *user.Vid
	}
	return record
}

func phaseValue(phase *backoffice.Phase) int {
	if phase == nil {
		return 0
	}
	return int(*phase)
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
