package echo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnersguild/backoffice/internal/platform/httpclient"
	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	httpClient, err := httpclient.New("echo", server.URL, server.Client())
	require.NoError(t, err)
	return New(httpClient, "caller-jwt", nil)
}

func TestGetPhasesForUsers(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				Identifiers []string `json:"identifiers"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, req.Variables.Identifiers)
		_, _ = w.Write([]byte(`{"data":{"findMembers":[
			{"id":"u1","phase":{"number":3}},
			{"id":"u2","phase":null},
			{"id":"u3","phase":{"number":12}}
		]}}`))
	})

	prior := domain.Phase(1)
	users := []*domain.User{
		{ID: "u1"},
		{ID: "u2", Phase: &prior},
		{ID: "u3"},
		{ID: "u4", Phase: &prior},
	}
	require.NoError(t, client.GetPhasesForUsers(context.Background(), users))

	require.NotNil(t, users[0].Phase)
	assert.Equal(t, domain.Phase(3), *users[0].Phase)
	assert.Nil(t, users[1].Phase)
	assert.Nil(t, users[2].Phase)
	require.NotNil(t, users[3].Phase)
	assert.Equal(t, domain.Phase(1), *users[3].Phase)
}

func TestGetPhasesForUsersSkipsEmptyBatch(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	require.NoError(t, client.GetPhasesForUsers(context.Background(), nil))
	require.NoError(t, client.GetPhasesForUsers(context.Background(), []*domain.User{nil, {}}))
	assert.Zero(t, calls.Load())
}

func TestGetPhasesForUsersFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.GetPhasesForUsers(context.Background(), []*domain.User{{ID: "u1"}})
	require.ErrorContains(t, err, "find members")
}
