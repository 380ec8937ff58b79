package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestNewValidatesBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New("idm", " ", nil)
	require.ErrorIs(t, err, ErrBaseURLRequired)

	_, err = New("idm", "idm:9001", nil)
	require.Error(t, err)

	client, err := New("idm", "http://idm:9001", nil)
	require.NoError(t, err)
	assert.Equal(t, "idm", client.Service())
}

func TestDoSendsJSONAndDecodes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/graphql", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("v"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ping", payload["query"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"pong"}`))
	}))
	defer server.Close()

	client, err := New("idm", server.URL+"/api", server.Client())
	require.NoError(t, err)

	var out struct {
		Answer string `json:"answer"`
	}
	err = client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "graphql",
		Query:  url.Values{"v": {"1"}},
		Header: BearerHeader("token"),
		Body:   map[string]string{"query": "ping"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "pong", out.Answer)
}

func TestDoReturnsStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"contact does not exist"}`))
	}))
	defer server.Close()

	client, err := New("hubspot", server.URL, server.Client())
	require.NoError(t, err)

	err = client.Do(context.Background(), Request{Path: "/contacts"}, nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.JSONEq(t, `{"message":"contact does not exist"}`, string(statusErr.Body))
	assert.Contains(t, err.Error(), "hubspot returned 404")
}

func TestDoReportsDecodeFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client, err := New("echo", server.URL, server.Client())
	require.NoError(t, err)

	var out map[string]any
	err = client.Do(context.Background(), Request{Path: "/graphql"}, &out)
	require.ErrorContains(t, err, "decode echo response")
}

func TestBearerHeaderBlank(t *testing.T) {
	t.Parallel()

	assert.Nil(t, BearerHeader("  "))
}

func TestNewHTTPClientTracesRequests(t *testing.T) {
	t.Parallel()

	var traceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	httpClient := NewHTTPClient(time.Second,
		otelhttp.WithTracerProvider(provider),
		otelhttp.WithPropagators(propagation.TraceContext{}),
	)
	client, err := New("echo", server.URL, httpClient)
	require.NoError(t, err)

	require.NoError(t, client.Do(context.Background(), Request{Path: "/graphql"}, nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Contains(t, traceparent, spans[0].SpanContext().TraceID().String())
	assert.Equal(t, time.Second, httpClient.Timeout)
}
