// Package httpapi serves the backoffice user listings as JSON over HTTP.
//
// Every request carries the caller's bearer token; a request-scoped
// aggregator is built from it so upstream calls run with the caller's
// authority.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	apperrors "github.com/learnersguild/backoffice/internal/platform/errors"
	"github.com/learnersguild/backoffice/internal/platform/requestctx"
	"github.com/learnersguild/backoffice/internal/services/backoffice/api/status"
	"github.com/learnersguild/backoffice/internal/services/backoffice/credential"
	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
	"github.com/learnersguild/backoffice/internal/services/backoffice/filter"
)

const (
	// RequestIDHeader echoes the request identifier on every response.
	RequestIDHeader = "X-Request-Id"

	routeUsers    = "/v1/users"
	routeLearners = "/v1/learners"
	routeUser     = "/v1/users/{handle}"
)

// Users is the aggregator surface the handlers call.
type Users interface {
	GetAllUsers(ctx context.Context, opts domain.Options) ([]*domain.User, error)
	GetAllLearners(ctx context.Context, opts domain.Options) ([]*domain.User, error)
	GetUserByHandle(ctx context.Context, handle string, opts domain.Options) (*domain.User, error)
}

// UsersFactory builds a request-scoped aggregator for one caller.
type UsersFactory func(cred credential.Credential) (Users, error)

// Handler routes backoffice API requests.
type Handler struct {
	factory UsersFactory
	logger  *zap.Logger
	now     func() time.Time
	handler http.Handler
}

// Option customizes a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock sets the clock used for credential expiry checks.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler returns an http.Handler serving the v1 user routes.
func NewHandler(factory UsersFactory, opts ...Option) *Handler {
	h := &Handler{
		factory: factory,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	router := mux.NewRouter()
	router.HandleFunc(routeUsers, h.listUsers).Methods(http.MethodGet)
	router.HandleFunc(routeLearners, h.listLearners).Methods(http.MethodGet)
	router.HandleFunc(routeUser, h.getUser).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderError(w, r, apperrors.New(apperrors.CodeNotFound, "route not found"))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		renderJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})
	h.handler = h.requestID(router)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

type usersResponse struct {
	Users []*domain.User `json:"users"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	r, users, opts, ok := h.prepare(w, r)
	if !ok {
		return
	}
	result, err := users.GetAllUsers(r.Context(), opts)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, usersResponse{Users: nonNilUsers(result)})
}

func (h *Handler) listLearners(w http.ResponseWriter, r *http.Request) {
	r, users, opts, ok := h.prepare(w, r)
	if !ok {
		return
	}
	result, err := users.GetAllLearners(r.Context(), opts)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, usersResponse{Users: nonNilUsers(result)})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	r, users, opts, ok := h.prepare(w, r)
	if !ok {
		return
	}
	handle := mux.Vars(r)["handle"]
	user, err := users.GetUserByHandle(r.Context(), handle, opts)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if user == nil {
		h.renderError(w, r, status.ErrUserNotFound)
		return
	}
	renderJSON(w, http.StatusOK, userResponse{User: user})
}

// prepare authenticates the caller, builds its aggregator and parses
// listing options. The returned request carries the caller in context. It
// renders the failure and returns false on error.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) (*http.Request, Users, domain.Options, bool) {
	if h.factory == nil {
		h.renderError(w, r, domain.ErrServiceNotConfigured)
		return r, nil, domain.Options{}, false
	}
	cred, err := credential.FromAuthorization(r.Header.Get("Authorization"), h.now)
	if err != nil {
		h.renderError(w, r, err)
		return r, nil, domain.Options{}, false
	}
	r = r.WithContext(requestctx.WithCaller(r.Context(), cred.Subject))

	opts, err := ParseOptions(r)
	if err != nil {
		h.renderError(w, r, apperrors.Wrap(apperrors.CodeInvalidArgument, err.Error(), err))
		return r, nil, domain.Options{}, false
	}

	users, err := h.factory(cred)
	if err != nil {
		h.renderError(w, r, err)
		return r, nil, domain.Options{}, false
	}
	if users == nil {
		h.renderError(w, r, domain.ErrServiceNotConfigured)
		return r, nil, domain.Options{}, false
	}
	return r, users, opts, true
}

// ParseOptions reads listing options from query parameters. The filter
// parameter is applied last and overrides the individual parameters.
func ParseOptions(r *http.Request) (domain.Options, error) {
	query := r.URL.Query()
	var opts domain.Options

	if raw := strings.TrimSpace(query.Get("active")); raw != "" {
		opts.Activity = parseActive(raw)
	}

	var err error
	if opts.Learners, err = parseBool(query.Get("learners"), "learners"); err != nil {
		return domain.Options{}, err
	}
	if opts.IncludePhases, err = parseBool(query.Get("includePhases"), "includePhases"); err != nil {
		return domain.Options{}, err
	}
	if opts.IncludeHubspotData, err = parseBool(query.Get("includeHubspotData"), "includeHubspotData"); err != nil {
		return domain.Options{}, err
	}
	// A non-numeric phase is dropped like an out-of-range one.
	if phase, err := strconv.Atoi(strings.TrimSpace(query.Get("phase"))); err == nil {
		opts.Phase = domain.Int(phase)
	}

	return filter.Apply(query.Get("filter"), opts)
}

// parseActive maps the active parameter. Values other than true and false
// disable the activity filter.
func parseActive(raw string) domain.Activity {
	switch strings.ToLower(raw) {
	case "true":
		return domain.ActivityActive
	case "false":
		return domain.ActivityInactive
	default:
		return domain.ActivityAny
	}
}

func parseBool(raw, name string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(name + " must be a boolean")
	}
	return domain.Bool(value), nil
}

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = requestctx.NewRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		started := h.now()
		next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), requestID)))
		h.logger.Debug("request served",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", h.now().Sub(started)),
		)
	})
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	coded := status.FromError(err)
	code := coded.Code.HTTPStatus()
	requestID := requestctx.RequestIDFromContext(r.Context())

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("path", r.URL.Path),
		zap.String("code", string(coded.Code)),
		zap.Error(err),
	}
	if caller := requestctx.CallerFromContext(r.Context()); caller != "" {
		fields = append(fields, zap.String("caller", caller))
	}
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}

	renderJSON(w, code, errorBody{Code: string(coded.Code), Message: coded.Message, RequestID: requestID})
}

func renderJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func nonNilUsers(users []*domain.User) []*domain.User {
	if users == nil {
		return []*domain.User{}
	}
	return users
}
