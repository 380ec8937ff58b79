// Package credential inspects the caller token forwarded to upstream services.
//
// Signatures are not checked here; the identity and phase services verify
// the token on every call. Inspection only rejects tokens that cannot work.
package credential

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidCredential indicates a missing or malformed token.
	ErrInvalidCredential = errors.New("credential is invalid")
	// ErrExpiredCredential indicates a token past its exp claim.
	ErrExpiredCredential = errors.New("credential is expired")
)

// Credential is a caller token plus the claims read from it.
type Credential struct {
	token     string
	Subject   string
	Handle    string
	Roles     []string
	ExpiresAt time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Handle string   `json:"handle,omitempty"`
	Roles  []string `json:"roles,omitempty"`
}

// Token returns the raw token for forwarding.
func (c Credential) Token() string {
	return c.token
}

// Parse reads token claims without verifying the signature and rejects
// expired tokens. now defaults to time.Now.
func Parse(token string, now func() time.Time) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, fmt.Errorf("%w: token is required", ErrInvalidCredential)
	}
	if now == nil {
		now = time.Now
	}

	var parsed claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &parsed); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	credential := Credential{
		token:   token,
		Subject: parsed.Subject,
		Handle:  parsed.Handle,
		Roles:   parsed.Roles,
	}
	if parsed.ExpiresAt != nil {
		credential.ExpiresAt = parsed.ExpiresAt.Time.UTC()
		if !credential.ExpiresAt.After(now().UTC()) {
			return Credential{}, ErrExpiredCredential
		}
	}
	return credential, nil
}

// FromAuthorization extracts a bearer token from an Authorization header
// value and parses it.
func FromAuthorization(header string, now func() time.Time) (Credential, error) {
	header = strings.TrimSpace(header)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return Credential{}, fmt.Errorf("%w: bearer token is required", ErrInvalidCredential)
	}
	return Parse(token, now)
}
