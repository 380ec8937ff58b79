// Package hubspot reads CRM contacts from the HubSpot contacts v1 API.
package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	emailaddress "github.com/mcnijman/go-emailaddress"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/learnersguild/backoffice/internal/platform/httpclient"
	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
)

const (
	batchPath = "/contacts/v1/contact/emails/batch/"
	// maxBatchEmails is the HubSpot limit on emails per batch request.
	maxBatchEmails = 100
	// maxConcurrentBatches bounds parallel batch requests.
	maxConcurrentBatches = 4
)

// APIError is a HubSpot error response. Its message is the upstream message
// verbatim, e.g. "contact does not exist".
type APIError struct {
	StatusCode int
	Message    string
}

// Error returns the upstream message.
func (e *APIError) Error() string {
	if e == nil {
		return "hubspot error"
	}
	if e.Message == "" {
		return fmt.Sprintf("hubspot returned status %d", e.StatusCode)
	}
	return e.Message
}

// Client reads contacts with an API key.
type Client struct {
	http   *httpclient.Client
	apiKey string
	logger *zap.Logger
}

var _ domain.CRMGateway = (*Client)(nil)

// New builds a HubSpot client.
func New(http *httpclient.Client, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, apiKey: strings.TrimSpace(apiKey), logger: logger}
}

// GetContactsByEmail returns the contacts found for emails. Invalid and
// duplicate emails are skipped; emails with no contact are absent from the
// result. Contacts are ordered by the position of their email in emails.
func (c *Client) GetContactsByEmail(ctx context.Context, emails []string) ([]domain.Contact, error) {
	normalized := normalizeEmails(emails, c.logger)
	if len(normalized) == 0 {
		return []domain.Contact{}, nil
	}

	var (
		mu      sync.Mutex
		records []contactRecord
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentBatches)
	for start := 0; start < len(normalized); start += maxBatchEmails {
		chunk := normalized[start:min(start+maxBatchEmails, len(normalized))]
		group.Go(func() error {
			found, err := c.fetchBatch(groupCtx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			records = append(records, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	position := make(map[string]int, len(normalized))
	for i, email := range normalized {
		position[email] = i
	}
	contacts := make([]domain.Contact, 0, len(records))
	for _, record := range records {
		contacts = append(contacts, record.toDomain())
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		pi, pj := rank(position, contacts[i].Email), rank(position, contacts[j].Email)
		if pi != pj {
			return pi < pj
		}
		return contacts[i].Vid < contacts[j].Vid
	})
	c.logger.Debug("loaded hubspot contacts",
		zap.Int("emails", len(normalized)),
		zap.Int("contacts", len(contacts)),
	)
	return contacts, nil
}

// GetContactByEmail returns the contact for email or an *APIError such as
// "contact does not exist".
func (c *Client) GetContactByEmail(ctx context.Context, email string) (domain.Contact, error) {
	address, err := emailaddress.Parse(strings.TrimSpace(email))
	if err != nil {
		return domain.Contact{}, fmt.Errorf("invalid email %q: %w", email, err)
	}

	var record contactRecord
	err = c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/contacts/v1/contact/email/" + url.PathEscape(address.String()) + "/profile",
		Query:  c.query(nil),
	}, &record)
	if err != nil {
		return domain.Contact{}, translateError(err)
	}
	return record.toDomain(), nil
}

func (c *Client) fetchBatch(ctx context.Context, emails []string) ([]contactRecord, error) {
	var batch map[string]contactRecord
	err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   batchPath,
		Query:  c.query(url.Values{"email": emails}),
	}, &batch)
	if err != nil {
		return nil, translateError(err)
	}
	records := make([]contactRecord, 0, len(batch))
	for _, record := range batch {
		records = append(records, record)
	}
	return records, nil
}

func (c *Client) query(values url.Values) url.Values {
	if values == nil {
		values = url.Values{}
	}
	values["property"] = contactProperties()
	if c.apiKey != "" {
		values.Set("hapikey", c.apiKey)
	}
	return values
}

// translateError turns an upstream error body into *APIError.
func translateError(err error) error {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(statusErr.Body, &body)
	return &APIError{StatusCode: statusErr.StatusCode, Message: body.Message}
}

// normalizeEmails parses, deduplicates and keeps the first-seen order.
func normalizeEmails(emails []string, logger *zap.Logger) []string {
	seen := make(map[string]struct{}, len(emails))
	result := make([]string, 0, len(emails))
	for _, raw := range emails {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		address, err := emailaddress.Parse(strings.TrimSpace(raw))
		if err != nil {
			logger.Warn("skip invalid email", zap.String("email", raw), zap.Error(err))
			continue
		}
		email := address.String()
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		result = append(result, email)
	}
	return result
}

func rank(position map[string]int, email string) int {
	if index, ok := position[email]; ok {
		return index
	}
	return len(position)
}
