// Package evento provides a client for the Evento campaign API and the
// pledge flow used by its frontends: intent creation, status polling, and the
// amount → invoice → settled/expired session state machine.
package evento

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Scope selects which kind of campaign a pledge or query targets.
type Scope string

const (
	ScopeEvent   Scope = "event"
	ScopeProfile Scope = "profile"
)

// PledgeIntent is a request to create a pledge. Exactly one of EventID or
// Username must be set, selected by Scope.
type PledgeIntent struct {
	Scope      Scope
	AmountSats int64
	EventID    string
	Username   string
}

// CreatePledgeResult is the server's answer to a pledge intent. PledgeID is
// the durable handle used for all subsequent polling; Invoice is an opaque
// Lightning payment string rendered as text and QR code, never parsed here.
type CreatePledgeResult struct {
	PledgeID   string    `json:"pledgeId"`
	Invoice    string    `json:"invoice"`
	AmountSats int64     `json:"amountSats"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// PledgeStatus is the polled view of a pledge.
type PledgeStatus struct {
	Status     string     `json:"status"`
	AmountSats int64      `json:"amountSats"`
	SettledAt  *time.Time `json:"settledAt,omitempty"`
}

// Pledge status values.
const (
	StatusPending = "pending"
	StatusSettled = "settled"
	StatusExpired = "expired"
)

// Terminal reports whether the status will not change on further polls.
func (s PledgeStatus) Terminal() bool {
	return s.Status == StatusSettled || s.Status == StatusExpired
}

// Campaign is the campaign aggregate with derived progress fields, as served
// by the API. The client recomputes nothing.
type Campaign struct {
	ID                   string     `json:"id"`
	EventID              *string    `json:"event_id"`
	UserID               string     `json:"user_id"`
	Scope                Scope      `json:"scope"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	GoalSats             *int64     `json:"goal_sats"`
	RaisedSats           int64      `json:"raised_sats"`
	PledgeCount          int64      `json:"pledge_count"`
	Visibility           string     `json:"visibility"`
	Status               string     `json:"status"`
	DestinationAddress   string     `json:"destination_address"`
	DestinationVerifyURL string     `json:"destination_verify_url"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	ProgressPercent      float64    `json:"progressPercent"`
	IsGoalMet            bool       `json:"isGoalMet"`
}

// FeedEntry is one row of a campaign activity feed. The field set is the
// entire public contract; payment internals never appear.
type FeedEntry struct {
	AmountSats    int64     `json:"amount_sats"`
	PayerAvatar   string    `json:"payer_avatar"`
	PayerUsername string    `json:"payer_username"`
	SettledAt     time.Time `json:"settled_at"`
}

// Client defines the interface for the Evento campaign API.
type Client interface {
	// CreatePledge creates a pledge intent and returns a fresh invoice.
	CreatePledge(context.Context, PledgeIntent) (CreatePledgeResult, error)

	// PledgeStatus fetches the current status of a pledge by id.
	PledgeStatus(context.Context, string) (PledgeStatus, error)

	// EventCampaign retrieves the campaign attached to an event.
	EventCampaign(context.Context, string) (Campaign, error)

	// ProfileCampaign retrieves the campaign attached to a user profile.
	ProfileCampaign(context.Context, string) (Campaign, error)

	// EventCampaignFeed retrieves the activity feed for an event campaign.
	EventCampaignFeed(context.Context, string) ([]FeedEntry, error)

	// ProfileCampaignFeed retrieves the activity feed for a profile campaign.
	ProfileCampaignFeed(context.Context, string) ([]FeedEntry, error)
}

// ErrNotFound matches (via errors.Is) any APIError with a 404 status, letting
// callers distinguish "no campaign" from transport failures without fallback
// data.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("evento API error: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type clientOption struct {
	baseURL     string
	accessToken string
	doRetry     bool
	httpClient  *http.Client
}

// ClientOption defines a function type for configuring client options.
type ClientOption func(*clientOption)

// WithBaseURL sets the API base URL. Defaults to the production API.
func WithBaseURL(url string) ClientOption {
	return func(opt *clientOption) {
		opt.baseURL = url
	}
}

// WithAccessToken attaches a bearer token so pledges are attributed to the
// authenticated user in campaign feeds.
func WithAccessToken(token string) ClientOption {
	return func(opt *clientOption) {
		opt.accessToken = token
	}
}

// WithRetry enables exponential-backoff retries for transient failures
// (network errors and 5xx responses).
func WithRetry() ClientOption {
	return func(opt *clientOption) {
		opt.doRetry = true
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(opt *clientOption) {
		if c != nil {
			opt.httpClient = c
		}
	}
}

type eventoClient struct {
	opts clientOption
}

// NewClient creates a new Evento API client with the provided options.
func NewClient(options ...ClientOption) (Client, error) {
	opts := clientOption{
		baseURL:    "https://api.evento.app",
		httpClient: &http.Client{},
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.baseURL == "" {
		return nil, errors.New("missing base URL")
	}
	return &eventoClient{opts: opts}, nil
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	// Transport-level failures are worth retrying; everything else is a
	// deliberate API answer.
	return err != nil
}

func (c *eventoClient) makeRequest(ctx context.Context, method, endpoint string, body any, out any) error {
	err := c.doRequest(ctx, method, endpoint, body, out)
	if err == nil || !c.opts.doRetry || !retryable(err) {
		return err
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attemptErr := c.doRequest(ctx, method, endpoint, body, out)
		if attemptErr != nil && !retryable(attemptErr) {
			return struct{}{}, backoff.Permanent(attemptErr)
		}
		return struct{}{}, attemptErr
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(4),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}

func (c *eventoClient) doRequest(ctx context.Context, method, endpoint string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.opts.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.accessToken)
	}

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &envelope)
		if envelope.Message == "" {
			envelope.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// CreatePledge validates the intent client-side before any I/O: an event
// pledge without an event id, or a profile pledge without a username, never
// reaches the network.
func (c *eventoClient) CreatePledge(ctx context.Context, intent PledgeIntent) (CreatePledgeResult, error) {
	var endpoint string
	switch intent.Scope {
	case ScopeEvent:
		if intent.EventID == "" {
			return CreatePledgeResult{}, errors.New("eventId is required")
		}
		endpoint = fmt.Sprintf("/v1/events/%s/campaign/pledges", url.PathEscape(intent.EventID))
	case ScopeProfile:
		if intent.Username == "" {
			return CreatePledgeResult{}, errors.New("username is required for profile campaign pledges")
		}
		endpoint = fmt.Sprintf("/v1/users/%s/campaign/pledges", url.PathEscape(intent.Username))
	default:
		return CreatePledgeResult{}, fmt.Errorf("unknown pledge scope %q", intent.Scope)
	}

	// Scope identity travels in the URL only; the body carries the amount.
	body := map[string]int64{"amountSats": intent.AmountSats}

	var result CreatePledgeResult
	if err := c.makeRequest(ctx, http.MethodPost, endpoint, body, &result); err != nil {
		return CreatePledgeResult{}, err
	}
	return result, nil
}

func (c *eventoClient) PledgeStatus(ctx context.Context, pledgeID string) (PledgeStatus, error) {
	if pledgeID == "" {
		return PledgeStatus{}, errors.New("pledgeId is required")
	}
	endpoint := fmt.Sprintf("/v1/campaign-pledges/%s/status", url.PathEscape(pledgeID))

	var status PledgeStatus
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &status); err != nil {
		return PledgeStatus{}, err
	}
	return status, nil
}

func (c *eventoClient) EventCampaign(ctx context.Context, eventID string) (Campaign, error) {
	if eventID == "" {
		return Campaign{}, errors.New("eventId is required")
	}
	endpoint := fmt.Sprintf("/v1/events/%s/campaign", url.PathEscape(eventID))

	var campaign Campaign
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &campaign); err != nil {
		return Campaign{}, err
	}
	return campaign, nil
}

func (c *eventoClient) ProfileCampaign(ctx context.Context, username string) (Campaign, error) {
	if username == "" {
		return Campaign{}, errors.New("username is required")
	}
	endpoint := fmt.Sprintf("/v1/users/%s/campaign", url.PathEscape(username))

	var campaign Campaign
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &campaign); err != nil {
		return Campaign{}, err
	}
	return campaign, nil
}

type feedEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    []FeedEntry `json:"data"`
}

func (c *eventoClient) EventCampaignFeed(ctx context.Context, eventID string) ([]FeedEntry, error) {
	if eventID == "" {
		return nil, errors.New("eventId is required")
	}
	return c.fetchFeed(ctx, fmt.Sprintf("/v1/events/%s/campaign/feed", url.PathEscape(eventID)))
}

func (c *eventoClient) ProfileCampaignFeed(ctx context.Context, username string) ([]FeedEntry, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}
	return c.fetchFeed(ctx, fmt.Sprintf("/v1/users/%s/campaign/feed", url.PathEscape(username)))
}

func (c *eventoClient) fetchFeed(ctx context.Context, endpoint string) ([]FeedEntry, error) {
	var envelope feedEnvelope
	if err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}
