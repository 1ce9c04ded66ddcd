package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	derrors "evento/pkg/domain-errors"
)

// LNbitsClient talks to an LNbits-compatible wallet API.
type LNbitsClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// LNbitsOption configures an LNbitsClient.
type LNbitsOption func(*LNbitsClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(c *http.Client) LNbitsOption {
	return func(l *LNbitsClient) {
		if c != nil {
			l.client = c
		}
	}
}

// NewLNbitsClient creates a client for the wallet API at baseURL.
func NewLNbitsClient(baseURL, apiKey string, opts ...LNbitsOption) *LNbitsClient {
	l := &LNbitsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

type createInvoiceRequest struct {
	Out    bool   `json:"out"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo"`
}

type createInvoiceResponse struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
}

type paymentStatusResponse struct {
	Paid    bool `json:"paid"`
	Details struct {
		Expired bool `json:"expired"`
	} `json:"details"`
}

func (l *LNbitsClient) CreateInvoice(ctx context.Context, amountSats int64, memo string) (Invoice, error) {
	body, err := json.Marshal(createInvoiceRequest{Out: false, Amount: amountSats, Memo: memo})
	if err != nil {
		return Invoice{}, fmt.Errorf("marshal invoice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/api/v1/payments", bytes.NewReader(body))
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice request: %w", err)
	}
	req.Header.Set("X-Api-Key", l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return Invoice{}, derrors.Wrap(derrors.CodeUnavailable, "invoice backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return Invoice{}, derrors.Newf(derrors.CodeUnavailable, "invoice backend error: %d %s", resp.StatusCode, string(raw))
	}

	var out createInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Invoice{}, fmt.Errorf("decode invoice response: %w", err)
	}
	if out.PaymentRequest == "" || out.PaymentHash == "" {
		return Invoice{}, derrors.New(derrors.CodeUnavailable, "invoice backend returned incomplete invoice")
	}
	return Invoice{PaymentRequest: out.PaymentRequest, PaymentHash: out.PaymentHash}, nil
}

func (l *LNbitsClient) InvoiceState(ctx context.Context, paymentHash string) (State, error) {
	endpoint := l.baseURL + "/api/v1/payments/" + url.PathEscape(paymentHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create status request: %w", err)
	}
	req.Header.Set("X-Api-Key", l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", derrors.Wrap(derrors.CodeUnavailable, "invoice backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", derrors.Newf(derrors.CodeUnavailable, "invoice backend error: %d", resp.StatusCode)
	}

	var out paymentStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}
	switch {
	case out.Paid:
		return StatePaid, nil
	case out.Details.Expired:
		return StateExpired, nil
	default:
		return StatePending, nil
	}
}
