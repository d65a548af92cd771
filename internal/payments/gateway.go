package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/config"
)

// InitializeResult is the gateway's answer to a new payment attempt
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResult is the gateway's answer when a payment reference is checked.
// Amount is in the gateway's minor currency unit.
type VerifyResult struct {
	Success     bool      `json:"success"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	Channel     string    `json:"channel"`
	PaidAt      time.Time `json:"paid_at"`
}

// Gateway is the payment processor contract. A transport failure surfaces as
// a bad-gateway error; a declined payment comes back as Success=false with a
// nil error so the two are distinguishable.
type Gateway interface {
	Initialize(ctx context.Context, email string, amountMinor int64, metadata map[string]any) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// PaystackClient talks to the Paystack REST API
type PaystackClient struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

// NewPaystackClient creates a Paystack gateway client with a bounded timeout
func NewPaystackClient(cfg *config.PaystackConfig) *PaystackClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &PaystackClient{
		secretKey: cfg.SecretKey,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: timeout},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Status   string  `json:"status"`
	Amount   int64   `json:"amount"`
	Currency string  `json:"currency"`
	Channel  string  `json:"channel"`
	PaidAt   *string `json:"paid_at"`
}

// Initialize starts a payment and returns the redirect URL and reference
func (c *PaystackClient) Initialize(ctx context.Context, email string, amountMinor int64, metadata map[string]any) (*InitializeResult, error) {
	body, _ := json.Marshal(map[string]any{
		"email":    email,
		"amount":   amountMinor,
		"metadata": metadata,
	})

	envelope, err := c.post(ctx, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}
	if !envelope.Status {
		return nil, common.NewBadGatewayError("payment gateway rejected initialization: "+envelope.Message, nil)
	}

	var data paystackInitData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, common.NewBadGatewayError("malformed gateway response", err)
	}
	return &InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// Verify checks the outcome of a payment reference
func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	envelope, err := c.get(ctx, "/transaction/verify/"+reference)
	if err != nil {
		return nil, err
	}
	if !envelope.Status {
		return nil, common.NewBadGatewayError("payment gateway rejected verification: "+envelope.Message, nil)
	}

	var data paystackVerifyData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, common.NewBadGatewayError("malformed gateway response", err)
	}

	result := &VerifyResult{
		Success:     data.Status == "success",
		AmountMinor: data.Amount,
		Currency:    data.Currency,
		Channel:     data.Channel,
	}
	if data.PaidAt != nil {
		if paidAt, err := time.Parse(time.RFC3339, *data.PaidAt); err == nil {
			result.PaidAt = paidAt.UTC()
		}
	}
	return result, nil
}

func (c *PaystackClient) post(ctx context.Context, path string, body []byte) (*paystackEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, common.NewInternalError("failed to build gateway request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *PaystackClient) get(ctx context.Context, path string) (*paystackEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, common.NewInternalError("failed to build gateway request", err)
	}
	return c.do(req)
}

func (c *PaystackClient) do(req *http.Request) (*paystackEnvelope, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.NewBadGatewayError("payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, common.NewBadGatewayError(
			fmt.Sprintf("payment gateway returned %d", resp.StatusCode), nil)
	}

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, common.NewBadGatewayError("malformed gateway response", err)
	}
	return &envelope, nil
}
