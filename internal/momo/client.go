package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/karibuapp/payout/internal/models"
)

// contact registration outcomes the provider reports
const (
	contactStatusCreated = "created"
	contactStatusExists  = "already_exists"
)

// transfer outcomes the provider reports
const (
	transferStatusSuccess  = "success"
	transferStatusRejected = "rejected"
)

var errNoToken = errors.New("authentication returned no usable token")

// Client represents HTTP client of the mobile money network. Per-call
// deadlines are supplied by the caller through context, the transfer
// timeout grows per attempt.
type Client struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	apiSecret string
}

// NewClient creates new Client instance
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		client:    &http.Client{},
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

func (c *Client) post(ctx context.Context, path string, token string, body any) (*http.Response, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, err
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.client.Do(req)
}

type authRequest struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// Authenticate obtains short-lived bearer token
// POST /v1/auth
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	resp, err := c.post(ctx, "/v1/auth", "", authRequest{
		APIKey:    c.apiKey,
		APISecret: c.apiSecret,
	})
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authentication status %d", resp.StatusCode)
	}

	authResp := authResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", err
	}
	if authResp.Token == "" {
		return "", errNoToken
	}

	return authResp.Token, nil
}

type contactRequest struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Operator string `json:"operator,omitempty"`
}

type contactResponse struct {
	Status string `json:"status"`
}

// RegisterContact registers payee contact with the provider. Registration is
// idempotent: an already existing contact counts as success.
// POST /v1/contacts
func (c *Client) RegisterContact(ctx context.Context, token, phone, name string) error {
	msisdn, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	resp, err := c.post(ctx, "/v1/contacts", token, contactRequest{
		Phone:    msisdn,
		Name:     name,
		Operator: OperatorHint(msisdn),
	})
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		contactResp := contactResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&contactResp); err != nil {
			return err
		}
		if contactResp.Status != contactStatusCreated && contactResp.Status != contactStatusExists {
			return fmt.Errorf("contact registration status %q", contactResp.Status)
		}
		return nil
	case http.StatusConflict:
		// contact already exists
		return nil
	default:
		return fmt.Errorf("contact registration status %d", resp.StatusCode)
	}
}

type transferRequest struct {
	Phone     string `json:"phone"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
	Operator  string `json:"operator,omitempty"`
}

type transferResponse struct {
	Status     string `json:"status"`
	TransferID string `json:"transfer_id"`
	Reason     string `json:"reason,omitempty"`
}

// Transfer submits money transfer to phone. Amount is in whole currency
// units. clientRef must be unique per attempt so provider-side retries stay
// idempotent. It returns the provider transfer id on explicit success and
// ErrTransferDeclined when the provider declines.
// POST /v1/transfers
func (c *Client) Transfer(ctx context.Context, token, phone string, amount int64, clientRef string) (string, error) {
	msisdn, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, "/v1/transfers", token, transferRequest{
		Phone:     msisdn,
		Amount:    amount,
		Reference: clientRef,
		Operator:  OperatorHint(msisdn),
	})
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return "", err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusUnprocessableEntity:
		transferResp := transferResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&transferResp); err != nil {
			return "", err
		}
		switch transferResp.Status {
		case transferStatusSuccess:
			return transferResp.TransferID, nil
		case transferStatusRejected:
			return "", fmt.Errorf("%w: %s", models.ErrTransferDeclined, transferResp.Reason)
		default:
			return "", fmt.Errorf("transfer status %q", transferResp.Status)
		}
	default:
		return "", fmt.Errorf("transfer status %d", resp.StatusCode)
	}
}
