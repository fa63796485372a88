package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coachhub_backend/internal/apperrors"
	"coachhub_backend/internal/config"
)

// Client is the payment gateway surface the subscription service needs.
// CreatePayment returns the decoded response as-is; deciding where the
// checkout URL lives inside it is the caller's problem, not the client's.
type Client interface {
	CreatePayment(ctx context.Context, req CheckoutRequest) (map[string]any, error)
	VerifyTransaction(ctx context.Context, txRef string) (*VerifyResult, error)
}

// CheckoutRequest describes a hosted checkout session.
type CheckoutRequest struct {
	Amount      float64
	Currency    string
	TxRef       string
	Email       string
	Name        string
	Title       string
	Description string
}

// VerifyResult is the subset of the verification response the webhook
// reconciler acts on, plus the raw payload for the transaction record.
type VerifyResult struct {
	TxRef    string
	Status   string
	Amount   float64
	Currency string
	Raw      map[string]any
}

// PayChanguClient talks to the PayChangu REST API.
type PayChanguClient struct {
	secretKey   string
	baseURL     string
	redirectURL string
	cancelURL   string
	callbackURL string
	httpClient  *http.Client
}

func NewPayChanguClient(cfg *config.Config) *PayChanguClient {
	return &PayChanguClient{
		secretKey:   cfg.PayChangu.SecretKey,
		baseURL:     cfg.PayChangu.BaseURL,
		redirectURL: cfg.PayChangu.RedirectURL,
		cancelURL:   cfg.PayChangu.CancelURL,
		callbackURL: cfg.PayChangu.CallbackURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// CreatePayment initiates a hosted checkout session. Error mapping:
// network failures and unparseable bodies surface as gateway unavailable,
// a non-2xx status with a readable body as gateway rejected.
func (c *PayChanguClient) CreatePayment(ctx context.Context, req CheckoutRequest) (map[string]any, error) {
	if c.secretKey == "" {
		return nil, apperrors.ErrConfiguration.WithDetails("payment gateway credentials are missing")
	}

	payload := map[string]any{
		"tx_ref":   req.TxRef,
		"amount":   req.Amount,
		"currency": req.Currency,
		"customer": map[string]string{
			"email": req.Email,
			"name":  req.Name,
		},
		"customizations": map[string]string{
			"title":       req.Title,
			"description": req.Description,
		},
		"redirect_url": c.redirectURL,
		"cancel_url":   c.cancelURL,
		"callback_url": c.callbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.ErrGatewayUnavailable.WithError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ErrGatewayUnavailable.WithError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var decoded map[string]any
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return nil, apperrors.ErrGatewayRejected.WithError(
				fmt.Errorf("paychangu returned %d: %s", resp.StatusCode, truncate(respBody, 512)))
		}
		return nil, apperrors.ErrGatewayRejected.
			WithDetails(decoded).
			WithError(fmt.Errorf("paychangu returned %d", resp.StatusCode))
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, apperrors.ErrGatewayUnavailable.WithError(
			fmt.Errorf("paychangu sent a non-JSON body: %w", err))
	}
	return decoded, nil
}

// VerifyTransaction asks the gateway for the authoritative state of a
// transaction. The webhook handler never trusts the callback payload
// alone; this call is the source of truth.
func (c *PayChanguClient) VerifyTransaction(ctx context.Context, txRef string) (*VerifyResult, error) {
	if c.secretKey == "" {
		return nil, apperrors.ErrConfiguration.WithDetails("payment gateway credentials are missing")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/verify-payment/"+txRef, nil)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.ErrGatewayUnavailable.WithError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ErrGatewayUnavailable.WithError(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, apperrors.ErrGatewayUnavailable.WithError(
			fmt.Errorf("paychangu sent a non-JSON body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.ErrGatewayRejected.
			WithDetails(decoded).
			WithError(fmt.Errorf("paychangu verify returned %d", resp.StatusCode))
	}

	result := &VerifyResult{TxRef: txRef, Raw: decoded}
	if data, ok := decoded["data"].(map[string]any); ok {
		if s, ok := data["status"].(string); ok {
			result.Status = s
		}
		if a, ok := data["amount"].(float64); ok {
			result.Amount = a
		}
		if cur, ok := data["currency"].(string); ok {
			result.Currency = cur
		}
		if ref, ok := data["tx_ref"].(string); ok && ref != "" {
			result.TxRef = ref
		}
	}
	if result.Status == "" {
		if s, ok := decoded["status"].(string); ok {
			result.Status = s
		}
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
