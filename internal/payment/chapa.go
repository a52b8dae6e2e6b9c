// Package payment talks to the Chapa hosted checkout API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/models"
)

const (
	initializePath = "/v1/transaction/initialize"
	verifyPath     = "/v1/transaction/verify/"

	defaultTitle       = "Zemmon Store"
	defaultDescription = "Payment for your order"
)

// ErrGatewayRejected is returned when Chapa answers without a usable result.
var ErrGatewayRejected = errors.New("payment gateway rejected the request")

type ChapaClient struct {
	baseURL    string
	secretKey  string
	title      string
	httpClient *http.Client
	log        *zap.Logger
}

func NewChapaClient(baseURL, secretKey string, timeout time.Duration, log *zap.Logger) *ChapaClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChapaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		title:      defaultTitle,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type customization struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type initializeRequest struct {
	Amount        string        `json:"amount"`
	Currency      string        `json:"currency"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	TxRef         string        `json:"tx_ref"`
	CallbackURL   string        `json:"callback_url,omitempty"`
	ReturnURL     string        `json:"return_url,omitempty"`
	Customization customization `json:"customization"`
}

type initializeResponse struct {
	Status  string `json:"status"`
	Message any    `json:"message"`
	Data    *struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message any    `json:"message"`
	Data    *struct {
		Status string `json:"status"`
		TxRef  string `json:"tx_ref"`
	} `json:"data"`
}

// Initiate opens a hosted checkout and returns its URL.
func (c *ChapaClient) Initiate(ctx context.Context, req models.PaymentRequest) (string, error) {
	payload := initializeRequest{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       req.Reference,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
		Customization: customization{
			Title:       c.title,
			Description: defaultDescription,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var resp initializeResponse
	status, err := c.do(ctx, http.MethodPost, initializePath, body, &resp)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || resp.Status != "success" || resp.Data == nil || resp.Data.CheckoutURL == "" {
		return "", fmt.Errorf("%w: initialize returned %d %v", ErrGatewayRejected, status, resp.Message)
	}
	return resp.Data.CheckoutURL, nil
}

// Verify asks Chapa for the outcome of the transaction. A transaction Chapa
// does not know is reported as failed.
func (c *ChapaClient) Verify(ctx context.Context, reference string) (models.PaymentStatus, error) {
	var resp verifyResponse
	status, err := c.do(ctx, http.MethodGet, verifyPath+url.PathEscape(reference), nil, &resp)
	if err != nil {
		return "", err
	}
	if status >= http.StatusInternalServerError {
		return "", fmt.Errorf("%w: verify returned %d", ErrGatewayRejected, status)
	}
	if status != http.StatusOK || resp.Status != "success" || resp.Data == nil {
		c.log.Info("chapa verify unsuccessful",
			zap.String("reference", reference), zap.Int("http_status", status), zap.Any("message", resp.Message))
		return models.PaymentStatusFailed, nil
	}

	switch strings.ToLower(resp.Data.Status) {
	case "success":
		return models.PaymentStatusSuccess, nil
	case "pending":
		return models.PaymentStatusPending, nil
	default:
		return models.PaymentStatusFailed, nil
	}
}

func (c *ChapaClient) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("chapa %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read chapa response: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil && resp.StatusCode < http.StatusInternalServerError {
			return resp.StatusCode, fmt.Errorf("decode chapa response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
