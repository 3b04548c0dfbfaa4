package external

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"yatra/internal/models"
)

// ErrInvalidSignature is returned for gateway notifications whose token does not match
var ErrInvalidSignature = errors.New("invalid payment notification token")

type PaymentClient struct {
	baseURL         string
	teamSlug        string
	password        string
	currency        string
	notificationURL string
	httpClient      *http.Client
}

// PaymentConfig - настройки платежного шлюза
type PaymentConfig struct {
	BaseURL         string
	TeamSlug        string
	Password        string
	Currency        string
	NotificationURL string
	Timeout         time.Duration
}

type PaymentInitRequest struct {
	TeamSlug        string `json:"teamSlug"`
	Token           string `json:"token"`
	Amount          int64  `json:"amount"`
	OrderID         string `json:"orderId"`
	Currency        string `json:"currency"`
	Description     string `json:"description,omitempty"`
	NotificationURL string `json:"notificationURL,omitempty"`
	Language        string `json:"language,omitempty"`
}

type PaymentInitResponse struct {
	Success    bool   `json:"success"`
	PaymentID  string `json:"paymentId"`
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	PaymentURL string `json:"paymentURL"`
	ExpiresAt  string `json:"expiresAt"`
	Message    string `json:"message,omitempty"`
}

type PaymentCheckRequest struct {
	TeamSlug string `json:"teamSlug"`
	Token    string `json:"token"`
	OrderID  string `json:"orderId"`
}

type PaymentCheckResponse struct {
	Success    bool             `json:"success"`
	Payments   []PaymentDetails `json:"payments"`
	TotalCount int              `json:"totalCount"`
	OrderID    string           `json:"orderId"`
}

type PaymentDetails struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	UpdatedAt string `json:"updatedAt"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}

	return &PaymentClient{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		teamSlug:        cfg.TeamSlug,
		password:        cfg.Password,
		currency:        cfg.Currency,
		notificationURL: cfg.NotificationURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// generateToken signs params the way the gateway does: TeamSlug and Password
// are added, values are concatenated in key order and hashed with SHA-256.
func (pc *PaymentClient) generateToken(params map[string]string) string {
	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = v
	}
	signed["TeamSlug"] = pc.teamSlug
	signed["Password"] = pc.password

	keys := make([]string, 0, len(signed))
	for k := range signed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(signed[key])
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// InitPayment registers an order with the gateway and returns the payment page
func (pc *PaymentClient) InitPayment(ctx context.Context, amount int64, orderID, description string) (*PaymentInitResponse, error) {
	token := pc.generateToken(map[string]string{
		"Amount":   strconv.FormatInt(amount, 10),
		"Currency": pc.currency,
		"OrderId":  orderID,
	})

	req := PaymentInitRequest{
		TeamSlug:        pc.teamSlug,
		Token:           token,
		Amount:          amount,
		OrderID:         orderID,
		Currency:        pc.currency,
		Description:     description,
		NotificationURL: pc.notificationURL,
		Language:        "en",
	}

	var result PaymentInitResponse
	if err := pc.post(ctx, "/api/v1/PaymentInit/init", req, &result); err != nil {
		return nil, fmt.Errorf("failed to init payment: %w", err)
	}
	if !result.Success || result.PaymentURL == "" {
		return nil, fmt.Errorf("payment init rejected for order %s: %s", orderID, result.Message)
	}

	return &result, nil
}

// CheckPayment asks the gateway for the current state of an order
func (pc *PaymentClient) CheckPayment(ctx context.Context, orderID string) (*PaymentCheckResponse, error) {
	req := PaymentCheckRequest{
		TeamSlug: pc.teamSlug,
		Token:    pc.generateToken(map[string]string{"OrderId": orderID}),
		OrderID:  orderID,
	}

	var result PaymentCheckResponse
	if err := pc.post(ctx, "/api/v1/PaymentCheck/check", req, &result); err != nil {
		return nil, fmt.Errorf("failed to check payment: %w", err)
	}
	return &result, nil
}

// VerifyNotification checks the token of a gateway callback
func (pc *PaymentClient) VerifyNotification(n *models.PaymentNotificationPayload) error {
	if n.TeamSlug != pc.teamSlug {
		return ErrInvalidSignature
	}

	expected := pc.generateToken(notificationParams(n))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.Token))) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

func notificationParams(n *models.PaymentNotificationPayload) map[string]string {
	return map[string]string{
		"Amount":    strconv.FormatInt(n.Amount, 10),
		"OrderId":   n.OrderID,
		"PaymentId": n.PaymentID,
		"Status":    n.Status,
	}
}

// MapStatus translates a gateway status into a payment result. Intermediate
// statuses report false and are ignored.
func MapStatus(status string) (models.PaymentResult, bool) {
	switch strings.ToUpper(status) {
	case "CONFIRMED", "COMPLETED", "SUCCESS":
		return models.PaymentSuccess, true
	case "REJECTED", "FAILED", "CANCELLED", "EXPIRED":
		return models.PaymentFailed, true
	default:
		return "", false
	}
}

func (pc *PaymentClient) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
