package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pollpulse/pollpulse-backend/pkg/config"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
)

const sendPathFormat = "/v1/%s/sms/send.json"

var (
	errAPIKeyRequired = errors.New("sms api key is required")
	errLoggerRequired = errors.New("sms logger is required")
)

// Sender is the delivery surface consumed by the auth service.
type Sender interface {
	Send(ctx context.Context, receptor, message string) error
}

// Client delivers SMS messages through the Kavenegar REST gateway.
type Client struct {
	httpClient *http.Client
	apiKey     string
	sender     string
	baseURL    string
	logger     *logger.Logger
}

// NewClient validates the credentials and builds the gateway wrapper.
func NewClient(ctx context.Context, cfg config.SMSConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.kavenegar.com"
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		sender:     strings.TrimSpace(cfg.Sender),
		baseURL:    baseURL,
		logger:     logg,
	}

	logg.Info(ctx, "sms client initialized")
	return c, nil
}

type sendResponse struct {
	Return struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"return"`
	Entries []struct {
		MessageID int64  `json:"messageid"`
		Status    int    `json:"status"`
		Receptor  string `json:"receptor"`
	} `json:"entries"`
}

// Send delivers a single message to the receptor phone number.
func (c *Client) Send(ctx context.Context, receptor, message string) error {
	if strings.TrimSpace(receptor) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sms receptor is required")
	}
	if strings.TrimSpace(message) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sms message is required")
	}

	form := url.Values{}
	form.Set("receptor", receptor)
	form.Set("message", message)
	if c.sender != "" {
		form.Set("sender", c.sender)
	}

	endpoint := c.baseURL + fmt.Sprintf(sendPathFormat, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.log(ctx, "request", map[string]any{"receptor": receptor})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sms gateway unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading sms gateway response")
	}

	var payload sendResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.log(ctx, "error", map[string]any{"status": resp.StatusCode})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding sms gateway response")
	}

	if resp.StatusCode != http.StatusOK || payload.Return.Status != http.StatusOK {
		c.log(ctx, "error", map[string]any{
			"status":         resp.StatusCode,
			"gateway_status": payload.Return.Status,
		})
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("sms gateway rejected send (status %d)", payload.Return.Status))
	}

	c.log(ctx, "response", map[string]any{"entries": len(payload.Entries)})
	return nil
}

func (c *Client) log(ctx context.Context, phase string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{"phase": phase}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, "sms send failed", nil)
	default:
		c.logger.Info(ctx, fmt.Sprintf("sms %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"receptor", "message", "phone", "code", "token"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
