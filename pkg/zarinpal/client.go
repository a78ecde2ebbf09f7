package zarinpal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pollpulse/pollpulse-backend/pkg/config"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
)

const (
	requestPath = "/pg/v4/payment/request.json"
	verifyPath  = "/pg/v4/payment/verify.json"

	// CodeSuccess is the gateway code for a completed operation.
	CodeSuccess = 100
	// CodeAlreadyVerified is returned when a transaction was verified before.
	CodeAlreadyVerified = 101
)

var (
	errMerchantIDRequired = errors.New("zarinpal merchant id is required")
	errLoggerRequired     = errors.New("zarinpal logger is required")
)

// Gateway is the payment surface consumed by the subscriptions service.
type Gateway interface {
	RequestPayment(ctx context.Context, params RequestParams) (*RequestResult, error)
	VerifyPayment(ctx context.Context, params VerifyParams) (*VerifyResult, error)
	StartPayURL(authority string) string
}

// Client talks to the Zarinpal v4 JSON payment API.
type Client struct {
	httpClient *http.Client
	merchantID string
	baseURL    string
	payBaseURL string
	logger     *logger.Logger
}

// NewClient validates credentials and builds the gateway wrapper.
func NewClient(ctx context.Context, cfg config.ZarinpalConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	merchantID := strings.TrimSpace(cfg.MerchantID)
	if merchantID == "" {
		return nil, errMerchantIDRequired
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.zarinpal.com"
	}
	payBaseURL := strings.TrimRight(cfg.PayBaseURL, "/")
	if payBaseURL == "" {
		payBaseURL = "https://www.zarinpal.com/pg/StartPay"
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		merchantID: merchantID,
		baseURL:    baseURL,
		payBaseURL: payBaseURL,
		logger:     logg,
	}

	logg.Info(ctx, "zarinpal client initialized")
	return c, nil
}

// RequestParams carries the inputs for a payment handshake.
type RequestParams struct {
	AmountRial  int64
	CallbackURL string
	Description string
}

// RequestResult is the successful outcome of a payment request.
type RequestResult struct {
	Authority string
	Code      int
}

// VerifyParams carries the inputs for verifying a returned payment.
type VerifyParams struct {
	AmountRial int64
	Authority  string
}

// VerifyResult is the gateway's verification outcome.
type VerifyResult struct {
	Code    int
	RefID   string
	CardPan string
}

type gatewayEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type requestData struct {
	Code      int    `json:"code"`
	Authority string `json:"authority"`
	Message   string `json:"message"`
}

type verifyData struct {
	Code    int             `json:"code"`
	RefID   json.RawMessage `json:"ref_id"`
	CardPan string          `json:"card_pan"`
	Message string          `json:"message"`
}

type gatewayError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RequestPayment opens a payment handshake and returns the gateway authority.
func (c *Client) RequestPayment(ctx context.Context, params RequestParams) (*RequestResult, error) {
	if params.AmountRial <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if strings.TrimSpace(params.CallbackURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "callback url is required")
	}

	payload := map[string]any{
		"merchant_id":  c.merchantID,
		"amount":       params.AmountRial,
		"callback_url": params.CallbackURL,
		"description":  params.Description,
	}

	c.log(ctx, "request", "payment_request", map[string]any{"amount": params.AmountRial})

	var data requestData
	if err := c.post(ctx, requestPath, payload, &data); err != nil {
		return nil, err
	}

	if data.Code != CodeSuccess || data.Authority == "" {
		c.log(ctx, "error", "payment_request", map[string]any{"gateway_code": data.Code})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment gateway rejected request (code %d)", data.Code))
	}

	c.log(ctx, "response", "payment_request", map[string]any{"gateway_code": data.Code})
	return &RequestResult{Authority: data.Authority, Code: data.Code}, nil
}

// VerifyPayment confirms a returned payment with the gateway. Both code 100
// (fresh verification) and 101 (already verified) count as paid.
func (c *Client) VerifyPayment(ctx context.Context, params VerifyParams) (*VerifyResult, error) {
	if params.AmountRial <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if strings.TrimSpace(params.Authority) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment authority is required")
	}

	payload := map[string]any{
		"merchant_id": c.merchantID,
		"amount":      params.AmountRial,
		"authority":   params.Authority,
	}

	c.log(ctx, "request", "payment_verify", map[string]any{"amount": params.AmountRial})

	var data verifyData
	if err := c.post(ctx, verifyPath, payload, &data); err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Code:    data.Code,
		RefID:   decodeRefID(data.RefID),
		CardPan: data.CardPan,
	}

	c.log(ctx, "response", "payment_verify", map[string]any{"gateway_code": data.Code})
	return result, nil
}

// StartPayURL builds the redirect URL for the given authority.
func (c *Client) StartPayURL(authority string) string {
	return fmt.Sprintf("%s/%s", c.payBaseURL, authority)
}

// Succeeded reports whether a verification code means the payment settled.
func Succeeded(code int) bool {
	return code == CodeSuccess || code == CodeAlreadyVerified
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding gateway request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", path, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading gateway response")
	}

	var envelope gatewayEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway response")
	}

	if len(envelope.Data) > 0 && string(envelope.Data) != "[]" && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway data")
		}
		return nil
	}

	var gwErr gatewayError
	if len(envelope.Errors) > 0 {
		_ = json.Unmarshal(envelope.Errors, &gwErr)
	}
	c.log(ctx, "error", path, map[string]any{"gateway_code": gwErr.Code})
	return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment gateway error (code %d)", gwErr.Code))
}

// decodeRefID tolerates the gateway returning ref_id as number or string.
func decodeRefID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return fmt.Sprintf("%d", asNumber)
	}
	return strings.Trim(string(raw), `"`)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("zarinpal %s", op), nil)
	default:
		c.logger.Info(ctx, fmt.Sprintf("zarinpal %s", phase))
	}
}
