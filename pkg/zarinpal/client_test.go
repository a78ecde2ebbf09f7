package zarinpal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pollpulse/pollpulse-backend/pkg/config"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
	"github.com/pollpulse/pollpulse-backend/pkg/logger"
	"github.com/rs/zerolog"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), config.ZarinpalConfig{
		MerchantID:  "merchant-123",
		BaseURL:     srv.URL,
		PayBaseURL:  "https://pay.example.com/StartPay",
		HTTPTimeout: 2 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestRequestPaymentSuccess(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pg/v4/payment/request.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"code":100,"authority":"A00000123","message":"Success"},"errors":[]}`))
	})

	result, err := client.RequestPayment(context.Background(), RequestParams{
		AmountRial:  500000,
		CallbackURL: "https://app.example.com/callback",
		Description: "plan purchase",
	})
	if err != nil {
		t.Fatalf("request payment: %v", err)
	}
	if result.Authority != "A00000123" {
		t.Fatalf("unexpected authority %s", result.Authority)
	}
	if gotBody["merchant_id"] != "merchant-123" {
		t.Fatalf("merchant id not forwarded: %v", gotBody["merchant_id"])
	}
	if gotBody["amount"].(float64) != 500000 {
		t.Fatalf("amount not forwarded: %v", gotBody["amount"])
	}
}

func TestRequestPaymentGatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[],"errors":{"code":-9,"message":"The input params invalid"}}`))
	})

	_, err := client.RequestPayment(context.Background(), RequestParams{
		AmountRial:  1000,
		CallbackURL: "https://app.example.com/callback",
	})
	if err == nil {
		t.Fatal("expected gateway error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestVerifyPayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pg/v4/payment/verify.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"code":100,"ref_id":201399,"card_pan":"502229******5995"},"errors":[]}`))
	})

	result, err := client.VerifyPayment(context.Background(), VerifyParams{
		AmountRial: 500000,
		Authority:  "A00000123",
	})
	if err != nil {
		t.Fatalf("verify payment: %v", err)
	}
	if !Succeeded(result.Code) {
		t.Fatalf("expected success code, got %d", result.Code)
	}
	if result.RefID != "201399" {
		t.Fatalf("unexpected ref id %s", result.RefID)
	}
}

func TestVerifyPaymentFailedCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"code":-51,"message":"Session is not valid"},"errors":[]}`))
	})

	result, err := client.VerifyPayment(context.Background(), VerifyParams{
		AmountRial: 500000,
		Authority:  "A00000123",
	})
	if err != nil {
		t.Fatalf("verify payment: %v", err)
	}
	if Succeeded(result.Code) {
		t.Fatalf("code %d should not count as success", result.Code)
	}
}

func TestStartPayURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if got := client.StartPayURL("A00000123"); got != "https://pay.example.com/StartPay/A00000123" {
		t.Fatalf("unexpected start pay url %s", got)
	}
}

func TestSucceededCodes(t *testing.T) {
	if !Succeeded(CodeSuccess) || !Succeeded(CodeAlreadyVerified) {
		t.Fatal("expected 100 and 101 to succeed")
	}
	if Succeeded(-51) || Succeeded(0) {
		t.Fatal("unexpected success for failure codes")
	}
}
