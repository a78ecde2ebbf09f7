package sms

import (
	"context"
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

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), config.SMSConfig{
		APIKey:      "test-key",
		Sender:      "10004321",
		BaseURL:     srv.URL,
		HTTPTimeout: 2 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestSendSuccess(t *testing.T) {
	var gotPath string
	var gotReceptor string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotReceptor = r.PostFormValue("receptor")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"return":{"status":200,"message":"ok"},"entries":[{"messageid":1,"status":1,"receptor":"09121234567"}]}`))
	})

	if err := client.Send(context.Background(), "09121234567", "your code is 123456"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/v1/test-key/sms/send.json" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotReceptor != "09121234567" {
		t.Fatalf("unexpected receptor %s", gotReceptor)
	}
}

func TestSendGatewayRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"return":{"status":418,"message":"invalid api key"}}`))
	})

	err := client.Send(context.Background(), "09121234567", "hello")
	if err == nil {
		t.Fatal("expected rejection error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSendValidatesInput(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("gateway should not be called")
	})

	if err := client.Send(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error for blank receptor")
	}
	if err := client.Send(context.Background(), "09121234567", " "); err == nil {
		t.Fatal("expected error for blank message")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(context.Background(), config.SMSConfig{}, testLogger()); err == nil {
		t.Fatal("expected missing api key error")
	}
}
