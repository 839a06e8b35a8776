package mailer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResendClient_Send(t *testing.T) {
	var gotAuth string
	var gotBody sendMailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.Write([]byte(`{"id":"mail-1"}`))
	}))
	defer server.Close()

	client := NewResendClient(server.Client(), testLogger(), "re_key", "MailFlow <onboarding@resend.dev>")
	client.SetEndpoint(server.URL)

	err := client.Send(context.Background(), "alice@example.com", "Your MailFlow Login Link", "<html>body</html>")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotAuth != "Bearer re_key" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer re_key")
	}
	if gotBody.From != "MailFlow <onboarding@resend.dev>" {
		t.Errorf("from = %q", gotBody.From)
	}
	if len(gotBody.To) != 1 || gotBody.To[0] != "alice@example.com" {
		t.Errorf("to = %v", gotBody.To)
	}
	if gotBody.Subject != "Your MailFlow Login Link" {
		t.Errorf("subject = %q", gotBody.Subject)
	}
	if gotBody.HTML != "<html>body</html>" {
		t.Errorf("html = %q", gotBody.HTML)
	}
}

func TestResendClient_Send_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	client := NewResendClient(server.Client(), testLogger(), "re_key", "bad-from")
	client.SetEndpoint(server.URL)

	err := client.Send(context.Background(), "alice@example.com", "subject", "<html></html>")
	if err == nil {
		t.Error("Send should fail on non-2xx response")
	}
}

func TestResendClient_Send_NoAPIKey(t *testing.T) {
	// APIキー未設定ならHTTPリクエストを発行せず成功扱いになる
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewResendClient(server.Client(), testLogger(), "", "MailFlow <onboarding@resend.dev>")
	client.SetEndpoint(server.URL)

	if err := client.Send(context.Background(), "alice@example.com", "subject", "<html></html>"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if called {
		t.Error("API should not be called without an API key")
	}
}
