package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockHookMailSender はHookMailSenderのモック実装。
type mockHookMailSender struct {
	sendFn    func(ctx context.Context, to, subject, html string) error
	sendCount int
}

func (m *mockHookMailSender) Send(ctx context.Context, to, subject, html string) error {
	m.sendCount++
	if m.sendFn != nil {
		return m.sendFn(ctx, to, subject, html)
	}
	return nil
}

func hookRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/hooks/auth-email", bytes.NewBufferString(body))
}

const validHookPayload = `{
	"user": {"email": "alice@example.com"},
	"email_data": {
		"token_hash": "hash-123",
		"email_action_type": "signup",
		"redirect_to": "https://app.example.com/dashboard"
	}
}`

func TestHookHandler_AuthEmail_SendsMail(t *testing.T) {
	var gotTo, gotSubject, gotHTML string
	sender := &mockHookMailSender{
		sendFn: func(ctx context.Context, to, subject, html string) error {
			gotTo = to
			gotSubject = subject
			gotHTML = html
			return nil
		},
	}
	m := &mockMetrics{}
	h := NewHookHandler(sender, m, HookHandlerConfig{BaseURL: "https://api.example.com", Enabled: true})

	w := httptest.NewRecorder()
	h.AuthEmail(w, hookRequest(validHookPayload))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); body != "{}" {
		t.Errorf("body = %q, want %q", body, "{}")
	}

	if gotTo != "alice@example.com" {
		t.Errorf("to = %q, want %q", gotTo, "alice@example.com")
	}
	if !strings.Contains(gotSubject, "Welcome") {
		t.Errorf("signup subject should contain Welcome, got %q", gotSubject)
	}
	if !strings.Contains(gotHTML, "https://api.example.com/auth/verify?token=hash-123") {
		t.Errorf("html should contain verify URL, got %q", gotHTML)
	}
	if len(m.mailSent) != 1 || m.mailSent[0] != "signup" {
		t.Errorf("mailSent = %v, want [signup]", m.mailSent)
	}
}

func TestHookHandler_AuthEmail_SendFailureStillReturns200(t *testing.T) {
	sender := &mockHookMailSender{
		sendFn: func(ctx context.Context, to, subject, html string) error {
			return errors.New("resend api unavailable")
		},
	}
	m := &mockMetrics{}
	h := NewHookHandler(sender, m, HookHandlerConfig{BaseURL: "https://api.example.com", Enabled: true})

	w := httptest.NewRecorder()
	h.AuthEmail(w, hookRequest(validHookPayload))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); body != "{}" {
		t.Errorf("body = %q, want %q", body, "{}")
	}
	if len(m.mailFailed) != 1 || m.mailFailed[0] != "signup" {
		t.Errorf("mailFailed = %v, want [signup]", m.mailFailed)
	}
}

func TestHookHandler_AuthEmail_InvalidJSONStillReturns200(t *testing.T) {
	sender := &mockHookMailSender{}
	h := NewHookHandler(sender, &mockMetrics{}, HookHandlerConfig{BaseURL: "https://api.example.com", Enabled: true})

	w := httptest.NewRecorder()
	h.AuthEmail(w, hookRequest("{not json"))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if sender.sendCount != 0 {
		t.Error("mail should not be sent for invalid payload")
	}
}

func TestHookHandler_AuthEmail_MissingFieldsStillReturns200(t *testing.T) {
	sender := &mockHookMailSender{}
	h := NewHookHandler(sender, &mockMetrics{}, HookHandlerConfig{BaseURL: "https://api.example.com", Enabled: true})

	w := httptest.NewRecorder()
	h.AuthEmail(w, hookRequest(`{"user":{"email":""},"email_data":{}}`))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if sender.sendCount != 0 {
		t.Error("mail should not be sent when required fields are missing")
	}
}

// APIキー未設定のデプロイではフックは送信せずログのみ残す
func TestHookHandler_AuthEmail_DisabledSkipsSend(t *testing.T) {
	sender := &mockHookMailSender{}
	h := NewHookHandler(sender, &mockMetrics{}, HookHandlerConfig{BaseURL: "https://api.example.com", Enabled: false})

	w := httptest.NewRecorder()
	h.AuthEmail(w, hookRequest(validHookPayload))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); body != "{}" {
		t.Errorf("body = %q, want %q", body, "{}")
	}
	if sender.sendCount != 0 {
		t.Error("mail should not be sent when the hook is disabled")
	}
}

func TestHookHandler_AuthEmail_RedirectToIsEscaped(t *testing.T) {
	var gotHTML string
	sender := &mockHookMailSender{
		sendFn: func(ctx context.Context, to, subject, html string) error {
			gotHTML = html
			return nil
		},
	}
	h := NewHookHandler(sender, &mockMetrics{}, HookHandlerConfig{BaseURL: "https://api.example.com", Enabled: true})

	payload := `{
		"user": {"email": "bob@example.com"},
		"email_data": {
			"token_hash": "hash-456",
			"email_action_type": "magiclink",
			"redirect_to": "https://app.example.com/dashboard?tab=senders"
		}
	}`
	w := httptest.NewRecorder()
	h.AuthEmail(w, hookRequest(payload))

	if !strings.Contains(gotHTML, "redirect_to=https%3A%2F%2Fapp.example.com%2Fdashboard%3Ftab%3Dsenders") {
		t.Errorf("redirect_to should be query-escaped in the verify URL, got %q", gotHTML)
	}
}
