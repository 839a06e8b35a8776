package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	requestLoginFn   func(ctx context.Context, email string) error
	verifyLoginFn    func(ctx context.Context, tokenID string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
	deleteAccountFn  func(ctx context.Context, userID string) error
}

func (m *mockAuthService) RequestLogin(ctx context.Context, email string) error {
	if m.requestLoginFn != nil {
		return m.requestLoginFn(ctx, email)
	}
	return nil
}

func (m *mockAuthService) VerifyLogin(ctx context.Context, tokenID string) (*model.Session, error) {
	if m.verifyLoginFn != nil {
		return m.verifyLoginFn(ctx, tokenID)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockAuthService) DeleteAccount(ctx context.Context, userID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, userID)
	}
	return nil
}

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		AppOrigin:     "http://localhost:3000",
		CookieSecure:  false,
		SessionMaxAge: 3600,
	}
}

// findCookie はレスポンスから指定名のCookieを探すヘルパー。
func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- POST /auth/login テスト ---

func TestAuthHandler_RequestLogin_Accepted(t *testing.T) {
	var gotEmail string
	svc := &mockAuthService{
		requestLoginFn: func(ctx context.Context, email string) error {
			gotEmail = email
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := bytes.NewBufferString(`{"email":"  Alice@Example.com "}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	w := httptest.NewRecorder()

	h.RequestLogin(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
	// 小文字化・空白除去して渡される
	if gotEmail != "alice@example.com" {
		t.Errorf("email = %q, want %q", gotEmail, "alice@example.com")
	}
}

func TestAuthHandler_RequestLogin_InvalidEmail(t *testing.T) {
	called := false
	svc := &mockAuthService{
		requestLoginFn: func(ctx context.Context, email string) error {
			called = true
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	for _, email := range []string{"no-at-sign", "missing@", "@example.com", ""} {
		body := bytes.NewBufferString(`{"email":"` + email + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		w := httptest.NewRecorder()

		h.RequestLogin(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("email %q: status = %d, want %d", email, w.Code, http.StatusBadRequest)
		}
	}
	if called {
		t.Error("service should not be called for invalid email")
	}
}

// --- GET /auth/verify テスト ---

func TestAuthHandler_VerifyLogin_SetsSessionAndRedirects(t *testing.T) {
	svc := &mockAuthService{
		verifyLoginFn: func(ctx context.Context, tokenID string) (*model.Session, error) {
			if tokenID != "token-1" {
				t.Errorf("tokenID = %q, want %q", tokenID, "token-1")
			}
			return &model.Session{
				ID:        "session-abc",
				UserID:    "user-123",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/verify?token=token-1&redirect_to=http%3A%2F%2Flocalhost%3A3000%2Fdashboard", nil)
	w := httptest.NewRecorder()

	h.VerifyLogin(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if loc := w.Header().Get("Location"); loc != "http://localhost:3000/dashboard" {
		t.Errorf("Location = %q, want %q", loc, "http://localhost:3000/dashboard")
	}

	cookie := findCookie(t, w, "session_id")
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Value != "session-abc" {
		t.Errorf("cookie value = %q, want %q", cookie.Value, "session-abc")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
}

func TestAuthHandler_VerifyLogin_RejectsForeignRedirect(t *testing.T) {
	svc := &mockAuthService{
		verifyLoginFn: func(ctx context.Context, tokenID string) (*model.Session, error) {
			return &model.Session{ID: "session-abc", UserID: "user-123"}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/verify?token=token-1&redirect_to=https%3A%2F%2Fevil.example.com%2Fphish", nil)
	w := httptest.NewRecorder()

	h.VerifyLogin(w, req)

	// 外部オリジンへのリダイレクトは拒否してデフォルトに差し替える
	if loc := w.Header().Get("Location"); loc != "http://localhost:3000/dashboard" {
		t.Errorf("Location = %q, want %q", loc, "http://localhost:3000/dashboard")
	}
}

func TestAuthHandler_VerifyLogin_InvalidToken(t *testing.T) {
	svc := &mockAuthService{
		verifyLoginFn: func(ctx context.Context, tokenID string) (*model.Session, error) {
			return nil, model.NewInvalidLoginTokenError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/verify?token=expired", nil)
	w := httptest.NewRecorder()

	h.VerifyLogin(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=invalid_link") {
		t.Errorf("Location = %q, should contain error=invalid_link", loc)
	}
	if cookie := findCookie(t, w, "session_id"); cookie != nil {
		t.Error("session cookie should not be set for invalid token")
	}
}

func TestAuthHandler_VerifyLogin_MissingToken(t *testing.T) {
	called := false
	svc := &mockAuthService{
		verifyLoginFn: func(ctx context.Context, tokenID string) (*model.Session, error) {
			called = true
			return nil, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	w := httptest.NewRecorder()

	h.VerifyLogin(w, req)

	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=invalid_link") {
		t.Errorf("Location = %q, should contain error=invalid_link", loc)
	}
	if called {
		t.Error("service should not be called without a token")
	}
}

// --- POST /auth/logout テスト ---

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	var gotSessionID string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			gotSessionID = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-abc"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if gotSessionID != "session-abc" {
		t.Errorf("sessionID = %q, want %q", gotSessionID, "session-abc")
	}

	cookie := findCookie(t, w, "session_id")
	if cookie == nil {
		t.Fatal("clearing cookie not set")
	}
	if cookie.MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", cookie.MaxAge)
	}
}

func TestAuthHandler_Logout_ClearsCookieEvenOnError(t *testing.T) {
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			return errors.New("store unavailable")
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-abc"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if cookie := findCookie(t, w, "session_id"); cookie == nil || cookie.MaxAge != -1 {
		t.Error("cookie should be cleared even when logout fails")
	}
}

// --- GET /auth/me テスト ---

func TestAuthHandler_Me_ReturnsUser(t *testing.T) {
	svc := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			return &model.User{ID: "user-123", Email: "alice@example.com"}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-abc"})
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "alice@example.com") {
		t.Errorf("body = %q, should contain user email", w.Body.String())
	}
}

func TestAuthHandler_Me_NoCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandler_Me_UnknownSession(t *testing.T) {
	svc := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- DELETE /api/users/me テスト ---

func TestAuthHandler_Withdraw_DeletesAccountAndClearsCookie(t *testing.T) {
	var deletedUserID string
	svc := &mockAuthService{
		deleteAccountFn: func(ctx context.Context, userID string) error {
			deletedUserID = userID
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deletedUserID != "user-123" {
		t.Errorf("deletedUserID = %q, want %q", deletedUserID, "user-123")
	}
	if cookie := findCookie(t, w, "session_id"); cookie == nil || cookie.MaxAge != -1 {
		t.Error("session cookie should be cleared after account deletion")
	}
}

func TestAuthHandler_Withdraw_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
