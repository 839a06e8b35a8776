package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/krithikvarshan1/inbox-linker/internal/middleware"
)

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// --- メトリクスモック ---

// mockMetrics はMetricsCollectorのモック実装。呼び出し回数を記録する。
type mockMetrics struct {
	oauthSuccess  []string
	oauthFailure  []string
	mailSent      []string
	mailFailed    []string
	realtimeCount int
	streamCounts  []int
	csvExports    int
	httpStatuses  []int
}

func (m *mockMetrics) RecordOAuthExchangeSuccess(provider string) {
	m.oauthSuccess = append(m.oauthSuccess, provider)
}

func (m *mockMetrics) RecordOAuthExchangeFailure(provider string) {
	m.oauthFailure = append(m.oauthFailure, provider)
}

func (m *mockMetrics) RecordMailSent(actionType string) {
	m.mailSent = append(m.mailSent, actionType)
}

func (m *mockMetrics) RecordMailSendFailure(actionType string) {
	m.mailFailed = append(m.mailFailed, actionType)
}

func (m *mockMetrics) RecordRealtimeEvent() {
	m.realtimeCount++
}

func (m *mockMetrics) SetActiveStreams(count int) {
	m.streamCounts = append(m.streamCounts, count)
}

func (m *mockMetrics) RecordCSVExport() {
	m.csvExports++
}

func (m *mockMetrics) RecordHTTPStatus(statusCode int) {
	m.httpStatuses = append(m.httpStatuses, statusCode)
}
