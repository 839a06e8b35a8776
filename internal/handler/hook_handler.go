package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/krithikvarshan1/inbox-linker/internal/mailer"
	"github.com/krithikvarshan1/inbox-linker/internal/metrics"
)

// HookMailSender は認証メールフックの配送インターフェース。
type HookMailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// HookHandlerConfig は認証メールフックの設定。
type HookHandlerConfig struct {
	// BaseURL は検証URLを組み立てるためのこのサーバーのベースURL。
	BaseURL string
	// Enabled がfalseの場合、フックはメール送信せずログのみ残す。
	// APIキー未設定のデプロイで利用する。
	Enabled bool
}

// HookHandler は外部認証基盤からのメール送信フックを処理する。
type HookHandler struct {
	sender  HookMailSender
	metrics metrics.MetricsCollector
	config  HookHandlerConfig
}

// NewHookHandler はHookHandlerを生成する。
func NewHookHandler(sender HookMailSender, collector metrics.MetricsCollector, config HookHandlerConfig) *HookHandler {
	return &HookHandler{
		sender:  sender,
		metrics: collector,
		config:  config,
	}
}

// authEmailPayload は認証メールフックのリクエストボディ。
type authEmailPayload struct {
	User struct {
		Email string `json:"email"`
	} `json:"user"`
	EmailData struct {
		Token           string `json:"token"`
		TokenHash       string `json:"token_hash"`
		RedirectTo      string `json:"redirect_to"`
		EmailActionType string `json:"email_action_type"`
		SiteURL         string `json:"site_url"`
	} `json:"email_data"`
}

// AuthEmail は認証メール送信フックを処理する。
// 呼び出し元の認証フローを止めないため、失敗してもログに残して常に200 {}を返す。
// POST /hooks/auth-email
func (h *HookHandler) AuthEmail(w http.ResponseWriter, r *http.Request) {
	// レスポンスは結果によらず常に200 {}
	defer func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}()

	var payload authEmailPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Error("failed to decode auth email hook payload", slog.String("error", err.Error()))
		return
	}

	if payload.User.Email == "" || payload.EmailData.TokenHash == "" {
		slog.Error("auth email hook payload is missing required fields")
		return
	}

	actionType := payload.EmailData.EmailActionType

	if !h.config.Enabled {
		slog.Warn("auth email hook is disabled, skipping send",
			slog.String("action_type", actionType),
		)
		return
	}

	confirmURL := fmt.Sprintf("%s/auth/verify?token=%s&redirect_to=%s",
		h.config.BaseURL,
		url.QueryEscape(payload.EmailData.TokenHash),
		url.QueryEscape(payload.EmailData.RedirectTo),
	)

	rendered := mailer.RenderAuthMail(actionType, confirmURL)

	if err := h.sender.Send(r.Context(), payload.User.Email, rendered.Subject, rendered.HTML); err != nil {
		h.metrics.RecordMailSendFailure(actionType)
		slog.Error("failed to send auth email",
			slog.String("action_type", actionType),
			slog.String("error", err.Error()),
		)
		return
	}

	h.metrics.RecordMailSent(actionType)
	slog.Info("auth email sent", slog.String("action_type", actionType))
}
