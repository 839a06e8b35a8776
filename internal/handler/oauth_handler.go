package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/krithikvarshan1/inbox-linker/internal/auth"
	"github.com/krithikvarshan1/inbox-linker/internal/metrics"
	"github.com/krithikvarshan1/inbox-linker/internal/middleware"
	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// ConnectServiceInterface はOAuth連携ハンドラーが必要とするサービスインターフェース。
type ConnectServiceInterface interface {
	AuthorizeURL(providerName model.Provider, userID, redirectURL string) (string, error)
	HandleCallback(ctx context.Context, providerName model.Provider, code, stateParam string) (*auth.CallbackResult, error)
	DeniedMessage(providerName model.Provider) string
}

// OAuthHandler はメールプロバイダーのOAuth連携フローのHTTPハンドラー。
type OAuthHandler struct {
	service   ConnectServiceInterface
	metrics   metrics.MetricsCollector
	appOrigin string
}

// NewOAuthHandler はOAuthHandlerを生成する。
// appOriginはstateが復元できない場合のエラーリダイレクト先。
func NewOAuthHandler(service ConnectServiceInterface, collector metrics.MetricsCollector, appOrigin string) *OAuthHandler {
	return &OAuthHandler{
		service:   service,
		metrics:   collector,
		appOrigin: appOrigin,
	}
}

// Authorize はプロバイダーの認可URLへリダイレクトする。
// GET /api/oauth/{provider}/authorize
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	providerName := model.Provider(chi.URLParam(r, "provider"))
	redirectURL := r.URL.Query().Get("redirect_url")

	authURL, err := h.service.AuthorizeURL(providerName, userID, redirectURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback はプロバイダーからのOAuthコールバックを処理する。
// 成功・失敗いずれの場合もフロントエンドの連携設定画面へリダイレクトする。
// GET /oauth/{provider}/callback
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	providerName := model.Provider(chi.URLParam(r, "provider"))
	query := r.URL.Query()

	// ユーザーが認可を拒否した場合、プロバイダーはerrorパラメータを付けて戻る
	if query.Get("error") != "" {
		slog.Info("oauth authorization denied",
			slog.String("provider", string(providerName)),
			slog.String("error", query.Get("error")),
		)
		h.redirectWithError(w, r, h.service.DeniedMessage(providerName))
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		h.redirectWithError(w, r, "Missing authorization code")
		return
	}

	result, err := h.service.HandleCallback(r.Context(), providerName, code, state)
	if err != nil {
		h.metrics.RecordOAuthExchangeFailure(string(providerName))
		slog.Error("oauth callback failed",
			slog.String("provider", string(providerName)),
			slog.String("error", err.Error()),
		)
		h.redirectWithError(w, r, callbackErrorMessage(err))
		return
	}

	h.metrics.RecordOAuthExchangeSuccess(string(providerName))

	redirectURL := result.AppOrigin + "/dashboard/connections?success=" + url.QueryEscape(string(result.Provider))
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// redirectWithError はエラーメッセージ付きで連携設定画面へリダイレクトする。
func (h *OAuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	redirectURL := h.appOrigin + "/dashboard/connections?error=" + url.QueryEscape(message)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// callbackErrorMessage はコールバックエラーから表示用メッセージを取り出す。
// CallbackError以外のエラーは内部詳細を漏らさないよう汎用メッセージに落とす。
func callbackErrorMessage(err error) string {
	if cbErr, ok := err.(*auth.CallbackError); ok {
		return cbErr.Message
	}
	return "Failed to connect account"
}
