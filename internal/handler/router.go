package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krithikvarshan1/inbox-linker/internal/metrics"
	"github.com/krithikvarshan1/inbox-linker/internal/middleware"
	"github.com/krithikvarshan1/inbox-linker/internal/realtime"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// OAuth連携
	ConnectService ConnectServiceInterface

	// 送信者・連携アカウント・メール
	SenderService     SenderServiceInterface
	ConnectionService ConnectionServiceInterface
	EmailService      EmailServiceInterface

	// リアルタイム配信
	Hub *realtime.Hub

	// 認証メールフック
	HookMailSender HookMailSender
	HookConfig     HookHandlerConfig

	// メトリクス
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SessionMiddleware → CSRFMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）、OAuthコールバック、認証メールフックは
// ミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	oauthHandler := NewOAuthHandler(deps.ConnectService, deps.Metrics, deps.AuthConfig.AppOrigin)
	senderHandler := NewSenderHandler(deps.SenderService)
	connectionHandler := NewConnectionHandler(deps.ConnectionService)
	emailHandler := NewEmailHandler(deps.EmailService, deps.Hub, deps.Metrics)
	hookHandler := NewHookHandler(deps.HookMailSender, deps.Metrics, deps.HookConfig)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// マジックリンク認証
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.RequestLogin)
		r.Get("/verify", authHandler.VerifyLogin)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// OAuthコールバック（プロバイダーからの戻り先のため認証不要）
	r.Get("/oauth/{provider}/callback", oauthHandler.Callback)

	// 認証基盤からのメール送信フック
	r.Post("/hooks/auth-email", hookHandler.AuthEmail)

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// Prometheusスクレイプ
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 送信者管理
		r.Route("/api/senders", func(r chi.Router) {
			// POST /api/senders - 送信者登録（登録専用レート制限を追加）
			r.With(deps.RateLimiter.SenderRegistrationMiddleware()).Post("/", senderHandler.Register)
			r.Get("/", senderHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", senderHandler.Update)
				r.Delete("/", senderHandler.Delete)

				// GET /api/senders/{id}/emails - 送信者ごとのメール一覧
				r.Get("/emails", emailHandler.List)
				r.Get("/emails/export", emailHandler.Export)
			})
		})

		// 連携アカウント管理
		r.Route("/api/connections", func(r chi.Router) {
			r.Get("/", connectionHandler.List)
			r.Delete("/{id}", connectionHandler.Delete)
		})

		// OAuth連携開始
		r.Get("/api/oauth/{provider}/authorize", oauthHandler.Authorize)

		// 新着メールのリアルタイム配信
		r.Get("/api/emails/stream", emailHandler.Stream)

		// アカウント削除
		r.Delete("/api/users/me", authHandler.Withdraw)
	})

	return r
}
