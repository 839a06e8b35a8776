package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/krithikvarshan1/inbox-linker/internal/model"
	"github.com/krithikvarshan1/inbox-linker/internal/repository"
)

// RedirectValidator はOAuth state経由で受け取ったリダイレクトURLの
// 安全性を検証するインターフェース。
// security.RedirectGuardServiceを抽象化してテスタビリティを向上させる。
type RedirectValidator interface {
	ValidateURL(rawURL string) error
}

// CallbackError はOAuthコールバック処理の終端エラー。
// Messageはリダイレクトのクエリパラメータとしてそのまま表示できる
// 短い文言であり、トークンやプロバイダーのエラー詳細を含まない。
type CallbackError struct {
	Message string
	cause   error
}

// Error はerrorインターフェースを実装する。
func (e *CallbackError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap は原因エラーを返す。
func (e *CallbackError) Unwrap() error {
	return e.cause
}

// CallbackResult はOAuthコールバック成功時の結果。
type CallbackResult struct {
	Provider model.Provider
	// AppOrigin はリダイレクト先アプリケーションのオリジン。
	// stateのredirect_urlから導出され、不正な場合はデフォルトにフォールバックする。
	AppOrigin string
}

// ConnectService はメールアカウントのOAuth連携フローを提供する。
type ConnectService struct {
	providers map[model.Provider]OAuthProvider
	connRepo  repository.ConnectionRepository
	guard     RedirectValidator
	appOrigin string
	now       func() time.Time
}

// NewConnectService はConnectServiceを生成する。
// appOriginはstateのredirect_urlが使えない場合のフォールバック先オリジン。
func NewConnectService(
	providers []OAuthProvider,
	connRepo repository.ConnectionRepository,
	guard RedirectValidator,
	appOrigin string,
) *ConnectService {
	m := make(map[model.Provider]OAuthProvider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &ConnectService{
		providers: m,
		connRepo:  connRepo,
		guard:     guard,
		appOrigin: appOrigin,
		now:       time.Now,
	}
}

// Provider は指定種別のプロバイダーを返す。
func (s *ConnectService) Provider(name model.Provider) (OAuthProvider, bool) {
	p, ok := s.providers[name]
	return p, ok
}

// DeniedMessage は認可拒否時にリダイレクトで表示する短いメッセージを返す。
func (s *ConnectService) DeniedMessage(providerName model.Provider) string {
	if p, ok := s.providers[providerName]; ok {
		return p.DeniedMessage()
	}
	return "Authorization was denied"
}

// AuthorizeURL は認可URLを生成する。
// ユーザーIDとリダイレクトURLをstateにエンコードして載せる。
// 副作用はない。プロバイダー未設定またはユーザーID欠落の場合はエラーを返す。
func (s *ConnectService) AuthorizeURL(providerName model.Provider, userID, redirectURL string) (string, error) {
	if userID == "" {
		return "", model.NewUserNotFoundError()
	}

	provider, ok := s.providers[providerName]
	if !ok {
		return "", model.NewInvalidProviderError(string(providerName))
	}

	state, err := EncodeState(OAuthState{UserID: userID, RedirectURL: redirectURL})
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}

	authURL, err := provider.AuthorizationURL(state)
	if err != nil {
		slog.Error("oauth provider is not configured",
			slog.String("provider", string(providerName)),
			slog.String("error", err.Error()),
		)
		return "", model.NewProviderNotConfiguredError(string(providerName))
	}

	return authURL, nil
}

// HandleCallback はOAuthコールバックの1パス処理を実行する。
// 最初のエラーで終端し、以降のステップは実行されない:
//  1. stateのデコード
//  2. 認可コードのトークン交換
//  3. 連携先メールボックスのアドレス解決
//  4. delete-then-insertによる連携アカウントの置き換え
//
// 返されるCallbackErrorのMessageはそのままリダイレクトに載せられる。
func (s *ConnectService) HandleCallback(ctx context.Context, providerName model.Provider, code, stateParam string) (*CallbackResult, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, &CallbackError{Message: "Unsupported provider"}
	}

	state, err := DecodeState(stateParam)
	if err != nil {
		return nil, &CallbackError{Message: "Invalid state parameter", cause: err}
	}

	tokens, err := provider.ExchangeCode(ctx, code)
	if err != nil {
		// トークンエンドポイントの応答内容はログのみに残し、クライアントには出さない
		return nil, &CallbackError{Message: "Failed to exchange authorization code", cause: err}
	}

	mailboxEmail, err := provider.FetchMailboxEmail(ctx, tokens.AccessToken)
	if err != nil {
		return nil, &CallbackError{Message: "Failed to resolve account email", cause: err}
	}

	now := s.now()
	var expiresAt *time.Time
	if tokens.ExpiresIn > 0 {
		t := now.Add(time.Duration(tokens.ExpiresIn) * time.Second)
		expiresAt = &t
	}

	account := &model.ConnectedAccount{
		ID:           uuid.New().String(),
		UserID:       state.UserID,
		Provider:     providerName,
		Email:        mailboxEmail,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}

	if err := s.connRepo.Replace(ctx, account); err != nil {
		return nil, &CallbackError{Message: "Failed to save account", cause: err}
	}

	slog.Info("mail account connected",
		slog.String("user_id", state.UserID),
		slog.String("provider", string(providerName)),
	)

	return &CallbackResult{
		Provider:  providerName,
		AppOrigin: s.resolveAppOrigin(state.RedirectURL),
	}, nil
}

// resolveAppOrigin はstateのredirect_urlからリダイレクト先オリジンを導出する。
// パース不能、または安全性検証に失敗した場合はデフォルトオリジンを返す。
func (s *ConnectService) resolveAppOrigin(redirectURL string) string {
	if redirectURL == "" {
		return s.appOrigin
	}

	if err := s.guard.ValidateURL(redirectURL); err != nil {
		slog.Warn("redirect URL rejected, falling back to default origin",
			slog.String("error", err.Error()),
		)
		return s.appOrigin
	}

	parsed, err := url.Parse(redirectURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return s.appOrigin
	}

	return parsed.Scheme + "://" + parsed.Host
}
