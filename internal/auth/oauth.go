// Package auth はOAuthによるメールアカウント連携フローと、
// マジックリンクによるパスワードレス認証を提供する。
package auth

import (
	"context"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// TokenSet はプロバイダーのトークンエンドポイントから取得したトークン一式。
type TokenSet struct {
	AccessToken  string
	RefreshToken string // プロバイダーが返さない場合は空文字列
	ExpiresIn    int    // 秒。プロバイダーが返さない場合は0。
}

// OAuthProvider はメールプロバイダーとのOAuth連携のインターフェース。
// Gmail/Outlookの2プロバイダーに対応する抽象化。
type OAuthProvider interface {
	// Name はプロバイダー種別を返す。
	Name() model.Provider

	// AuthorizationURL は認可URLを生成する。
	// クライアントIDが未設定の場合はエラーを返す。
	AuthorizationURL(state string) (string, error)

	// ExchangeCode は認可コードをトークン一式に交換する。
	ExchangeCode(ctx context.Context, code string) (*TokenSet, error)

	// FetchMailboxEmail はアクセストークンで連携先メールボックスの
	// メールアドレスを取得する。
	FetchMailboxEmail(ctx context.Context, accessToken string) (string, error)

	// DeniedMessage はユーザーが認可を拒否した場合にリダイレクトで
	// 表示する短いメッセージを返す。
	DeniedMessage() string
}
