// Package model はドメインモデルを定義する。
package model

import "time"

// Provider は連携先メールプロバイダーの種別を表す。
type Provider string

const (
	// ProviderGmail はGoogle Gmail連携。
	ProviderGmail Provider = "gmail"
	// ProviderOutlook はMicrosoft Outlook連携。
	ProviderOutlook Provider = "outlook"
)

// IsValid はプロバイダー種別がサポート対象かを返す。
func (p Provider) IsValid() bool {
	return p == ProviderGmail || p == ProviderOutlook
}

// ConnectedAccount はOAuthで連携されたメールアカウントを表す。
// AccessToken/RefreshTokenは秘密情報であり、APIレスポンスには含めない。
type ConnectedAccount struct {
	ID           string
	UserID       string
	Provider     Provider
	Email        string
	AccessToken  string
	RefreshToken string     // プロバイダーが返さない場合は空文字列
	ExpiresAt    *time.Time // プロバイダーが有効期限を返さない場合はnil
	CreatedAt    time.Time
}

// IsExpired は指定時刻においてアクセストークンが期限切れかを返す。
// ExpiresAtがnilの場合は期限切れとして扱わない。
// 期限切れでもレコードは削除されず、再連携が必要な状態として表示される。
func (a *ConnectedAccount) IsExpired(now time.Time) bool {
	if a.ExpiresAt == nil {
		return false
	}
	return a.ExpiresAt.Before(now)
}
