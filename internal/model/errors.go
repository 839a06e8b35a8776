// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, connection, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidEmail        = "INVALID_EMAIL"
	ErrCodeDuplicateSender     = "DUPLICATE_SENDER"
	ErrCodeSenderNotFound      = "SENDER_NOT_FOUND"
	ErrCodeConnectionNotFound  = "CONNECTION_NOT_FOUND"
	ErrCodeInvalidProvider     = "INVALID_PROVIDER"
	ErrCodeProviderNotConfig   = "PROVIDER_NOT_CONFIGURED"
	ErrCodeInvalidSortOrder    = "INVALID_SORT_ORDER"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeInvalidLoginToken   = "INVALID_LOGIN_TOKEN"
)

// NewInvalidEmailError は不正なメールアドレス形式エラーを生成する。
// フィールドレベルのバリデーションエラーとして、書き込み前に返される。
func NewInvalidEmailError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("メールアドレスの形式が正しくありません: %s", field),
		Category: "validation",
		Action:   "有効なメールアドレス（例: name@example.com）を入力してください。",
	}
}

// NewDuplicateSenderError は送信者の重複登録エラーを生成する。
func NewDuplicateSenderError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSender,
		Message:  fmt.Sprintf("この送信者は既に登録されています: %s", email),
		Category: "validation",
		Action:   "送信者一覧から該当アドレスを確認してください。",
	}
}

// NewSenderNotFoundError は送信者未検出エラーを生成する。
func NewSenderNotFoundError(senderID string) *APIError {
	return &APIError{
		Code:     ErrCodeSenderNotFound,
		Message:  fmt.Sprintf("指定された送信者が見つかりません: %s", senderID),
		Category: "validation",
		Action:   "送信者IDを確認してください。",
	}
}

// NewConnectionNotFoundError は連携アカウント未検出エラーを生成する。
func NewConnectionNotFoundError(connectionID string) *APIError {
	return &APIError{
		Code:     ErrCodeConnectionNotFound,
		Message:  fmt.Sprintf("指定された連携アカウントが見つかりません: %s", connectionID),
		Category: "connection",
		Action:   "連携アカウント一覧を確認してください。",
	}
}

// NewInvalidProviderError は未サポートのプロバイダーエラーを生成する。
func NewInvalidProviderError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProvider,
		Message:  fmt.Sprintf("サポートされていないプロバイダーです: %s", provider),
		Category: "validation",
		Action:   "プロバイダーには gmail または outlook を指定してください。",
	}
}

// NewProviderNotConfiguredError はプロバイダーのクライアントID未設定エラーを生成する。
// 設定不備はサーバー側のログに記録され、クライアントにはこのエラーのみが返る。
func NewProviderNotConfiguredError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderNotConfig,
		Message:  fmt.Sprintf("プロバイダー連携が設定されていません: %s", provider),
		Category: "connection",
		Action:   "管理者に連絡してください。",
	}
}

// NewInvalidSortOrderError は無効なソート順エラーを生成する。
func NewInvalidSortOrderError(order string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSortOrder,
		Message:  fmt.Sprintf("無効なソート順です: %s", order),
		Category: "validation",
		Action:   "ソート順には asc または desc を指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidLoginTokenError はログイントークンが無効な場合のエラーを生成する。
// 期限切れ・使用済み・存在しないトークンのいずれも同じエラーになる。
func NewInvalidLoginTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLoginToken,
		Message:  "ログインリンクが無効か、有効期限が切れています。",
		Category: "auth",
		Action:   "ログインリンクを再度リクエストしてください。",
	}
}
