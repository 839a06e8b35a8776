// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// マジックリンクによるパスワードレス認証を前提とするため、
// メールアドレスのみを識別情報として保持する。
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// LoginToken はマジックリンク認証用のワンタイムトークンを表す。
// 一度使用されるとConsumedAtが記録され、再利用できない。
type LoginToken struct {
	ID         string
	UserID     string
	ActionType string // "signup", "login" 等のメールアクション種別
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// IsConsumed はトークンが使用済みかを返す。
func (t *LoginToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}
