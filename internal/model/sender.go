// Package model はドメインモデルを定義する。
package model

import "time"

// TrackedSender は追跡対象の送信者メールアドレスを表す。
// ユーザーごとに登録され、(user_id, email)の組で一意。
// 削除時は関連するemailsレコードがCASCADE削除される。
type TrackedSender struct {
	ID        string
	UserID    string
	Email     string
	Label     string // 任意の表示ラベル。未設定の場合は空文字列。
	CreatedAt time.Time
}
