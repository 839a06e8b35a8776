// Package model はドメインモデルを定義する。
package model

import "time"

// TrackedEmail は追跡対象送信者から同期されたメールを表す。
// このシステムからは読み取り専用であり、レコードの挿入は
// 外部の同期プロセスが行う。送信者の削除時にCASCADE削除される。
type TrackedEmail struct {
	ID           string
	SenderMailID string
	SenderEmail  string
	Subject      string
	Content      string // 本文。存在しない場合は空文字列。
	ReceivedAt   time.Time
	CreatedAt    time.Time
}

// EmailInsertEvent はemailsテーブルへの挿入を通知するリアルタイムイベント。
// pg_notifyのペイロードとしてトリガーから発行される。
type EmailInsertEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	SenderMailID string    `json:"sender_mail_id"`
	SenderEmail  string    `json:"sender_email"`
	Subject      string    `json:"subject"`
	ReceivedAt   time.Time `json:"received_at"`
}

// SortOrder はメール一覧のソート順を表す。
type SortOrder string

const (
	// SortOrderAsc は受信日時の昇順。
	SortOrderAsc SortOrder = "asc"
	// SortOrderDesc は受信日時の降順（デフォルト）。
	SortOrderDesc SortOrder = "desc"
)
