// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、login_tokens、sender_mail_ids、connected_accounts、
	// emailsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// LoginTokenRepository はマジックリンク用ワンタイムトークンの永続化インターフェース。
type LoginTokenRepository interface {
	// Create はログイントークンを作成する。
	Create(ctx context.Context, token *model.LoginToken) error

	// Consume は未使用かつ有効期限内のトークンを使用済みにして返す。
	// 該当トークンがない（存在しない・期限切れ・使用済み）場合はnilを返す。
	// UPDATE ... RETURNING による単一文で実行し、二重使用を防ぐ。
	Consume(ctx context.Context, id string, now time.Time) (*model.LoginToken, error)
}

// SenderRepository は追跡対象送信者の永続化インターフェース。
type SenderRepository interface {
	// FindByID は指定IDの送信者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.TrackedSender, error)

	// FindByUserAndEmail はユーザーIDとメールアドレスで送信者を検索する。
	// 見つからない場合はnilを返す。
	FindByUserAndEmail(ctx context.Context, userID, email string) (*model.TrackedSender, error)

	// ListByUserID はユーザーの送信者一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.TrackedSender, error)

	// Create は送信者を作成する。
	Create(ctx context.Context, sender *model.TrackedSender) error

	// Update は送信者のメールアドレスとラベルを更新する。
	Update(ctx context.Context, sender *model.TrackedSender) error

	// Delete は指定IDの送信者を削除する。
	// 関連するemailsレコードはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// ConnectionRepository は連携アカウントの永続化インターフェース。
type ConnectionRepository interface {
	// FindByID は指定IDの連携アカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ConnectedAccount, error)

	// ListByUserID はユーザーの連携アカウント一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.ConnectedAccount, error)

	// Replace は(user_id, provider, email)の既存レコードを削除してから
	// 新しいレコードを挿入するdelete-then-insert方式のUPSERT。
	// 2つの文はトランザクションで囲まない。削除と挿入の間で失敗した場合、
	// 該当メールボックスの連携は重複ではなくゼロ件になる。再連携は
	// ユーザー起点かつ冪等なため、この縮退は許容される。
	Replace(ctx context.Context, account *model.ConnectedAccount) error

	// Delete は指定IDの連携アカウントを削除する。
	Delete(ctx context.Context, id string) error
}

// EmailRepository は同期済みメールの読み取りインターフェース。
// emailsテーブルへの挿入は外部の同期プロセスが行うため、
// このシステムは読み取りのみを提供する。
type EmailRepository interface {
	// ListBySenderMailID は指定送信者のメール一覧をreceived_at降順で返す。
	ListBySenderMailID(ctx context.Context, senderMailID string) ([]*model.TrackedEmail, error)
}
