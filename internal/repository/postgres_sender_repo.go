package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// PostgresSenderRepo はPostgreSQLを使用した追跡対象送信者リポジトリ。
type PostgresSenderRepo struct {
	db *sql.DB
}

// NewPostgresSenderRepo はPostgresSenderRepoを生成する。
func NewPostgresSenderRepo(db *sql.DB) *PostgresSenderRepo {
	return &PostgresSenderRepo{db: db}
}

// FindByID は指定IDの送信者を取得する。見つからない場合はnilを返す。
func (r *PostgresSenderRepo) FindByID(ctx context.Context, id string) (*model.TrackedSender, error) {
	sender := &model.TrackedSender{}
	var label sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, label, created_at FROM sender_mail_ids WHERE id = $1`,
		id,
	).Scan(&sender.ID, &sender.UserID, &sender.Email, &label, &sender.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("送信者の取得に失敗しました: %w", err)
	}

	sender.Label = nullStringValue(label)
	return sender, nil
}

// FindByUserAndEmail はユーザーIDとメールアドレスで送信者を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresSenderRepo) FindByUserAndEmail(ctx context.Context, userID, email string) (*model.TrackedSender, error) {
	sender := &model.TrackedSender{}
	var label sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, label, created_at
		 FROM sender_mail_ids WHERE user_id = $1 AND email = $2`,
		userID, email,
	).Scan(&sender.ID, &sender.UserID, &sender.Email, &label, &sender.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("送信者の検索に失敗しました: %w", err)
	}

	sender.Label = nullStringValue(label)
	return sender, nil
}

// ListByUserID はユーザーの送信者一覧をcreated_at降順で返す。
func (r *PostgresSenderRepo) ListByUserID(ctx context.Context, userID string) ([]*model.TrackedSender, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, email, label, created_at
		 FROM sender_mail_ids WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("送信者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var senders []*model.TrackedSender
	for rows.Next() {
		sender := &model.TrackedSender{}
		var label sql.NullString

		if err := rows.Scan(&sender.ID, &sender.UserID, &sender.Email, &label, &sender.CreatedAt); err != nil {
			return nil, fmt.Errorf("送信者一覧の読み取りに失敗しました: %w", err)
		}

		sender.Label = nullStringValue(label)
		senders = append(senders, sender)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("送信者一覧の走査に失敗しました: %w", err)
	}

	return senders, nil
}

// Create は送信者を作成する。
func (r *PostgresSenderRepo) Create(ctx context.Context, sender *model.TrackedSender) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sender_mail_ids (id, user_id, email, label, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sender.ID, sender.UserID, sender.Email, nullString(sender.Label), sender.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("送信者の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は送信者のメールアドレスとラベルを更新する。
func (r *PostgresSenderRepo) Update(ctx context.Context, sender *model.TrackedSender) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sender_mail_ids SET email = $2, label = $3 WHERE id = $1`,
		sender.ID, sender.Email, nullString(sender.Label),
	)
	if err != nil {
		return fmt.Errorf("送信者の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの送信者を削除する。関連するemailsはCASCADE削除される。
func (r *PostgresSenderRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sender_mail_ids WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("送信者の削除に失敗しました: %w", err)
	}
	return nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ SenderRepository = (*PostgresSenderRepo)(nil)
