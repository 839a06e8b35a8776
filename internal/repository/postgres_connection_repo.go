package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// PostgresConnectionRepo はPostgreSQLを使用した連携アカウントリポジトリ。
type PostgresConnectionRepo struct {
	db *sql.DB
}

// NewPostgresConnectionRepo はPostgresConnectionRepoを生成する。
func NewPostgresConnectionRepo(db *sql.DB) *PostgresConnectionRepo {
	return &PostgresConnectionRepo{db: db}
}

// FindByID は指定IDの連携アカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresConnectionRepo) FindByID(ctx context.Context, id string) (*model.ConnectedAccount, error) {
	account := &model.ConnectedAccount{}
	var refreshToken sql.NullString
	var expiresAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider, email, access_token, refresh_token, expires_at, created_at
		 FROM connected_accounts WHERE id = $1`,
		id,
	).Scan(
		&account.ID, &account.UserID, &account.Provider, &account.Email,
		&account.AccessToken, &refreshToken, &expiresAt, &account.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("連携アカウントの取得に失敗しました: %w", err)
	}

	account.RefreshToken = nullStringValue(refreshToken)
	if expiresAt.Valid {
		account.ExpiresAt = &expiresAt.Time
	}

	return account, nil
}

// ListByUserID はユーザーの連携アカウント一覧をcreated_at降順で返す。
func (r *PostgresConnectionRepo) ListByUserID(ctx context.Context, userID string) ([]*model.ConnectedAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, provider, email, access_token, refresh_token, expires_at, created_at
		 FROM connected_accounts WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("連携アカウント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var accounts []*model.ConnectedAccount
	for rows.Next() {
		account := &model.ConnectedAccount{}
		var refreshToken sql.NullString
		var expiresAt sql.NullTime

		if err := rows.Scan(
			&account.ID, &account.UserID, &account.Provider, &account.Email,
			&account.AccessToken, &refreshToken, &expiresAt, &account.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("連携アカウント一覧の読み取りに失敗しました: %w", err)
		}

		account.RefreshToken = nullStringValue(refreshToken)
		if expiresAt.Valid {
			account.ExpiresAt = &expiresAt.Time
		}

		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("連携アカウント一覧の走査に失敗しました: %w", err)
	}

	return accounts, nil
}

// Replace は(user_id, provider, email)の既存レコードを削除してから新しいレコードを挿入する。
// 2つの文は意図的にトランザクションで囲まない。削除後・挿入前に失敗した場合は
// 該当メールボックスの連携がゼロ件になるが、重複は発生しない。
// 再連携はユーザー起点かつ冪等なため、この縮退は許容される。
func (r *PostgresConnectionRepo) Replace(ctx context.Context, account *model.ConnectedAccount) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM connected_accounts WHERE user_id = $1 AND provider = $2 AND email = $3`,
		account.UserID, account.Provider, account.Email,
	)
	if err != nil {
		return fmt.Errorf("既存連携アカウントの削除に失敗しました: %w", err)
	}

	var expiresAt sql.NullTime
	if account.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *account.ExpiresAt, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO connected_accounts (id, user_id, provider, email, access_token, refresh_token, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.UserID, account.Provider, account.Email,
		account.AccessToken, nullString(account.RefreshToken), expiresAt, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("連携アカウントの作成に失敗しました: %w", err)
	}

	return nil
}

// Delete は指定IDの連携アカウントを削除する。
func (r *PostgresConnectionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM connected_accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("連携アカウントの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ConnectionRepository = (*PostgresConnectionRepo)(nil)
