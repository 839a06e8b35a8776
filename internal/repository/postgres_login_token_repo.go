package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// PostgresLoginTokenRepo はPostgreSQLを使用したログイントークンリポジトリ。
type PostgresLoginTokenRepo struct {
	db *sql.DB
}

// NewPostgresLoginTokenRepo はPostgresLoginTokenRepoを生成する。
func NewPostgresLoginTokenRepo(db *sql.DB) *PostgresLoginTokenRepo {
	return &PostgresLoginTokenRepo{db: db}
}

// Create はログイントークンを作成する。
func (r *PostgresLoginTokenRepo) Create(ctx context.Context, token *model.LoginToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_tokens (id, user_id, action_type, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.UserID, token.ActionType, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ログイントークンの作成に失敗しました: %w", err)
	}
	return nil
}

// Consume は未使用かつ有効期限内のトークンを使用済みにして返す。
// 該当トークンがない場合はnilを返す。
// 条件付きUPDATEの単一文で実行するため、同一トークンの並行使用は
// どちらか一方のみが成功する。
func (r *PostgresLoginTokenRepo) Consume(ctx context.Context, id string, now time.Time) (*model.LoginToken, error) {
	token := &model.LoginToken{}
	var consumedAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`UPDATE login_tokens SET consumed_at = $2
		 WHERE id = $1 AND consumed_at IS NULL AND expires_at > $2
		 RETURNING id, user_id, action_type, expires_at, consumed_at, created_at`,
		id, now,
	).Scan(&token.ID, &token.UserID, &token.ActionType, &token.ExpiresAt, &consumedAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ログイントークンの使用に失敗しました: %w", err)
	}

	if consumedAt.Valid {
		token.ConsumedAt = &consumedAt.Time
	}

	return token, nil
}

// compile-time interface check
var _ LoginTokenRepository = (*PostgresLoginTokenRepo)(nil)
