package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// PostgresEmailRepo はPostgreSQLを使用した同期済みメールリポジトリ。
// このシステムからは読み取り専用。挿入は外部の同期プロセスが行う。
type PostgresEmailRepo struct {
	db *sql.DB
}

// NewPostgresEmailRepo はPostgresEmailRepoを生成する。
func NewPostgresEmailRepo(db *sql.DB) *PostgresEmailRepo {
	return &PostgresEmailRepo{db: db}
}

// ListBySenderMailID は指定送信者のメール一覧をreceived_at降順で返す。
func (r *PostgresEmailRepo) ListBySenderMailID(ctx context.Context, senderMailID string) ([]*model.TrackedEmail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_mail_id, sender_email, subject, content, received_at, created_at
		 FROM emails WHERE sender_mail_id = $1 ORDER BY received_at DESC`,
		senderMailID,
	)
	if err != nil {
		return nil, fmt.Errorf("メール一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var emails []*model.TrackedEmail
	for rows.Next() {
		email := &model.TrackedEmail{}
		var content sql.NullString

		if err := rows.Scan(
			&email.ID, &email.SenderMailID, &email.SenderEmail,
			&email.Subject, &content, &email.ReceivedAt, &email.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("メール一覧の読み取りに失敗しました: %w", err)
		}

		email.Content = nullStringValue(content)
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メール一覧の走査に失敗しました: %w", err)
	}

	return emails, nil
}

// compile-time interface check
var _ EmailRepository = (*PostgresEmailRepo)(nil)
