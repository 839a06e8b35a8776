package repository

import (
	"testing"
	"time"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// PostgresLoginTokenRepoはLoginTokenRepositoryインターフェースを満たすことを検証
func TestPostgresLoginTokenRepo_ImplementsInterface(t *testing.T) {
	var _ LoginTokenRepository = (*PostgresLoginTokenRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresSessionRepoが正しく初期化されることを検証
func TestNewPostgresSessionRepo_Initializes(t *testing.T) {
	repo := NewPostgresSessionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresLoginTokenRepoが正しく初期化されることを検証
func TestNewPostgresLoginTokenRepo_Initializes(t *testing.T) {
	repo := NewPostgresLoginTokenRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// 期限切れトークンはIsConsumedにかかわらず無効扱いになることの期待動作
func TestLoginToken_Expiry_Concept(t *testing.T) {
	token := &model.LoginToken{
		ID:        "expired-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}

	if token.ExpiresAt.After(time.Now()) {
		t.Error("expected token to be expired")
	}
	if token.IsConsumed() {
		t.Error("expired token should not be marked consumed")
	}
}

// 使用済みトークンはConsumedAtが設定されることの検証
func TestLoginToken_IsConsumed(t *testing.T) {
	consumedAt := time.Now()
	token := &model.LoginToken{
		ID:         "used-token",
		UserID:     "user-1",
		ConsumedAt: &consumedAt,
	}

	if !token.IsConsumed() {
		t.Error("token with ConsumedAt should be consumed")
	}
}
