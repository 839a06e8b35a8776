// Package connection は連携アカウント管理のドメインロジックを提供する。
package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
	"github.com/krithikvarshan1/inbox-linker/internal/repository"
)

// ConnectionInfo は連携アカウントの表示用ドメインオブジェクト。
// アクセストークン等の秘密情報は含めない。
type ConnectionInfo struct {
	ID        string
	Provider  string
	Email     string
	Status    string // connected または expired
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// StatusConnected はトークンが有効な連携アカウントの状態。
const StatusConnected = "connected"

// StatusExpired はトークンが期限切れで再連携が必要な状態。
// レコードは削除されず、ユーザーの再連携によって上書きされる。
const StatusExpired = "expired"

// Service は連携アカウント管理のサービス層。
type Service struct {
	connRepo repository.ConnectionRepository
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(connRepo repository.ConnectionRepository) *Service {
	return &Service{
		connRepo: connRepo,
		now:      time.Now,
	}
}

// List はユーザーの連携アカウント一覧を状態付きで返す。
// 有効期限はリクエスト時点の時刻で評価する。
func (s *Service) List(ctx context.Context, userID string) ([]ConnectionInfo, error) {
	accounts, err := s.connRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("連携アカウント一覧の取得に失敗しました: %w", err)
	}

	now := s.now()
	results := make([]ConnectionInfo, len(accounts))
	for i, account := range accounts {
		status := StatusConnected
		if account.IsExpired(now) {
			status = StatusExpired
		}
		results[i] = ConnectionInfo{
			ID:        account.ID,
			Provider:  string(account.Provider),
			Email:     account.Email,
			Status:    status,
			ExpiresAt: account.ExpiresAt,
			CreatedAt: account.CreatedAt,
		}
	}

	return results, nil
}

// Delete は連携アカウントを削除する。
// 他ユーザーの連携アカウントは存在しないものとして扱う。
// 削除してもプロバイダー側のOAuth許可は取り消されない。
func (s *Service) Delete(ctx context.Context, userID, connectionID string) error {
	account, err := s.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("連携アカウントの取得に失敗しました: %w", err)
	}
	if account == nil || account.UserID != userID {
		return model.NewConnectionNotFoundError(connectionID)
	}

	if err := s.connRepo.Delete(ctx, account.ID); err != nil {
		return fmt.Errorf("連携アカウントの削除に失敗しました: %w", err)
	}

	return nil
}
