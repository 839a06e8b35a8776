// Package sender は追跡対象送信者のドメインロジックを提供する。
package sender

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krithikvarshan1/inbox-linker/internal/model"
	"github.com/krithikvarshan1/inbox-linker/internal/repository"
)

// Service は送信者レジストリのサービス層。
// 送信者の登録、一覧取得、更新、削除のビジネスロジックを提供する。
type Service struct {
	senderRepo repository.SenderRepository
	now        func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(senderRepo repository.SenderRepository) *Service {
	return &Service{
		senderRepo: senderRepo,
		now:        time.Now,
	}
}

// normalizeEmail はメールアドレスを小文字化・前後空白除去して正規化する。
// 重複判定は正規化後の値で行う。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail はメールアドレスの形式を検証する。
// net/mailのaddr-specパースで検証し、表示名付きの形式は拒否する。
func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return model.NewInvalidEmailError(email)
	}
	if addr.Address != email {
		return model.NewInvalidEmailError(email)
	}
	return nil
}

// Register は送信者を登録する。
// メールアドレスは正規化してから形式検証・重複チェックを行い、
// いずれかに失敗した場合は書き込みを行わずにAPIErrorを返す。
func (s *Service) Register(ctx context.Context, userID, email, label string) (*model.TrackedSender, error) {
	normalized := normalizeEmail(email)

	if err := validateEmail(normalized); err != nil {
		return nil, err
	}

	existing, err := s.senderRepo.FindByUserAndEmail(ctx, userID, normalized)
	if err != nil {
		return nil, fmt.Errorf("送信者の重複チェックに失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateSenderError(normalized)
	}

	sender := &model.TrackedSender{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     normalized,
		Label:     strings.TrimSpace(label),
		CreatedAt: s.now(),
	}

	if err := s.senderRepo.Create(ctx, sender); err != nil {
		return nil, fmt.Errorf("送信者の登録に失敗しました: %w", err)
	}

	return sender, nil
}

// List はユーザーの送信者一覧を登録日時の降順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.TrackedSender, error) {
	senders, err := s.senderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("送信者一覧の取得に失敗しました: %w", err)
	}
	return senders, nil
}

// Get は指定IDの送信者を取得する。
// 他ユーザーの送信者は存在しないものとして扱う。
func (s *Service) Get(ctx context.Context, userID, senderID string) (*model.TrackedSender, error) {
	sender, err := s.senderRepo.FindByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("送信者の取得に失敗しました: %w", err)
	}
	if sender == nil || sender.UserID != userID {
		return nil, model.NewSenderNotFoundError(senderID)
	}
	return sender, nil
}

// Update は送信者のメールアドレスとラベルを更新する。
// メールアドレス変更時は登録時と同じ検証・重複チェックを行う。
func (s *Service) Update(ctx context.Context, userID, senderID, email, label string) (*model.TrackedSender, error) {
	sender, err := s.Get(ctx, userID, senderID)
	if err != nil {
		return nil, err
	}

	normalized := normalizeEmail(email)

	if err := validateEmail(normalized); err != nil {
		return nil, err
	}

	if normalized != sender.Email {
		existing, err := s.senderRepo.FindByUserAndEmail(ctx, userID, normalized)
		if err != nil {
			return nil, fmt.Errorf("送信者の重複チェックに失敗しました: %w", err)
		}
		if existing != nil {
			return nil, model.NewDuplicateSenderError(normalized)
		}
	}

	sender.Email = normalized
	sender.Label = strings.TrimSpace(label)

	if err := s.senderRepo.Update(ctx, sender); err != nil {
		return nil, fmt.Errorf("送信者の更新に失敗しました: %w", err)
	}

	return sender, nil
}

// Delete は送信者を削除する。
// 関連する同期済みメールはCASCADE削除される。
func (s *Service) Delete(ctx context.Context, userID, senderID string) error {
	sender, err := s.Get(ctx, userID, senderID)
	if err != nil {
		return err
	}

	if err := s.senderRepo.Delete(ctx, sender.ID); err != nil {
		return fmt.Errorf("送信者の削除に失敗しました: %w", err)
	}

	return nil
}
