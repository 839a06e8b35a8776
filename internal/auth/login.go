package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/krithikvarshan1/inbox-linker/internal/mailer"
	"github.com/krithikvarshan1/inbox-linker/internal/model"
	"github.com/krithikvarshan1/inbox-linker/internal/repository"
)

// MailSender はマジックリンクメールの配送インターフェース。
// mailer.ResendClientを抽象化してテスタビリティを向上させる。
type MailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// LoginServiceConfig はマジックリンク認証サービスの設定。
type LoginServiceConfig struct {
	// BaseURL はマジックリンクの検証エンドポイントのベースURL。
	BaseURL string
	// AppOrigin はログイン成功後のリダイレクト先オリジン。
	AppOrigin string
	// TokenTTL はログイントークンの有効期間。
	TokenTTL time.Duration
	// SessionMaxAge はセッション有効期間（秒）。
	SessionMaxAge int
}

// LoginService はマジックリンクによるパスワードレス認証を提供する。
type LoginService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.LoginTokenRepository
	sessRepo  repository.SessionRepository
	sender    MailSender
	config    LoginServiceConfig
	now       func() time.Time
}

// NewLoginService はLoginServiceを生成する。
func NewLoginService(
	userRepo repository.UserRepository,
	tokenRepo repository.LoginTokenRepository,
	sessRepo repository.SessionRepository,
	sender MailSender,
	config LoginServiceConfig,
) *LoginService {
	return &LoginService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		sessRepo:  sessRepo,
		sender:    sender,
		config:    config,
		now:       time.Now,
	}
}

// RequestLogin はマジックリンクを発行してメール送信する。
// 未登録のメールアドレスの場合はユーザーを新規作成し、
// アクション種別をsignupとしてメール文面を切り替える。
func (s *LoginService) RequestLogin(ctx context.Context, email string) error {
	now := s.now()

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	actionType := "magiclink"
	if user == nil {
		user = &model.User{
			ID:        uuid.New().String(),
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		actionType = "signup"
		slog.Info("new user registered", slog.String("user_id", user.ID))
	}

	tokenID, err := generateTokenID()
	if err != nil {
		return fmt.Errorf("failed to generate login token: %w", err)
	}

	token := &model.LoginToken{
		ID:         tokenID,
		UserID:     user.ID,
		ActionType: actionType,
		ExpiresAt:  now.Add(s.config.TokenTTL),
		CreatedAt:  now,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return fmt.Errorf("failed to store login token: %w", err)
	}

	confirmURL := fmt.Sprintf("%s/auth/verify?token=%s&redirect_to=%s",
		s.config.BaseURL, tokenID, url.QueryEscape(s.config.AppOrigin+"/dashboard"))

	rendered := mailer.RenderAuthMail(actionType, confirmURL)

	if err := s.sender.Send(ctx, email, rendered.Subject, rendered.HTML); err != nil {
		// 送信失敗はリトライしない。ユーザーの再リクエストに委ねる。
		return fmt.Errorf("failed to send login mail: %w", err)
	}

	return nil
}

// VerifyLogin はマジックリンクのトークンを検証してセッションを発行する。
// トークンは一度しか使用できない。無効なトークンはAPIErrorを返す。
func (s *LoginService) VerifyLogin(ctx context.Context, tokenID string) (*model.Session, error) {
	now := s.now()

	token, err := s.tokenRepo.Consume(ctx, tokenID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to consume login token: %w", err)
	}
	if token == nil {
		return nil, model.NewInvalidLoginTokenError()
	}

	sessionID, err := generateTokenID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    token.UserID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}
	if err := s.sessRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in via magic link",
		slog.String("user_id", token.UserID),
		slog.String("action_type", token.ActionType),
	)

	return session, nil
}

// Logout はセッションを破棄する。
func (s *LoginService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetCurrentUser はセッションIDから現在のユーザーを取得する。
func (s *LoginService) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	session, err := s.sessRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUserNotFoundError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// DeleteAccount はユーザーアカウントを削除する。
// 送信者・連携アカウント・メール等の関連レコードはCASCADE削除される。
func (s *LoginService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.sessRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// generateTokenID は推測不能なランダムID（32桁hex）を生成する。
func generateTokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
