package sender

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// --- モック ---

type mockSenderRepo struct {
	findByIDFn           func(ctx context.Context, id string) (*model.TrackedSender, error)
	findByUserAndEmailFn func(ctx context.Context, userID, email string) (*model.TrackedSender, error)
	listByUserIDFn       func(ctx context.Context, userID string) ([]*model.TrackedSender, error)
	createFn             func(ctx context.Context, sender *model.TrackedSender) error
	updateFn             func(ctx context.Context, sender *model.TrackedSender) error
	deleteFn             func(ctx context.Context, id string) error
}

func (m *mockSenderRepo) FindByID(ctx context.Context, id string) (*model.TrackedSender, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockSenderRepo) FindByUserAndEmail(ctx context.Context, userID, email string) (*model.TrackedSender, error) {
	if m.findByUserAndEmailFn != nil {
		return m.findByUserAndEmailFn(ctx, userID, email)
	}
	return nil, nil
}
func (m *mockSenderRepo) ListByUserID(ctx context.Context, userID string) ([]*model.TrackedSender, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockSenderRepo) Create(ctx context.Context, sender *model.TrackedSender) error {
	if m.createFn != nil {
		return m.createFn(ctx, sender)
	}
	return nil
}
func (m *mockSenderRepo) Update(ctx context.Context, sender *model.TrackedSender) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, sender)
	}
	return nil
}
func (m *mockSenderRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- テスト ---

// TestService_Register は送信者登録を検証する。
func TestService_Register(t *testing.T) {
	var created *model.TrackedSender
	repo := &mockSenderRepo{
		createFn: func(ctx context.Context, sender *model.TrackedSender) error {
			created = sender
			return nil
		},
	}

	svc := NewService(repo)

	result, err := svc.Register(context.Background(), "user-1", "News@Example.COM ", "Newsletter")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if result.Email != "news@example.com" {
		t.Errorf("Email = %q, want normalized %q", result.Email, "news@example.com")
	}
	if result.Label != "Newsletter" {
		t.Errorf("Label = %q, want %q", result.Label, "Newsletter")
	}
	if result.ID == "" {
		t.Error("expected non-empty ID")
	}
}

// TestService_Register_InvalidEmail_NoWrite は不正アドレスで書き込みが起きないことを検証する。
func TestService_Register_InvalidEmail_NoWrite(t *testing.T) {
	createCalled := false
	repo := &mockSenderRepo{
		createFn: func(ctx context.Context, sender *model.TrackedSender) error {
			createCalled = true
			return nil
		},
	}

	svc := NewService(repo)

	invalid := []string{"not-an-email", "a@", "@example.com", "", "Name <a@example.com>"}
	for _, email := range invalid {
		_, err := svc.Register(context.Background(), "user-1", email, "")
		if err == nil {
			t.Errorf("Register(%q) = nil, want error", email)
			continue
		}
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			t.Errorf("Register(%q) error is not APIError: %v", email, err)
			continue
		}
		if apiErr.Code != model.ErrCodeInvalidEmail {
			t.Errorf("Register(%q) code = %q, want %q", email, apiErr.Code, model.ErrCodeInvalidEmail)
		}
	}

	if createCalled {
		t.Error("Create should not be called for invalid emails")
	}
}

// TestService_Register_Duplicate_ReturnsError は重複登録が拒否されることを検証する。
func TestService_Register_Duplicate_ReturnsError(t *testing.T) {
	repo := &mockSenderRepo{
		findByUserAndEmailFn: func(ctx context.Context, userID, email string) (*model.TrackedSender, error) {
			return &model.TrackedSender{ID: "sender-1", UserID: userID, Email: email}, nil
		},
	}

	svc := NewService(repo)

	_, err := svc.Register(context.Background(), "user-1", "news@example.com", "")
	if err == nil {
		t.Fatal("expected duplicate error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateSender {
		t.Errorf("expected DUPLICATE_SENDER error, got: %v", err)
	}
}

// TestService_Register_DuplicateCheckIsCaseInsensitive は大文字小文字の違いが重複として扱われることを検証する。
func TestService_Register_DuplicateCheckIsCaseInsensitive(t *testing.T) {
	var checkedEmail string
	repo := &mockSenderRepo{
		findByUserAndEmailFn: func(ctx context.Context, userID, email string) (*model.TrackedSender, error) {
			checkedEmail = email
			return &model.TrackedSender{ID: "sender-1"}, nil
		},
	}

	svc := NewService(repo)

	_, err := svc.Register(context.Background(), "user-1", "News@Example.com", "")
	if err == nil {
		t.Fatal("expected duplicate error, got nil")
	}
	if checkedEmail != "news@example.com" {
		t.Errorf("duplicate check used %q, want normalized %q", checkedEmail, "news@example.com")
	}
}

// TestService_Get_WrongUser_ReturnsNotFound は他ユーザーの送信者が見えないことを検証する。
func TestService_Get_WrongUser_ReturnsNotFound(t *testing.T) {
	repo := &mockSenderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.TrackedSender, error) {
			return &model.TrackedSender{ID: id, UserID: "user-other", Email: "a@example.com"}, nil
		},
	}

	svc := NewService(repo)

	_, err := svc.Get(context.Background(), "user-1", "sender-1")
	if err == nil {
		t.Fatal("expected not found error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSenderNotFound {
		t.Errorf("expected SENDER_NOT_FOUND error, got: %v", err)
	}
}

// TestService_Update は送信者の更新を検証する。
func TestService_Update(t *testing.T) {
	var updated *model.TrackedSender
	repo := &mockSenderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.TrackedSender, error) {
			return &model.TrackedSender{
				ID:        id,
				UserID:    "user-1",
				Email:     "old@example.com",
				Label:     "Old",
				CreatedAt: time.Now(),
			}, nil
		},
		updateFn: func(ctx context.Context, sender *model.TrackedSender) error {
			updated = sender
			return nil
		},
	}

	svc := NewService(repo)

	result, err := svc.Update(context.Background(), "user-1", "sender-1", "new@example.com", "New Label")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected Update to be called")
	}
	if result.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", result.Email, "new@example.com")
	}
	if result.Label != "New Label" {
		t.Errorf("Label = %q, want %q", result.Label, "New Label")
	}
}

// TestService_Update_SameEmail_SkipsDuplicateCheck は同一アドレスへの更新が重複扱いされないことを検証する。
func TestService_Update_SameEmail_SkipsDuplicateCheck(t *testing.T) {
	duplicateCheckCalled := false
	repo := &mockSenderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.TrackedSender, error) {
			return &model.TrackedSender{ID: id, UserID: "user-1", Email: "same@example.com"}, nil
		},
		findByUserAndEmailFn: func(ctx context.Context, userID, email string) (*model.TrackedSender, error) {
			duplicateCheckCalled = true
			return &model.TrackedSender{ID: "sender-1"}, nil
		},
	}

	svc := NewService(repo)

	_, err := svc.Update(context.Background(), "user-1", "sender-1", "same@example.com", "Relabeled")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if duplicateCheckCalled {
		t.Error("duplicate check should be skipped when email is unchanged")
	}
}

// TestService_Delete は送信者削除を検証する。
func TestService_Delete(t *testing.T) {
	deleteCalled := false
	repo := &mockSenderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.TrackedSender, error) {
			return &model.TrackedSender{ID: id, UserID: "user-1", Email: "a@example.com"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}

	svc := NewService(repo)

	if err := svc.Delete(context.Background(), "user-1", "sender-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !deleteCalled {
		t.Error("expected Delete to be called")
	}
}

// TestService_Delete_NotFound は存在しない送信者の削除がエラーになることを検証する。
func TestService_Delete_NotFound(t *testing.T) {
	repo := &mockSenderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.TrackedSender, error) {
			return nil, nil
		},
	}

	svc := NewService(repo)

	err := svc.Delete(context.Background(), "user-1", "missing")
	if err == nil {
		t.Fatal("expected error for missing sender, got nil")
	}
}
