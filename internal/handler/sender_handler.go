package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krithikvarshan1/inbox-linker/internal/middleware"
	"github.com/krithikvarshan1/inbox-linker/internal/model"
)

// SenderServiceInterface は送信者ハンドラーが必要とするサービスインターフェース。
type SenderServiceInterface interface {
	Register(ctx context.Context, userID, email, label string) (*model.TrackedSender, error)
	List(ctx context.Context, userID string) ([]*model.TrackedSender, error)
	Update(ctx context.Context, userID, senderID, email, label string) (*model.TrackedSender, error)
	Delete(ctx context.Context, userID, senderID string) error
}

// SenderHandler は追跡送信者関連のHTTPハンドラー。
type SenderHandler struct {
	service SenderServiceInterface
}

// NewSenderHandler はSenderHandlerを生成する。
func NewSenderHandler(service SenderServiceInterface) *SenderHandler {
	return &SenderHandler{service: service}
}

// senderRequest は送信者の登録・更新リクエストのボディ。
type senderRequest struct {
	Email string `json:"email"`
	Label string `json:"label"`
}

// senderResponse は送信者のAPIレスポンス。
type senderResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toSenderResponse(sender *model.TrackedSender) senderResponse {
	return senderResponse{
		ID:        sender.ID,
		Email:     sender.Email,
		Label:     sender.Label,
		CreatedAt: sender.CreatedAt,
	}
}

// Register は送信者メールアドレスを登録する。
// POST /api/senders
func (h *SenderHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req senderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	sender, err := h.service.Register(r.Context(), userID, req.Email, req.Label)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toSenderResponse(sender))
}

// List はユーザーの登録送信者一覧を返す。
// GET /api/senders
func (h *SenderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	senders, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 空一覧はnullではなく[]で返す
	responses := make([]senderResponse, 0, len(senders))
	for _, sender := range senders {
		responses = append(responses, toSenderResponse(sender))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Update は送信者のメールアドレスまたはラベルを更新する。
// PUT /api/senders/{id}
func (h *SenderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	senderID := chi.URLParam(r, "id")

	var req senderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	sender, err := h.service.Update(r.Context(), userID, senderID, req.Email, req.Label)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSenderResponse(sender))
}

// Delete は送信者を削除する。関連メールはCASCADE削除される。
// DELETE /api/senders/{id}
func (h *SenderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	senderID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, senderID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
