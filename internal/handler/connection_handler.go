package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krithikvarshan1/inbox-linker/internal/connection"
	"github.com/krithikvarshan1/inbox-linker/internal/middleware"
)

// ConnectionServiceInterface は連携アカウントハンドラーが必要とするサービスインターフェース。
type ConnectionServiceInterface interface {
	List(ctx context.Context, userID string) ([]connection.ConnectionInfo, error)
	Delete(ctx context.Context, userID, connectionID string) error
}

// ConnectionHandler は連携アカウント関連のHTTPハンドラー。
type ConnectionHandler struct {
	service ConnectionServiceInterface
}

// NewConnectionHandler はConnectionHandlerを生成する。
func NewConnectionHandler(service ConnectionServiceInterface) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

// connectionResponse は連携アカウントのAPIレスポンス。
type connectionResponse struct {
	ID        string     `json:"id"`
	Provider  string     `json:"provider"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// List はユーザーの連携アカウント一覧を返す。
// トークンは含まれない。
// GET /api/connections
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	connections, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 空一覧はnullではなく[]で返す
	responses := make([]connectionResponse, 0, len(connections))
	for _, conn := range connections {
		responses = append(responses, connectionResponse{
			ID:        conn.ID,
			Provider:  conn.Provider,
			Email:     conn.Email,
			Status:    conn.Status,
			ExpiresAt: conn.ExpiresAt,
			CreatedAt: conn.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Delete は連携アカウントを解除する。
// DELETE /api/connections/{id}
func (h *ConnectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	connectionID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, connectionID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
