package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krithikvarshan1/inbox-linker/internal/email"
	"github.com/krithikvarshan1/inbox-linker/internal/metrics"
	"github.com/krithikvarshan1/inbox-linker/internal/middleware"
	"github.com/krithikvarshan1/inbox-linker/internal/model"
	"github.com/krithikvarshan1/inbox-linker/internal/realtime"
)

// heartbeatInterval はSSE接続維持のためのコメント送信間隔。
const heartbeatInterval = 30 * time.Second

// EmailServiceInterface はメールハンドラーが必要とするサービスインターフェース。
type EmailServiceInterface interface {
	List(ctx context.Context, userID, senderID, filter string, order model.SortOrder) ([]email.EmailView, error)
	ExportCSV(ctx context.Context, userID, senderID, filter string, now time.Time) (*email.ExportResult, error)
}

// EmailHandler はメール閲覧・エクスポート・リアルタイム配信のHTTPハンドラー。
type EmailHandler struct {
	service EmailServiceInterface
	hub     *realtime.Hub
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewEmailHandler はEmailHandlerを生成する。
func NewEmailHandler(service EmailServiceInterface, hub *realtime.Hub, collector metrics.MetricsCollector) *EmailHandler {
	return &EmailHandler{
		service: service,
		hub:     hub,
		metrics: collector,
		now:     time.Now,
	}
}

// emailResponse はメール一覧のAPIレスポンス。
type emailResponse struct {
	ID          string    `json:"id"`
	SenderEmail string    `json:"sender_email"`
	Subject     string    `json:"subject"`
	Content     string    `json:"content"`
	Snippet     string    `json:"snippet"`
	ReceivedAt  time.Time `json:"received_at"`
}

// List は指定送信者のメール一覧を返す。
// filterで件名・本文の部分一致検索、orderで受信日時のソート順を指定できる。
// GET /api/senders/{id}/emails?filter=xxx&order=asc
func (h *EmailHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	senderID := chi.URLParam(r, "id")
	filter := r.URL.Query().Get("filter")
	order := model.SortOrder(r.URL.Query().Get("order"))

	emails, err := h.service.List(r.Context(), userID, senderID, filter, order)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 空一覧はnullではなく[]で返す
	responses := make([]emailResponse, 0, len(emails))
	for _, v := range emails {
		responses = append(responses, emailResponse{
			ID:          v.ID,
			SenderEmail: v.SenderEmail,
			Subject:     v.Subject,
			Content:     v.Content,
			Snippet:     v.Snippet,
			ReceivedAt:  v.ReceivedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Export は指定送信者のメール一覧をCSVファイルとしてダウンロードさせる。
// 一覧と同じfilterパラメータを適用するが、画面のソート指定は反映しない。
// GET /api/senders/{id}/emails/export?filter=xxx
func (h *EmailHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	senderID := chi.URLParam(r, "id")
	filter := r.URL.Query().Get("filter")

	result, err := h.service.ExportCSV(r.Context(), userID, senderID, filter, h.now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordCSVExport()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

// Stream は新着メールをServer-Sent Eventsで配信する。
// 接続中のユーザー宛のメール挿入イベントのみ届く。
// GET /api/emails/stream
func (h *EmailHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "STREAMING_UNSUPPORTED",
			Message:  "ストリーミングに対応していません。",
			Category: "system",
			Action:   "別の環境からお試しください。",
		})
		return
	}

	events, unsubscribe := h.hub.Subscribe(userID)
	defer unsubscribe()

	h.metrics.SetActiveStreams(h.hub.TotalSubscribers())
	defer func() {
		// unsubscribe前のカウントなので1減らした値を記録する
		h.metrics.SetActiveStreams(h.hub.TotalSubscribers() - 1)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				slog.Error("failed to marshal realtime event", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "event: email_inserted\ndata: %s\n\n", payload)
			flusher.Flush()
			h.metrics.RecordRealtimeEvent()
		case <-heartbeat.C:
			// 接続維持のためのコメント行
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
